package http

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"

	"github.com/cucumber/godog"

	"github.com/custodia-labs/finance-assist/internal/adapters/driven/ai"
	"github.com/custodia-labs/finance-assist/internal/adapters/driven/fetcher"
	"github.com/custodia-labs/finance-assist/internal/adapters/driven/memory"
	"github.com/custodia-labs/finance-assist/internal/core/domain"
	"github.com/custodia-labs/finance-assist/internal/core/ports/driving"
	"github.com/custodia-labs/finance-assist/internal/core/services"
	"github.com/custodia-labs/finance-assist/internal/normalisers"
	"github.com/custodia-labs/finance-assist/internal/postprocessors"
	"github.com/custodia-labs/finance-assist/internal/runtime"
)

func TestFeatures(t *testing.T) {
	suite := godog.TestSuite{
		ScenarioInitializer: initializeScenario,
		Options: &godog.Options{
			Format:   "pretty",
			Paths:    []string{"features"},
			TestingT: t,
		},
	}

	if suite.Run() != 0 {
		t.Fatal("non-zero status returned, failed to run feature tests")
	}
}

// assistFeature runs the real service stack offline: hashing embeddings,
// the extractive LLM and an in-memory index, with documents served by a
// local HTTP server.
type assistFeature struct {
	mu   sync.Mutex
	docs map[string]string

	docServer *httptest.Server
	services  *runtime.Services
	store     driving.VectorStore
	server    *Server
	resp      *httptest.ResponseRecorder
}

func (f *assistFeature) reset() {
	f.docs = make(map[string]string)
	f.docServer = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		body, ok := f.docs[r.URL.Path]
		f.mu.Unlock()
		if !ok {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte(body))
	}))

	logger := testLogger()
	f.services = runtime.NewServices(domain.NewRuntimeConfig("memory", "none"))
	f.services.SetEmbeddingService(ai.NewHashingEmbedding(0))
	f.services.SetLLMService(ai.NewExtractiveLLM(0))

	f.store = services.NewVectorStore(services.VectorStoreConfig{
		Index:    memory.NewVectorIndex(),
		Services: f.services,
		Logger:   logger,
	})
	reader := services.NewDocumentReader(
		fetcher.New(fetcher.Config{HTTPClient: f.docServer.Client()}),
		normalisers.DefaultRegistry(normalisers.ExecRunner{}, ""),
		logger,
	)
	assist := services.NewAssistService(services.AssistServiceConfig{
		Reader:   reader,
		Splitter: services.NewSplitter(postprocessors.DefaultPipeline()),
		Store:    f.store,
		Answers: services.NewAnswerEngine(services.AnswerEngineConfig{
			Store:    f.store,
			Services: f.services,
			Logger:   logger,
		}),
		Logger: logger,
	})

	cfg := DefaultConfig()
	cfg.Logger = logger
	f.server = NewServer(cfg, assist, nil, f.store, f.services, nil)
	f.resp = nil
}

func (f *assistFeature) serve(req *http.Request) {
	f.resp = httptest.NewRecorder()
	f.server.Handler().ServeHTTP(f.resp, req)
}

func (f *assistFeature) aDocumentContaining(path string, content *godog.DocString) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.docs[path] = content.Content
	return nil
}

func (f *assistFeature) noLanguageModelIsConfigured() error {
	f.services.SetLLMService(nil)
	return nil
}

func (f *assistFeature) iSaveTheDocuments(paths string) error {
	var urls []string
	for _, p := range strings.Split(paths, ",") {
		urls = append(urls, f.docServer.URL+strings.TrimSpace(p))
	}
	body, err := json.Marshal(urls)
	if err != nil {
		return err
	}
	return f.iSaveTheRawBody(string(body))
}

func (f *assistFeature) iSaveTheLocalFile(path string) error {
	body, err := json.Marshal([]string{path})
	if err != nil {
		return err
	}
	return f.iSaveTheRawBody(string(body))
}

func (f *assistFeature) iSaveTheRawBody(body string) error {
	f.serve(httptest.NewRequest(http.MethodPost, "/finance/assist/save", strings.NewReader(body)))
	return nil
}

func (f *assistFeature) iAsk(question string) error {
	f.serve(httptest.NewRequest(http.MethodGet, "/finance/assist/search?question="+url.QueryEscape(question), nil))
	return nil
}

func (f *assistFeature) iAskWithoutAQuestion() error {
	f.serve(httptest.NewRequest(http.MethodGet, "/finance/assist/search", nil))
	return nil
}

func (f *assistFeature) iRetrieve(keyword string) error {
	f.serve(httptest.NewRequest(http.MethodGet, "/finance/assist/retrieve?keyword="+url.QueryEscape(keyword), nil))
	return nil
}

func (f *assistFeature) theResponseStatusShouldBe(status int) error {
	if f.resp == nil {
		return fmt.Errorf("no request was made")
	}
	if f.resp.Code != status {
		return fmt.Errorf("expected status %d, got %d (error header %q, body %q)",
			status, f.resp.Code, f.resp.Header().Get(ErrorHeader), f.resp.Body.String())
	}
	return nil
}

func (f *assistFeature) theResponseBodyShouldBeEmpty() error {
	if body := f.resp.Body.String(); body != "" {
		return fmt.Errorf("expected empty body, got %q", body)
	}
	return nil
}

func (f *assistFeature) theResponseBodyShouldContain(text string) error {
	if body := f.resp.Body.String(); !strings.Contains(body, text) {
		return fmt.Errorf("expected body to contain %q, got %q", text, body)
	}
	return nil
}

func (f *assistFeature) theHeaderShouldMention(name, text string) error {
	if v := f.resp.Header().Get(name); !strings.Contains(v, text) {
		return fmt.Errorf("expected %s header to mention %q, got %q", name, text, v)
	}
	return nil
}

func (f *assistFeature) theStoreShouldHold(n int) error {
	count, err := f.store.Count(context.Background())
	if err != nil {
		return err
	}
	if count != n {
		return fmt.Errorf("expected %d stored chunks, got %d", n, count)
	}
	return nil
}

func (f *assistFeature) theRetrievedChunksShouldComeFrom(path string) error {
	var result domain.SearchResult
	if err := json.Unmarshal(f.resp.Body.Bytes(), &result); err != nil {
		return err
	}
	if len(result.Results) == 0 {
		return fmt.Errorf("expected at least one result")
	}
	want := f.docServer.URL + path
	for _, rc := range result.Results {
		if rc.Chunk.Source != want {
			return fmt.Errorf("expected source %q, got %q", want, rc.Chunk.Source)
		}
	}
	return nil
}

func initializeScenario(sc *godog.ScenarioContext) {
	f := &assistFeature{}

	sc.Before(func(ctx context.Context, _ *godog.Scenario) (context.Context, error) {
		f.reset()
		return ctx, nil
	})
	sc.After(func(ctx context.Context, _ *godog.Scenario, err error) (context.Context, error) {
		if f.docServer != nil {
			f.docServer.Close()
		}
		_ = f.services.Close()
		return ctx, nil
	})

	sc.Step(`^a document "([^"]*)" containing:$`, f.aDocumentContaining)
	sc.Step(`^no language model is configured$`, f.noLanguageModelIsConfigured)
	sc.Step(`^I save the documents "([^"]*)"$`, f.iSaveTheDocuments)
	sc.Step(`^I save the local file "([^"]*)"$`, f.iSaveTheLocalFile)
	sc.Step(`^I save the raw body "([^"]*)"$`, f.iSaveTheRawBody)
	sc.Step(`^I ask "([^"]*)"$`, f.iAsk)
	sc.Step(`^I ask without a question$`, f.iAskWithoutAQuestion)
	sc.Step(`^I retrieve "([^"]*)"$`, f.iRetrieve)
	sc.Step(`^the response status should be (\d+)$`, f.theResponseStatusShouldBe)
	sc.Step(`^the response body should be empty$`, f.theResponseBodyShouldBeEmpty)
	sc.Step(`^the response body should contain "([^"]*)"$`, f.theResponseBodyShouldContain)
	sc.Step(`^the "([^"]*)" header should mention "([^"]*)"$`, f.theHeaderShouldMention)
	sc.Step(`^the store should hold (\d+) chunks?$`, f.theStoreShouldHold)
	sc.Step(`^the retrieved chunks should come from "([^"]*)"$`, f.theRetrievedChunksShouldComeFrom)
}
