package services

import (
	"context"
	"io"
	"log/slog"

	"github.com/custodia-labs/finance-assist/internal/core/domain"
	"github.com/custodia-labs/finance-assist/internal/core/ports/driven"
	"github.com/custodia-labs/finance-assist/internal/core/ports/driven/mocks"
	"github.com/custodia-labs/finance-assist/internal/core/ports/driving"
	"github.com/custodia-labs/finance-assist/internal/postprocessors"
	"github.com/custodia-labs/finance-assist/internal/runtime"
)

// testLogger discards output
func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fetcherFunc adapts a function to driven.Fetcher
type fetcherFunc func(ctx context.Context, locator string) (*domain.RawDocument, error)

func (f fetcherFunc) Fetch(ctx context.Context, locator string) (*domain.RawDocument, error) {
	return f(ctx, locator)
}

// testStack wires the ingestion and answering services over mocks
type testStack struct {
	fetcher  *mocks.MockFetcher
	embedder *mocks.MockEmbeddingService
	llm      *mocks.MockLLMService
	index    *mocks.MockVectorIndex
	services *runtime.Services
	store    driving.VectorStore
	assist   driving.AssistService
}

func newTestStack(chunkCfg postprocessors.TokenChunkConfig) *testStack {
	st := &testStack{
		fetcher:  mocks.NewMockFetcher(),
		embedder: mocks.NewMockEmbeddingService(),
		llm:      mocks.NewMockLLMService("The answer."),
		index:    mocks.NewMockVectorIndex(),
	}
	st.services = runtime.NewServices(domain.NewRuntimeConfig("memory", "none"))
	st.services.SetEmbeddingService(st.embedder)
	st.services.SetLLMService(st.llm)

	st.store = NewVectorStore(VectorStoreConfig{
		Index:    st.index,
		Services: st.services,
		Logger:   testLogger(),
	})
	pipeline := postprocessors.NewPipelineFromConfig(postprocessors.Config{Chunk: chunkCfg})

	st.assist = NewAssistService(AssistServiceConfig{
		Reader:   NewDocumentReader(st.fetcher, mocks.NewMockNormaliserRegistry(), testLogger()),
		Splitter: NewSplitter(pipeline),
		Store:    st.store,
		Answers: NewAnswerEngine(AnswerEngineConfig{
			Store:    st.store,
			Services: st.services,
			Logger:   testLogger(),
		}),
		Logger: testLogger(),
	})
	return st
}

var _ driven.Fetcher = fetcherFunc(nil)
