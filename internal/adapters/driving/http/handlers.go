package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/swaggo/swag"

	"github.com/custodia-labs/finance-assist/internal/core/domain"
)

// ErrorHeader carries the failure message of the save endpoint
const ErrorHeader = "error"

// ErrorResponse represents an API error response
// @Description API error response
type ErrorResponse struct {
	Error string `json:"error" example:"invalid input"`
}

// HealthResponse reports liveness and which AI services are configured
// @Description Liveness and component status
type HealthResponse struct {
	Status         string `json:"status" example:"ok"`
	VectorBackend  string `json:"vector_backend" example:"memory"`
	LockBackend    string `json:"lock_backend" example:"none"`
	EmbeddingModel string `json:"embedding_model,omitempty" example:"local-hashing"`
	LLMModel       string `json:"llm_model,omitempty" example:"extractive"`
	CanIngest      bool   `json:"can_ingest"`
	CanAnswer      bool   `json:"can_answer"`
}

// ReadyResponse reports readiness of the storage and lock backends
// @Description Readiness status
type ReadyResponse struct {
	Status string            `json:"status" example:"ready"`
	Chunks int               `json:"chunks" example:"42"`
	Checks map[string]string `json:"checks,omitempty"`
}

// VersionResponse represents the API version response
// @Description API version response
type VersionResponse struct {
	Version string `json:"version" example:"1.0.0"`
}

// Health endpoints

// handleHealth godoc
// @Summary      Health check
// @Description  Returns liveness and the configured AI services. No backend is contacted.
// @Tags         Health
// @Produce      json
// @Success      200  {object}  HealthResponse
// @Router       /health [get]
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	resp := HealthResponse{Status: "ok"}
	if s.services != nil {
		cfg := s.services.Config()
		resp.VectorBackend = cfg.VectorBackend
		resp.LockBackend = cfg.LockBackend
		resp.CanIngest = cfg.CanIngest()
		resp.CanAnswer = cfg.CanAnswer()
		resp.EmbeddingModel, resp.LLMModel = s.services.Models()
	}
	writeJSON(w, http.StatusOK, resp)
}

// handleReady godoc
// @Summary      Readiness check
// @Description  Pings the vector index and the lock backend and reports the stored chunk count
// @Tags         Health
// @Produce      json
// @Success      200  {object}  ReadyResponse
// @Failure      503  {object}  ReadyResponse  "A backend is unreachable"
// @Router       /ready [get]
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	resp := ReadyResponse{Status: "ready", Checks: map[string]string{}}
	status := http.StatusOK

	fail := func(name string, err error) {
		resp.Checks[name] = err.Error()
		resp.Status = "unavailable"
		status = http.StatusServiceUnavailable
	}

	if s.store == nil {
		fail("vector_index", errors.New("not configured"))
	} else if err := s.store.HealthCheck(ctx); err != nil {
		fail("vector_index", err)
	} else {
		resp.Checks["vector_index"] = "ok"
		count, err := s.store.Count(ctx)
		if err != nil {
			fail("vector_index", err)
		}
		resp.Chunks = count
	}

	if s.lock != nil {
		if err := s.lock.Ping(ctx); err != nil {
			fail("lock", err)
		} else {
			resp.Checks["lock"] = "ok"
		}
	}

	writeJSON(w, status, resp)
}

// handleVersion godoc
// @Summary      Get API version
// @Description  Returns the current API version
// @Tags         Health
// @Produce      json
// @Success      200  {object}  VersionResponse
// @Router       /version [get]
func (s *Server) handleVersion(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, VersionResponse{Version: s.version})
}

// handleSwagger serves the registered OpenAPI document
func (s *Server) handleSwagger(w http.ResponseWriter, r *http.Request) {
	doc, err := swag.ReadDoc()
	if err != nil {
		writeError(w, http.StatusNotFound, "api documentation not registered")
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = io.WriteString(w, doc)
}

// Assist endpoints

// handleSave godoc
// @Summary      Ingest documents
// @Description  Fetches every URL, splits the text into chunks and stores their embeddings.
// @Description  An empty array is a no-op. On failure the message is returned in the "error" header.
// @Tags         Assist
// @Accept       json
// @Param        request  body  []string  true  "Document URLs"
// @Success      200  "Stored"
// @Failure      404  {string}  string  "Ingestion failed (legacy mapping), see error header"
// @Security     BearerAuth
// @Router       /finance/assist/save [post]
func (s *Server) handleSave(w http.ResponseWriter, r *http.Request) {
	urls, err := s.decodeURLs(w, r)
	if err == nil {
		err = s.assistService.Ingest(r.Context(), urls)
	}

	attrs := []any{"urls", len(urls)}
	if claims := GetClaims(r.Context()); claims != nil {
		attrs = append(attrs, "subject", claims.Subject)
	}

	if err != nil {
		status := s.statusMapping.ingestStatus(err)
		s.logger.Warn("ingest failed", append(attrs, "error", err, "status", status)...)
		w.Header().Set(ErrorHeader, headerSafe(err.Error()))
		w.WriteHeader(status)
		return
	}
	s.logger.Info("documents ingested", attrs...)
	w.WriteHeader(http.StatusOK)
}

// decodeURLs reads the save body as a JSON array of strings. A literal
// null decodes to a nil slice, which the service rejects.
func (s *Server) decodeURLs(w http.ResponseWriter, r *http.Request) ([]string, error) {
	body := http.MaxBytesReader(w, r.Body, s.maxIngestBytes)
	dec := json.NewDecoder(body)

	var urls []string
	if err := dec.Decode(&urls); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			err = fmt.Errorf("request body exceeds %d bytes", tooLarge.Limit)
		}
		return nil, domain.NewError(domain.KindInvalidInput, "decode request",
			fmt.Errorf("%w: %v", domain.ErrInvalidInput, err))
	}
	if dec.More() {
		return nil, domain.NewError(domain.KindInvalidInput, "decode request",
			fmt.Errorf("%w: unexpected data after array", domain.ErrInvalidInput))
	}
	return urls, nil
}

// handleSearch godoc
// @Summary      Answer a question
// @Description  Retrieves the most similar stored chunks and asks the LLM to answer from them.
// @Tags         Assist
// @Produce      plain
// @Param        question  query     string  true  "Question"
// @Success      200       {string}  string  "Answer text"
// @Failure      400       {string}  string  "Missing question (precise mapping)"
// @Failure      504       {string}  string  "Answering failed or question missing (legacy mapping)"
// @Router       /finance/assist/search [get]
func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	question, err := requiredParam(r.URL.Query(), "question")
	var answer string
	if err == nil {
		answer, err = s.assistService.GetAnswer(r.Context(), question)
	}
	if err != nil {
		status := s.statusMapping.searchStatus(err)
		s.logger.Warn("answer failed", "error", err, "status", status)
		writeText(w, status, err.Error())
		return
	}
	writeText(w, http.StatusOK, answer)
}

// handleRetrieve godoc
// @Summary      Retrieve similar chunks
// @Description  Returns the stored chunks most similar to the keyword, best first
// @Tags         Assist
// @Produce      json
// @Param        keyword    query     string  true   "Search text"
// @Param        top_k      query     int     false  "Maximum results" default(4)
// @Param        threshold  query     number  false  "Minimum cosine similarity" default(0)
// @Success      200        {object}  domain.SearchResult
// @Failure      504        {object}  ErrorResponse  "Retrieval failed (legacy mapping)"
// @Router       /finance/assist/retrieve [get]
func (s *Server) handleRetrieve(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	q := r.URL.Query()
	keyword, err := requiredParam(q, "keyword")

	var opts domain.SearchOptions
	if err == nil {
		opts, err = parseSearchOptions(q.Get("top_k"), q.Get("threshold"))
	}
	var results []*domain.RankedChunk
	if err == nil {
		results, err = s.assistService.Retrieve(r.Context(), keyword, opts)
	}
	if err != nil {
		status := s.statusMapping.searchStatus(err)
		s.logger.Warn("retrieve failed", "error", err, "status", status)
		writeError(w, status, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, domain.SearchResult{
		Query:   keyword,
		Results: withoutEmbeddings(results),
		Took:    time.Since(start),
	})
}

// requiredParam returns a query parameter that must be present. An empty
// value is accepted.
func requiredParam(q url.Values, name string) (string, error) {
	if !q.Has(name) {
		return "", domain.NewError(domain.KindInvalidInput, "parse "+name,
			fmt.Errorf("%w: missing required parameter %q", domain.ErrInvalidInput, name))
	}
	return q.Get(name), nil
}

// parseSearchOptions reads optional query limits. Zero values fall back to
// the service defaults.
func parseSearchOptions(topK, threshold string) (domain.SearchOptions, error) {
	var opts domain.SearchOptions
	if topK = strings.TrimSpace(topK); topK != "" {
		n, err := strconv.Atoi(topK)
		if err != nil || n < 0 {
			return opts, domain.NewError(domain.KindInvalidInput, "parse top_k",
				fmt.Errorf("%w: top_k must be a non-negative integer", domain.ErrInvalidInput))
		}
		opts.TopK = n
	}
	if threshold = strings.TrimSpace(threshold); threshold != "" {
		f, err := strconv.ParseFloat(threshold, 64)
		if err != nil || f < -1 || f > 1 {
			return opts, domain.NewError(domain.KindInvalidInput, "parse threshold",
				fmt.Errorf("%w: threshold must be between -1 and 1", domain.ErrInvalidInput))
		}
		opts.Threshold = f
	}
	return opts, nil
}

// withoutEmbeddings copies results with the vectors dropped
func withoutEmbeddings(results []*domain.RankedChunk) []*domain.RankedChunk {
	out := make([]*domain.RankedChunk, 0, len(results))
	for _, rc := range results {
		if rc == nil || rc.Chunk == nil {
			continue
		}
		c := *rc.Chunk
		c.Embedding = nil
		out = append(out, &domain.RankedChunk{Chunk: &c, Score: rc.Score})
	}
	return out
}

// Helper functions

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, ErrorResponse{Error: message})
}

func writeText(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(status)
	_, _ = io.WriteString(w, body)
}
