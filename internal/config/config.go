// Package config loads service settings from defaults, an optional YAML
// file and the environment, in that order of precedence.
package config

import (
	"errors"
	"fmt"
	"log"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/custodia-labs/finance-assist/internal/core/domain"
)

// Config is the root service configuration.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Storage   StorageConfig   `yaml:"storage"`
	Embedding EmbeddingConfig `yaml:"embedding"`
	LLM       LLMConfig       `yaml:"llm"`
	Splitter  SplitterConfig  `yaml:"splitter"`
	Search    SearchConfig    `yaml:"search"`
	Fetch     FetchConfig     `yaml:"fetch"`
	Auth      AuthConfig      `yaml:"auth"`
}

type ServerConfig struct {
	Host               string   `yaml:"host"`
	Port               int      `yaml:"port"`
	LogLevel           string   `yaml:"log_level"`
	LogFormat          string   `yaml:"log_format"`
	StatusMapping      string   `yaml:"status_mapping"`
	CORSAllowedOrigins []string `yaml:"cors_allowed_origins"`
	MaxIngestBodyBytes int64    `yaml:"max_ingest_body_bytes"`
}

type StorageConfig struct {
	VectorBackend string `yaml:"vector_backend"` // memory, sqlite, postgres, redis
	LockBackend   string `yaml:"lock_backend"`   // none, redis, postgres
	DatabaseURL   string `yaml:"database_url"`
	SQLitePath    string `yaml:"sqlite_path"`
	RedisURL      string `yaml:"redis_url"`
}

type EmbeddingConfig struct {
	Provider   string `yaml:"provider"`
	Model      string `yaml:"model"`
	APIKey     string `yaml:"api_key"`
	BaseURL    string `yaml:"base_url"`
	Dimensions int    `yaml:"dimensions"`
	BatchSize  int    `yaml:"batch_size"`
}

type LLMConfig struct {
	Provider          string  `yaml:"provider"`
	Model             string  `yaml:"model"`
	APIKey            string  `yaml:"api_key"`
	BaseURL           string  `yaml:"base_url"`
	TimeoutSec        int     `yaml:"timeout_sec"`
	RequestsPerSecond float64 `yaml:"requests_per_second"` // shared by embedding and completion calls, 0 disables
}

type SplitterConfig struct {
	ChunkSize    int  `yaml:"chunk_size"`
	ChunkOverlap int  `yaml:"chunk_overlap"`
	Deduplicate  bool `yaml:"deduplicate"`
}

type SearchConfig struct {
	TopK                int     `yaml:"top_k"`
	SimilarityThreshold float64 `yaml:"similarity_threshold"`
	MaxContextChars     int     `yaml:"max_context_chars"`
}

type FetchConfig struct {
	TimeoutSec    int    `yaml:"timeout_sec"`
	MaxBytes      int64  `yaml:"max_bytes"`
	AllowFiles    bool   `yaml:"allow_files"`
	PDFToTextPath string `yaml:"pdftotext_path"`
}

type AuthConfig struct {
	JWTSecret string `yaml:"jwt_secret"` // empty leaves ingestion open
}

// Default returns the built-in configuration: an in-memory index with the
// offline embedding and answering providers.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Host:               "0.0.0.0",
			Port:               8080,
			LogLevel:           "info",
			LogFormat:          "text",
			StatusMapping:      "legacy",
			MaxIngestBodyBytes: 1 << 20,
		},
		Storage: StorageConfig{
			VectorBackend: "memory",
			LockBackend:   "none",
			SQLitePath:    "finance-assist.db",
		},
		Embedding: EmbeddingConfig{
			Provider:  string(domain.AIProviderLocal),
			BatchSize: 64,
		},
		LLM: LLMConfig{
			Provider:          string(domain.AIProviderExtractive),
			TimeoutSec:        120,
			RequestsPerSecond: 5,
		},
		Splitter: SplitterConfig{
			ChunkSize: 800,
		},
		Search: SearchConfig{
			TopK:            domain.DefaultTopK,
			MaxContextChars: 12000,
		},
		Fetch: FetchConfig{
			TimeoutSec:    30,
			MaxBytes:      50 << 20,
			AllowFiles:    false,
			PDFToTextPath: "pdftotext",
		},
	}
}

// Load reads .env (if present), the YAML file named by CONFIG_FILE (if set)
// and then the environment, and validates the result.
func Load() (*Config, error) {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Printf("Warning: could not read .env: %v", err)
	}

	cfg := Default()
	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}
	cfg.applyEnv()
	cfg.normalize()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// loadFile overlays the YAML file at path onto c. Keys absent from the
// file keep their current values.
func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv() {
	s := &c.Server
	s.Host = getEnv("HOST", s.Host)
	s.Port = getEnvInt("PORT", s.Port)
	s.LogLevel = getEnv("LOG_LEVEL", s.LogLevel)
	s.LogFormat = getEnv("LOG_FORMAT", s.LogFormat)
	s.StatusMapping = getEnv("HTTP_STATUS_MAPPING", s.StatusMapping)
	s.CORSAllowedOrigins = getEnvList("CORS_ALLOWED_ORIGINS", s.CORSAllowedOrigins)
	s.MaxIngestBodyBytes = getEnvInt64("MAX_INGEST_BODY_BYTES", s.MaxIngestBodyBytes)

	st := &c.Storage
	st.VectorBackend = getEnv("VECTOR_BACKEND", st.VectorBackend)
	st.LockBackend = getEnv("LOCK_BACKEND", st.LockBackend)
	st.DatabaseURL = getEnv("DATABASE_URL", st.DatabaseURL)
	st.SQLitePath = getEnv("SQLITE_PATH", st.SQLitePath)
	st.RedisURL = getEnv("REDIS_URL", st.RedisURL)

	e := &c.Embedding
	e.Provider = getEnv("EMBEDDING_PROVIDER", e.Provider)
	e.Model = getEnv("EMBEDDING_MODEL", e.Model)
	e.APIKey = getEnv("EMBEDDING_API_KEY", e.APIKey)
	e.BaseURL = getEnv("EMBEDDING_BASE_URL", e.BaseURL)
	e.Dimensions = getEnvInt("EMBEDDING_DIMENSIONS", e.Dimensions)
	e.BatchSize = getEnvInt("EMBEDDING_BATCH_SIZE", e.BatchSize)

	l := &c.LLM
	l.Provider = getEnv("LLM_PROVIDER", l.Provider)
	l.Model = getEnv("LLM_MODEL", l.Model)
	l.APIKey = getEnv("LLM_API_KEY", l.APIKey)
	l.BaseURL = getEnv("LLM_BASE_URL", l.BaseURL)
	l.TimeoutSec = getEnvInt("LLM_TIMEOUT_SEC", l.TimeoutSec)
	l.RequestsPerSecond = getEnvFloat("AI_REQUESTS_PER_SECOND", l.RequestsPerSecond)

	sp := &c.Splitter
	sp.ChunkSize = getEnvInt("SPLITTER_CHUNK_SIZE", sp.ChunkSize)
	sp.ChunkOverlap = getEnvInt("SPLITTER_CHUNK_OVERLAP", sp.ChunkOverlap)
	sp.Deduplicate = getEnvBool("SPLITTER_DEDUPLICATE", sp.Deduplicate)

	se := &c.Search
	se.TopK = getEnvInt("SEARCH_TOP_K", se.TopK)
	se.SimilarityThreshold = getEnvFloat("SEARCH_SIMILARITY_THRESHOLD", se.SimilarityThreshold)
	se.MaxContextChars = getEnvInt("ANSWER_MAX_CONTEXT_CHARS", se.MaxContextChars)

	f := &c.Fetch
	f.TimeoutSec = getEnvInt("FETCH_TIMEOUT_SEC", f.TimeoutSec)
	f.MaxBytes = getEnvInt64("FETCH_MAX_BYTES", f.MaxBytes)
	f.AllowFiles = getEnvBool("FETCH_ALLOW_FILES", f.AllowFiles)
	f.PDFToTextPath = getEnv("PDFTOTEXT_PATH", f.PDFToTextPath)

	c.Auth.JWTSecret = getEnv("AUTH_JWT_SECRET", c.Auth.JWTSecret)
}

// normalize lowercases the enumerated settings
func (c *Config) normalize() {
	c.Server.LogLevel = strings.ToLower(strings.TrimSpace(c.Server.LogLevel))
	c.Server.LogFormat = strings.ToLower(strings.TrimSpace(c.Server.LogFormat))
	c.Server.StatusMapping = strings.ToLower(strings.TrimSpace(c.Server.StatusMapping))
	c.Storage.VectorBackend = strings.ToLower(strings.TrimSpace(c.Storage.VectorBackend))
	c.Storage.LockBackend = strings.ToLower(strings.TrimSpace(c.Storage.LockBackend))
	c.Embedding.Provider = strings.ToLower(strings.TrimSpace(c.Embedding.Provider))
	c.LLM.Provider = strings.ToLower(strings.TrimSpace(c.LLM.Provider))
}

var (
	vectorBackends = []string{"memory", "sqlite", "postgres", "redis"}
	lockBackends   = []string{"none", "redis", "postgres"}
	logLevels      = []string{"debug", "info", "warn", "error"}
	logFormats     = []string{"text", "json"}
	statusMappings = []string{"legacy", "precise"}
)

// Validate reports every invalid setting at once.
func (c *Config) Validate() error {
	var errs []error
	check := func(ok bool, format string, args ...any) {
		if !ok {
			errs = append(errs, fmt.Errorf(format, args...))
		}
	}

	check(c.Server.Port > 0 && c.Server.Port <= 65535, "PORT must be between 1 and 65535, got %d", c.Server.Port)
	check(oneOf(c.Server.LogLevel, logLevels), "LOG_LEVEL must be one of %v, got %q", logLevels, c.Server.LogLevel)
	check(oneOf(c.Server.LogFormat, logFormats), "LOG_FORMAT must be one of %v, got %q", logFormats, c.Server.LogFormat)
	check(oneOf(c.Server.StatusMapping, statusMappings), "HTTP_STATUS_MAPPING must be one of %v, got %q", statusMappings, c.Server.StatusMapping)
	check(c.Server.MaxIngestBodyBytes > 0, "MAX_INGEST_BODY_BYTES must be positive")

	st := c.Storage
	check(oneOf(st.VectorBackend, vectorBackends), "VECTOR_BACKEND must be one of %v, got %q", vectorBackends, st.VectorBackend)
	check(oneOf(st.LockBackend, lockBackends), "LOCK_BACKEND must be one of %v, got %q", lockBackends, st.LockBackend)
	check(st.DatabaseURL != "" || (st.VectorBackend != "postgres" && st.LockBackend != "postgres"),
		"DATABASE_URL is required for the postgres backend")
	check(st.RedisURL != "" || (st.VectorBackend != "redis" && st.LockBackend != "redis"),
		"REDIS_URL is required for the redis backend")
	check(st.SQLitePath != "" || st.VectorBackend != "sqlite", "SQLITE_PATH is required for the sqlite backend")

	emb := c.EmbeddingSettings()
	switch emb.Provider {
	case domain.AIProviderOpenAI, domain.AIProviderOllama, domain.AIProviderLocal:
		check(emb.IsConfigured(), "EMBEDDING_API_KEY is required for the %s provider", emb.Provider)
	default:
		check(false, "EMBEDDING_PROVIDER must be openai, ollama or local, got %q", emb.Provider)
	}
	check(c.Embedding.Dimensions >= 0, "EMBEDDING_DIMENSIONS must not be negative")
	check(c.Embedding.BatchSize > 0, "EMBEDDING_BATCH_SIZE must be positive")

	llm := c.LLMSettings()
	switch llm.Provider {
	case domain.AIProviderOpenAI, domain.AIProviderOllama, domain.AIProviderExtractive:
		check(llm.IsConfigured(), "LLM_API_KEY is required for the %s provider", llm.Provider)
	default:
		check(false, "LLM_PROVIDER must be openai, ollama or extractive, got %q", llm.Provider)
	}
	check(c.LLM.TimeoutSec > 0, "LLM_TIMEOUT_SEC must be positive")
	check(c.LLM.RequestsPerSecond >= 0, "AI_REQUESTS_PER_SECOND must not be negative")

	sp := c.Splitter
	check(sp.ChunkSize > 0, "SPLITTER_CHUNK_SIZE must be positive")
	check(sp.ChunkOverlap >= 0 && sp.ChunkOverlap < sp.ChunkSize,
		"SPLITTER_CHUNK_OVERLAP must be at least 0 and below the chunk size")

	se := c.Search
	check(se.TopK > 0 && se.TopK <= domain.MaxTopK, "SEARCH_TOP_K must be between 1 and %d", domain.MaxTopK)
	check(se.SimilarityThreshold >= -1 && se.SimilarityThreshold <= 1, "SEARCH_SIMILARITY_THRESHOLD must be between -1 and 1")
	check(se.MaxContextChars > 0, "ANSWER_MAX_CONTEXT_CHARS must be positive")

	check(c.Fetch.TimeoutSec > 0, "FETCH_TIMEOUT_SEC must be positive")
	check(c.Fetch.MaxBytes > 0, "FETCH_MAX_BYTES must be positive")

	if len(errs) > 0 {
		return fmt.Errorf("invalid configuration: %w", errors.Join(errs...))
	}
	return nil
}

// EmbeddingSettings returns the embedding provider settings
func (c *Config) EmbeddingSettings() *domain.EmbeddingSettings {
	return &domain.EmbeddingSettings{
		Provider:   domain.AIProvider(strings.ToLower(c.Embedding.Provider)),
		Model:      c.Embedding.Model,
		APIKey:     c.Embedding.APIKey,
		BaseURL:    c.Embedding.BaseURL,
		Dimensions: c.Embedding.Dimensions,
	}
}

// LLMSettings returns the completion provider settings
func (c *Config) LLMSettings() *domain.LLMSettings {
	return &domain.LLMSettings{
		Provider: domain.AIProvider(strings.ToLower(c.LLM.Provider)),
		Model:    c.LLM.Model,
		APIKey:   c.LLM.APIKey,
		BaseURL:  c.LLM.BaseURL,
	}
}

// SearchOptions returns the retrieval options used for answering
func (c *Config) SearchOptions() domain.SearchOptions {
	return domain.SearchOptions{
		TopK:      c.Search.TopK,
		Threshold: c.Search.SimilarityThreshold,
	}
}

// LLMTimeout returns the per-completion deadline
func (c *Config) LLMTimeout() time.Duration {
	return time.Duration(c.LLM.TimeoutSec) * time.Second
}

// FetchTimeout returns the per-document download deadline
func (c *Config) FetchTimeout() time.Duration {
	return time.Duration(c.Fetch.TimeoutSec) * time.Second
}

// SlogLevel maps LOG_LEVEL to a slog level. Unknown values map to info.
func (c *Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.Server.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func oneOf(v string, allowed []string) bool {
	v = strings.ToLower(v)
	for _, a := range allowed {
		if v == a {
			return true
		}
	}
	return false
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(strings.TrimSpace(valueStr))
	if err != nil {
		log.Printf("Warning: Invalid integer for %s, using default: %d", key, defaultValue)
		return defaultValue
	}
	return value
}

func getEnvInt64(key string, defaultValue int64) int64 {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseInt(strings.TrimSpace(valueStr), 10, 64)
	if err != nil {
		log.Printf("Warning: Invalid integer for %s, using default: %d", key, defaultValue)
		return defaultValue
	}
	return value
}

func getEnvFloat(key string, defaultValue float64) float64 {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseFloat(strings.TrimSpace(valueStr), 64)
	if err != nil {
		log.Printf("Warning: Invalid number for %s, using default: %g", key, defaultValue)
		return defaultValue
	}
	return value
}

func getEnvBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseBool(strings.TrimSpace(valueStr))
	if err != nil {
		log.Printf("Warning: Invalid boolean for %s, using default: %t", key, defaultValue)
		return defaultValue
	}
	return value
}

// getEnvList splits a comma separated variable, dropping empty entries
func getEnvList(key string, defaultValue []string) []string {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(valueStr, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
