package main

// @title           Finance Assist API
// @version         1.0
// @description     Question answering over financial documents. Save report URLs, then ask questions answered from their text.

// @contact.name   Finance Assist
// @contact.url    https://github.com/custodia-labs/finance-assist/issues

// @license.name  Apache 2.0
// @license.url   http://www.apache.org/licenses/LICENSE-2.0.html

// @host      localhost:8080
// @BasePath  /
// @schemes   http https

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description JWT Bearer token. Format: "Bearer {token}"

import (
	"context"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"strconv"
	"time"

	_ "github.com/custodia-labs/finance-assist/docs"
	"github.com/custodia-labs/finance-assist/internal/adapters/driven/ai"
	"github.com/custodia-labs/finance-assist/internal/adapters/driven/auth"
	"github.com/custodia-labs/finance-assist/internal/adapters/driven/fetcher"
	"github.com/custodia-labs/finance-assist/internal/adapters/driven/memory"
	"github.com/custodia-labs/finance-assist/internal/adapters/driven/postgres"
	redisadapter "github.com/custodia-labs/finance-assist/internal/adapters/driven/redis"
	"github.com/custodia-labs/finance-assist/internal/adapters/driven/sqlite"
	"github.com/custodia-labs/finance-assist/internal/adapters/driving/http"
	"github.com/custodia-labs/finance-assist/internal/config"
	"github.com/custodia-labs/finance-assist/internal/core/domain"
	"github.com/custodia-labs/finance-assist/internal/core/ports/driven"
	"github.com/custodia-labs/finance-assist/internal/core/ports/driving"
	"github.com/custodia-labs/finance-assist/internal/core/services"
	"github.com/custodia-labs/finance-assist/internal/normalisers"
	"github.com/custodia-labs/finance-assist/internal/postprocessors"
	"github.com/custodia-labs/finance-assist/internal/runtime"
	"github.com/redis/go-redis/v9"
)

var version = "dev"

func main() {
	// Run mode from the first argument: serve (default) or token
	mode := "serve"
	if len(os.Args) > 1 {
		mode = os.Args[1]
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	setupLogging(cfg)

	switch mode {
	case "serve":
		if err := serve(cfg); err != nil {
			log.Fatalf("Server error: %v", err)
		}
	case "token":
		if err := printToken(cfg, os.Args[2:], os.Stdout); err != nil {
			log.Fatalf("Failed to issue token: %v", err)
		}
	default:
		log.Fatalf("Unknown mode: %s (use: serve, or token <subject> [ttl-hours])", mode)
	}
}

// setupLogging installs the default slog logger
func setupLogging(cfg *config.Config) {
	opts := &slog.HandlerOptions{Level: cfg.SlogLevel()}
	var handler slog.Handler
	if cfg.Server.LogFormat == "json" {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		handler = slog.NewTextHandler(os.Stderr, opts)
	}
	slog.SetDefault(slog.New(handler))
}

// printToken signs an ingest token. args are the subject and an optional
// lifetime in hours.
func printToken(cfg *config.Config, args []string, out io.Writer) error {
	if cfg.Auth.JWTSecret == "" {
		return fmt.Errorf("AUTH_JWT_SECRET is not set")
	}
	if len(args) == 0 {
		return fmt.Errorf("usage: finance-assist token <subject> [ttl-hours]")
	}

	ttl := services.DefaultTokenTTL
	if len(args) > 1 {
		hours, err := strconv.Atoi(args[1])
		if err != nil || hours <= 0 {
			return fmt.Errorf("ttl-hours must be a positive integer, got %q", args[1])
		}
		ttl = time.Duration(hours) * time.Hour
	}

	authService := services.NewAuthService(auth.NewAdapter(cfg.Auth.JWTSecret))
	token, err := authService.IssueToken(context.Background(), args[0], ttl)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(out, token)
	return err
}

func serve(cfg *config.Config) error {
	log.Printf("finance-assist %s starting", version)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	logger := slog.Default()

	// ===== Shared connections =====
	var db *postgres.DB
	if cfg.Storage.VectorBackend == "postgres" || cfg.Storage.LockBackend == "postgres" {
		log.Println("Connecting to PostgreSQL...")
		var err error
		db, err = postgres.Connect(ctx, postgres.DefaultConfig(cfg.Storage.DatabaseURL))
		if err != nil {
			return fmt.Errorf("connect to database: %w", err)
		}
		defer db.Close()

		// Initialize schema (idempotent)
		if err := db.InitSchema(ctx); err != nil {
			return fmt.Errorf("initialize schema: %w", err)
		}
		log.Println("PostgreSQL connected and schema initialized")
	}

	var redisClient *redis.Client
	if cfg.Storage.VectorBackend == "redis" || cfg.Storage.LockBackend == "redis" {
		log.Println("Connecting to Redis...")
		var err error
		redisClient, err = redisadapter.Connect(ctx, cfg.Storage.RedisURL)
		if err != nil {
			return fmt.Errorf("connect to redis: %w", err)
		}
		defer redisClient.Close()
		log.Println("Redis connected")
	}

	// ===== Vector index =====
	var index driven.VectorIndex
	switch cfg.Storage.VectorBackend {
	case "memory":
		index = memory.NewVectorIndex()
	case "sqlite":
		gdb, err := sqlite.Open(cfg.Storage.SQLitePath)
		if err != nil {
			return fmt.Errorf("open sqlite index: %w", err)
		}
		sqliteIndex := sqlite.NewVectorIndex(gdb)
		defer sqliteIndex.Close()
		index = sqliteIndex
	case "postgres":
		index = postgres.NewVectorIndex(db)
	case "redis":
		index = redisadapter.NewVectorIndex(redisClient)
	}
	log.Printf("Using %s vector index", cfg.Storage.VectorBackend)

	// ===== Distributed lock (optional) =====
	var lock driven.DistributedLock
	var lockPinger http.Pinger
	switch cfg.Storage.LockBackend {
	case "redis":
		l := redisadapter.NewLock(redisClient)
		lock, lockPinger = l, l
		log.Println("Using Redis ingest lock")
	case "postgres":
		l := postgres.NewAdvisoryLock(db)
		lock, lockPinger = l, l
		log.Println("Using PostgreSQL advisory lock")
	}

	// ===== AI services =====
	limiter := ai.NewRateLimiter(cfg.LLM.RequestsPerSecond, ai.DefaultBurst)
	aiFactory := ai.NewFactory(limiter, cfg.LLMTimeout())

	runtimeConfig := domain.NewRuntimeConfig(cfg.Storage.VectorBackend, cfg.Storage.LockBackend)
	runtimeServices := runtime.NewServices(runtimeConfig)
	defer runtimeServices.Close()

	embedder, err := aiFactory.CreateEmbeddingService(cfg.EmbeddingSettings())
	if err != nil {
		return fmt.Errorf("create embedding service: %w", err)
	}
	llm, err := aiFactory.CreateLLMService(cfg.LLMSettings())
	if err != nil {
		if embedder != nil {
			_ = embedder.Close()
		}
		return fmt.Errorf("create llm service: %w", err)
	}
	if err := runtimeServices.Install(ctx, embedder, llm); err != nil {
		log.Printf("Warning: AI service validation failed: %v (affected endpoints report service unavailable)", err)
	}

	embeddingModel, llmModel := runtimeServices.Models()
	log.Printf("Runtime config: vector_backend=%s, lock_backend=%s, embedding=%s, llm=%s",
		runtimeConfig.VectorBackend, runtimeConfig.LockBackend, embeddingModel, llmModel)

	if err := normalisers.CheckAvailable(cfg.Fetch.PDFToTextPath); err != nil {
		log.Printf("Warning: %v (PDF documents cannot be ingested)", err)
	}

	// ===== Services (core business logic) =====
	store := services.NewVectorStore(services.VectorStoreConfig{
		Index:     index,
		Services:  runtimeServices,
		Lock:      lock,
		BatchSize: cfg.Embedding.BatchSize,
		Logger:    logger,
	})

	reader := services.NewDocumentReader(
		fetcher.New(fetcher.Config{
			Timeout:    cfg.FetchTimeout(),
			MaxBytes:   cfg.Fetch.MaxBytes,
			AllowFiles: cfg.Fetch.AllowFiles,
		}),
		normalisers.DefaultRegistry(normalisers.ExecRunner{}, cfg.Fetch.PDFToTextPath),
		logger,
	)

	chunkConfig := postprocessors.DefaultTokenChunkConfig()
	chunkConfig.ChunkSize = cfg.Splitter.ChunkSize
	chunkConfig.Overlap = cfg.Splitter.ChunkOverlap
	splitter := services.NewSplitter(postprocessors.NewPipelineFromConfig(postprocessors.Config{
		Chunk:       chunkConfig,
		Deduplicate: cfg.Splitter.Deduplicate,
	}))

	answers := services.NewAnswerEngine(services.AnswerEngineConfig{
		Store:           store,
		Services:        runtimeServices,
		SearchOptions:   cfg.SearchOptions(),
		MaxContextChars: cfg.Search.MaxContextChars,
		Logger:          logger,
	})

	assistService := services.NewAssistService(services.AssistServiceConfig{
		Reader:   reader,
		Splitter: splitter,
		Store:    store,
		Answers:  answers,
		Logger:   logger,
	})

	var authService driving.AuthService
	if cfg.Auth.JWTSecret != "" {
		authService = services.NewAuthService(auth.NewAdapter(cfg.Auth.JWTSecret))
		log.Println("Ingest token required for /finance/assist/save")
	}

	// ===== HTTP server =====
	mapping, err := http.ParseStatusMapping(cfg.Server.StatusMapping)
	if err != nil {
		return err
	}

	server := http.NewServer(http.Config{
		Host:               cfg.Server.Host,
		Port:               cfg.Server.Port,
		Version:            version,
		StatusMapping:      mapping,
		MaxIngestBodyBytes: cfg.Server.MaxIngestBodyBytes,
		CORSAllowedOrigins: cfg.Server.CORSAllowedOrigins,
		Logger:             logger,
	}, assistService, authService, store, runtimeServices, lockPinger)

	// Startup deadline no longer applies once serving
	cancel()
	return server.Start()
}
