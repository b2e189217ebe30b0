package postprocessors

import (
	"strings"
	"testing"

	"github.com/custodia-labs/finance-assist/internal/core/ports/driven"
)

func TestNewPipeline(t *testing.T) {
	p := NewPipeline()
	if p == nil {
		t.Fatal("expected non-nil pipeline")
	}
	if len(p.processors) != 0 {
		t.Errorf("expected empty processors, got %d", len(p.processors))
	}
}

func TestPipeline_ListIsOrdered(t *testing.T) {
	p := NewPipeline()

	// Add in wrong order - should be sorted by Order()
	p.Add(NewDeduplicator(DefaultDeduplicatorConfig())) // Order 10
	p.Add(NewTokenChunker(DefaultTokenChunkConfig()))   // Order 0
	p.Add(NewWhitespaceNormalizer())                    // Order 5

	names := p.List()
	if len(names) != 3 {
		t.Fatalf("expected 3 processors, got %d", len(names))
	}
	want := []string{"token-chunker", "whitespace-normalizer", "deduplicator"}
	for i, name := range want {
		if names[i] != name {
			t.Errorf("position %d: expected %s, got %s", i, name, names[i])
		}
	}
}

func TestPipeline_Process_EmptyContent(t *testing.T) {
	p := DefaultPipeline()

	if chunks := p.Process(""); len(chunks) != 0 {
		t.Errorf("expected no chunks, got %d", len(chunks))
	}
	if chunks := p.Process(" \n\t "); len(chunks) != 0 {
		t.Errorf("expected no chunks for whitespace, got %d", len(chunks))
	}
}

func TestPipeline_Process_SmallContent(t *testing.T) {
	p := DefaultPipeline()

	content := "Hello, world!"
	chunks := p.Process(content)

	if len(chunks) != 1 {
		t.Fatalf("expected 1 chunk, got %d", len(chunks))
	}
	if chunks[0].Content != content {
		t.Errorf("expected %q, got %q", content, chunks[0].Content)
	}
	if chunks[0].Position != 0 {
		t.Errorf("expected position 0, got %d", chunks[0].Position)
	}
	if chunks[0].StartOffset != 0 {
		t.Errorf("expected start offset 0, got %d", chunks[0].StartOffset)
	}
	if chunks[0].EndOffset != len(content) {
		t.Errorf("expected end offset %d, got %d", len(content), chunks[0].EndOffset)
	}
}

func TestPipeline_Process_LargeContentReconstructs(t *testing.T) {
	p := NewPipelineFromConfig(Config{Chunk: TokenChunkConfig{ChunkSize: 10}})

	content := strings.Repeat("alpha ", 25)
	chunks := p.Process(content)

	if len(chunks) != 3 {
		t.Fatalf("expected 3 chunks, got %d", len(chunks))
	}
	parts := make([]string, len(chunks))
	for i, chunk := range chunks {
		if n := CountTokens(chunk.Content); n > 10 {
			t.Errorf("chunk %d has %d tokens", i, n)
		}
		if chunk.Position != i {
			t.Errorf("expected position %d, got %d", i, chunk.Position)
		}
		parts[i] = chunk.Content
	}
	if got := strings.Join(parts, " "); got != strings.TrimSpace(content) {
		t.Errorf("chunks do not reconstruct content: %q", got)
	}
}

func TestPipeline_IntegrationFullPipeline(t *testing.T) {
	p := NewPipelineFromConfig(Config{
		Chunk:       TokenChunkConfig{ChunkSize: 20, MinChunkSizeChars: 20, MinChunkLengthToEmbed: 5},
		Deduplicate: true,
	})

	content := `Net revenue for the quarter rose eight percent on higher fee income and steady lending volumes.

  Operating   expenses    were flat   year over year.

Net revenue for the quarter rose eight percent on higher fee income and steady lending volumes.`

	chunks := p.Process(content)

	if len(chunks) < 2 {
		t.Fatalf("expected multiple chunks, got %d", len(chunks))
	}
	seen := make(map[string]bool)
	for i, chunk := range chunks {
		if chunk.Content == "" {
			t.Errorf("chunk %d has empty content", i)
		}
		if strings.Contains(chunk.Content, "  ") {
			t.Errorf("chunk %d contains repeated spaces: %q", i, chunk.Content)
		}
		if seen[chunk.Content] {
			t.Errorf("chunk %d is a duplicate: %q", i, chunk.Content)
		}
		seen[chunk.Content] = true
		if chunk.Position != i {
			t.Errorf("expected position %d, got %d", i, chunk.Position)
		}
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Chunk.ChunkSize != 800 {
		t.Errorf("expected ChunkSize 800, got %d", cfg.Chunk.ChunkSize)
	}
	if cfg.Chunk.Overlap != 0 {
		t.Errorf("expected Overlap 0, got %d", cfg.Chunk.Overlap)
	}
	if cfg.Chunk.MinChunkSizeChars != 350 {
		t.Errorf("expected MinChunkSizeChars 350, got %d", cfg.Chunk.MinChunkSizeChars)
	}
	if cfg.Chunk.MinChunkLengthToEmbed != 5 {
		t.Errorf("expected MinChunkLengthToEmbed 5, got %d", cfg.Chunk.MinChunkLengthToEmbed)
	}
	if cfg.Chunk.MaxNumChunks != 10000 {
		t.Errorf("expected MaxNumChunks 10000, got %d", cfg.Chunk.MaxNumChunks)
	}
	if cfg.Deduplicate {
		t.Error("expected deduplication off by default")
	}
	if names := DefaultPipeline().List(); len(names) != 2 {
		t.Errorf("expected 2 default processors, got %v", names)
	}
}

// Verify interface compliance
func TestInterfaceCompliance(t *testing.T) {
	var _ driven.PostProcessorPipeline = (*Pipeline)(nil)
	var _ driven.PostProcessor = (*TokenChunker)(nil)
	var _ driven.PostProcessor = (*Deduplicator)(nil)
	var _ driven.PostProcessor = (*WhitespaceNormalizer)(nil)
}
