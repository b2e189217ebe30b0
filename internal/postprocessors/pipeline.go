package postprocessors

import (
	"sort"
	"sync"

	"github.com/custodia-labs/finance-assist/internal/core/ports/driven"
)

// Verify interface compliance
var _ driven.PostProcessorPipeline = (*Pipeline)(nil)

// Pipeline implements PostProcessorPipeline.
// It chains multiple post-processors in order, starting with a TokenChunker.
type Pipeline struct {
	mu         sync.RWMutex
	processors []driven.PostProcessor
	sorted     bool
}

// NewPipeline creates a new post-processor pipeline.
func NewPipeline() *Pipeline {
	return &Pipeline{
		processors: make([]driven.PostProcessor, 0),
	}
}

// Add adds a processor to the pipeline.
// Processors are sorted by Order() before processing.
func (p *Pipeline) Add(processor driven.PostProcessor) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.processors = append(p.processors, processor)
	p.sorted = false
}

// Process applies all processors in order to the full document text.
func (p *Pipeline) Process(content string) []driven.Chunk {
	p.mu.Lock()
	if !p.sorted {
		sort.SliceStable(p.processors, func(i, j int) bool {
			return p.processors[i].Order() < p.processors[j].Order()
		})
		p.sorted = true
	}
	processors := make([]driven.PostProcessor, len(p.processors))
	copy(processors, p.processors)
	p.mu.Unlock()

	chunks := []driven.Chunk{
		{
			Content:     content,
			Position:    0,
			StartOffset: 0,
			EndOffset:   len(content),
		},
	}

	for _, proc := range processors {
		chunks = proc.Process(chunks)
	}

	return chunks
}

// List returns processor names in order.
func (p *Pipeline) List() []string {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.sorted {
		sort.SliceStable(p.processors, func(i, j int) bool {
			return p.processors[i].Order() < p.processors[j].Order()
		})
		p.sorted = true
	}

	names := make([]string, len(p.processors))
	for i, proc := range p.processors {
		names[i] = proc.Name()
	}
	return names
}

// Config selects the processors built by NewPipelineFromConfig.
type Config struct {
	Chunk       TokenChunkConfig
	Deduplicate bool
}

// DefaultConfig returns the splitter defaults.
func DefaultConfig() Config {
	return Config{Chunk: DefaultTokenChunkConfig()}
}

// DefaultPipeline creates a pipeline with the default processors:
// token chunking followed by whitespace normalisation.
func DefaultPipeline() *Pipeline {
	return NewPipelineFromConfig(DefaultConfig())
}

// NewPipelineFromConfig builds a pipeline from cfg.
func NewPipelineFromConfig(cfg Config) *Pipeline {
	p := NewPipeline()
	p.Add(NewTokenChunker(cfg.Chunk))
	p.Add(NewWhitespaceNormalizer())
	if cfg.Deduplicate {
		p.Add(NewDeduplicator(DefaultDeduplicatorConfig()))
	}
	return p
}
