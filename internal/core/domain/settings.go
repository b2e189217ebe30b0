package domain

// AIProvider identifies the AI/embedding provider
type AIProvider string

const (
	AIProviderOpenAI     AIProvider = "openai"
	AIProviderOllama     AIProvider = "ollama"
	AIProviderLocal      AIProvider = "local"      // Feature hashing embeddings, no network
	AIProviderExtractive AIProvider = "extractive" // Answers from retrieved text, no network
)

// EmbeddingSettings configures the embedding service
type EmbeddingSettings struct {
	Provider   AIProvider `json:"provider" yaml:"provider"`
	Model      string     `json:"model" yaml:"model"`
	APIKey     string     `json:"-" yaml:"api_key"` // Never serialize to JSON
	BaseURL    string     `json:"base_url,omitempty" yaml:"base_url"`
	Dimensions int        `json:"dimensions,omitempty" yaml:"dimensions"`
}

// IsConfigured returns true if embedding settings are properly configured
func (e *EmbeddingSettings) IsConfigured() bool {
	if e.Provider == "" {
		return false
	}
	if e.Provider.RequiresAPIKey() && e.APIKey == "" {
		return false
	}
	return true
}

// LLMSettings configures the LLM service
type LLMSettings struct {
	Provider AIProvider `json:"provider" yaml:"provider"`
	Model    string     `json:"model" yaml:"model"`
	APIKey   string     `json:"-" yaml:"api_key"` // Never serialize to JSON
	BaseURL  string     `json:"base_url,omitempty" yaml:"base_url"`
}

// IsConfigured returns true if LLM settings are properly configured
func (l *LLMSettings) IsConfigured() bool {
	if l.Provider == "" {
		return false
	}
	if l.Provider.RequiresAPIKey() && l.APIKey == "" {
		return false
	}
	return true
}

// RequiresAPIKey returns true if this provider requires an API key
func (p AIProvider) RequiresAPIKey() bool {
	switch p {
	case AIProviderOpenAI:
		return true
	default:
		return false
	}
}

// IsValid returns true if the provider is known
func (p AIProvider) IsValid() bool {
	switch p {
	case AIProviderOpenAI, AIProviderOllama, AIProviderLocal, AIProviderExtractive:
		return true
	default:
		return false
	}
}
