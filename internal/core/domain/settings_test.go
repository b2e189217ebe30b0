package domain

import "testing"

func TestAIProvider_RequiresAPIKey(t *testing.T) {
	tests := []struct {
		provider AIProvider
		want     bool
	}{
		{AIProviderOpenAI, true},
		{AIProviderOllama, false},
		{AIProviderLocal, false},
		{AIProviderExtractive, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.provider), func(t *testing.T) {
			if got := tt.provider.RequiresAPIKey(); got != tt.want {
				t.Errorf("expected %v, got %v", tt.want, got)
			}
		})
	}
}

func TestAIProvider_IsValid(t *testing.T) {
	if !AIProviderLocal.IsValid() {
		t.Error("expected local to be valid")
	}
	if AIProvider("cohere").IsValid() {
		t.Error("expected cohere to be invalid")
	}
}

func TestEmbeddingSettings_IsConfigured(t *testing.T) {
	tests := []struct {
		name     string
		settings EmbeddingSettings
		want     bool
	}{
		{"empty", EmbeddingSettings{}, false},
		{"openai without key", EmbeddingSettings{Provider: AIProviderOpenAI}, false},
		{"openai with key", EmbeddingSettings{Provider: AIProviderOpenAI, APIKey: "sk"}, true},
		{"local", EmbeddingSettings{Provider: AIProviderLocal}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.settings.IsConfigured(); got != tt.want {
				t.Errorf("expected %v, got %v", tt.want, got)
			}
		})
	}
}

func TestLLMSettings_IsConfigured(t *testing.T) {
	if (&LLMSettings{}).IsConfigured() {
		t.Error("expected empty settings to be unconfigured")
	}
	if (&LLMSettings{Provider: AIProviderOpenAI}).IsConfigured() {
		t.Error("expected openai without key to be unconfigured")
	}
	if !(&LLMSettings{Provider: AIProviderOllama, BaseURL: "http://localhost:11434/v1"}).IsConfigured() {
		t.Error("expected ollama to be configured without key")
	}
}
