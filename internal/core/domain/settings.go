package domain

import "time"

const unknownDescription = "Unknown"

// AIProvider identifies an embedding service provider.
type AIProvider string

// Available AI providers.
const (
	// AIProviderOllama is local Ollama instance.
	AIProviderOllama AIProvider = "ollama"

	// AIProviderOpenAI is OpenAI cloud API (or a compatible endpoint).
	AIProviderOpenAI AIProvider = "openai"
)

// IsValid returns true if the AI provider is recognised.
func (p AIProvider) IsValid() bool {
	switch p {
	case AIProviderOllama, AIProviderOpenAI:
		return true
	default:
		return false
	}
}

// RequiresAPIKey returns true if this provider needs an API key.
func (p AIProvider) RequiresAPIKey() bool {
	return p == AIProviderOpenAI
}

// IsLocal returns true if this provider runs locally.
func (p AIProvider) IsLocal() bool {
	return p == AIProviderOllama
}

// String returns the string representation.
func (p AIProvider) String() string {
	return string(p)
}

// Description returns a human-readable description of the provider.
func (p AIProvider) Description() string {
	switch p {
	case AIProviderOllama:
		return "Ollama (local)"
	case AIProviderOpenAI:
		return "OpenAI (cloud)"
	default:
		return unknownDescription
	}
}

// ContextMode controls whether pinned session items join every build.
type ContextMode string

// Context modes.
const (
	// ContextModeSession retains pinned items across the whole session.
	ContextModeSession ContextMode = "session"

	// ContextModeMessage uses only the contexts attached to the message.
	ContextModeMessage ContextMode = "message"
)

// IsValid returns true if the mode is recognised.
func (m ContextMode) IsValid() bool {
	return m == ContextModeSession || m == ContextModeMessage
}

// EmbeddingSettings holds embedding provider configuration.
type EmbeddingSettings struct {
	// Provider is the embedding service provider.
	Provider AIProvider `validate:"required"`

	// Model is the embedding model name.
	Model string

	// BaseURL is the API endpoint.
	BaseURL string

	// APIKey is the API key (for OpenAI).
	APIKey string

	// RequestsPerSecond caps calls to the provider.
	RequestsPerSecond float64 `validate:"gte=0"`
}

// IsConfigured returns true if the embedding provider is set up.
func (e EmbeddingSettings) IsConfigured() bool {
	if !e.Provider.IsValid() {
		return false
	}
	if e.Provider.RequiresAPIKey() && e.APIKey == "" {
		return false
	}
	return true
}

// ChunkingSettings configures the chunker.
type ChunkingSettings struct {
	// ChunkSize is the number of characters per chunk.
	ChunkSize int `validate:"gt=0"`

	// Overlap is the number of characters shared by adjacent chunks.
	Overlap int `validate:"gte=0,ltfield=ChunkSize"`
}

// RetrievalSettings configures similarity search during assembly.
type RetrievalSettings struct {
	// TopK is the number of chunks requested from search.
	TopK int `validate:"gt=0,lte=100"`

	// Timeout bounds query embedding plus search.
	Timeout time.Duration `validate:"gt=0"`
}

// ContextSettings configures context assembly.
type ContextSettings struct {
	// TokenBudget is the maximum total tokens of a bundle.
	// Explicit contexts may still exceed it.
	TokenBudget int `validate:"gt=0"`

	// Mode selects whether pinned session items are included.
	Mode ContextMode `validate:"required,oneof=session message"`
}

// IngestSettings configures bulk processing.
type IngestSettings struct {
	// Workers is the number of documents processed concurrently.
	Workers int `validate:"gt=0,lte=64"`
}

// AppSettings holds all application settings.
type AppSettings struct {
	Embedding EmbeddingSettings
	Chunking  ChunkingSettings
	Retrieval RetrievalSettings
	Context   ContextSettings
	Ingest    IngestSettings
}

// DefaultAppSettings returns settings with sensible defaults.
func DefaultAppSettings() AppSettings {
	return AppSettings{
		Embedding: EmbeddingSettings{
			Provider:          AIProviderOllama,
			Model:             DefaultEmbeddingModels()[AIProviderOllama],
			RequestsPerSecond: 5,
		},
		Chunking: ChunkingSettings{
			ChunkSize: 1000,
			Overlap:   200,
		},
		Retrieval: RetrievalSettings{
			TopK:    8,
			Timeout: 5 * time.Second,
		},
		Context: ContextSettings{
			TokenBudget: 3000,
			Mode:        ContextModeSession,
		},
		Ingest: IngestSettings{
			Workers: 4,
		},
	}
}

// AllEmbeddingProviders returns providers that support embeddings.
func AllEmbeddingProviders() []AIProvider {
	return []AIProvider{
		AIProviderOllama,
		AIProviderOpenAI,
	}
}

// DefaultEmbeddingModels returns default models for each embedding provider.
func DefaultEmbeddingModels() map[AIProvider]string {
	return map[AIProvider]string{
		AIProviderOllama: "nomic-embed-text",
		AIProviderOpenAI: "text-embedding-3-small",
	}
}

// EmbeddingDimensions returns the vector dimensions for known models.
func EmbeddingDimensions() map[string]int {
	return map[string]int{
		// Ollama models
		"nomic-embed-text":  768,
		"mxbai-embed-large": 1024,
		"all-minilm":        384,
		// OpenAI models
		"text-embedding-3-small": 1536,
		"text-embedding-3-large": 3072,
		"text-embedding-ada-002": 1536,
	}
}

// PipelineConfig holds post-processor pipeline configuration.
// Uses generic map-based config for extensibility - new processors can be added
// without modifying this struct.
type PipelineConfig struct {
	// Processors is the ordered list of processor names to run.
	Processors []string

	// ProcessorConfigs holds per-processor configuration as generic maps.
	// Key is processor name, value is processor-specific config.
	ProcessorConfigs map[string]map[string]any
}

// GetProcessorConfig returns config for a specific processor, or nil if not set.
func (c *PipelineConfig) GetProcessorConfig(name string) map[string]any {
	if c.ProcessorConfigs == nil {
		return nil
	}
	return c.ProcessorConfigs[name]
}

// PipelineConfigFor builds the ingestion pipeline from chunking settings.
// The embedder always runs last so every chunk carries a vector.
func PipelineConfigFor(chunking ChunkingSettings) PipelineConfig {
	return PipelineConfig{
		Processors: []string{"chunker", "embedder"},
		ProcessorConfigs: map[string]map[string]any{
			"chunker": {
				"chunk_size": chunking.ChunkSize,
				"overlap":    chunking.Overlap,
			},
		},
	}
}
