package services

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/pdfchat/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/pdfchat/internal/core/domain"
)

// mockAIValidator implements driven.AIConfigValidator for testing.
type mockAIValidator struct {
	err  error
	seen *domain.EmbeddingSettings
}

func (m *mockAIValidator) ValidateEmbedding(settings *domain.EmbeddingSettings) error {
	m.seen = settings
	return m.err
}

func newSettingsService(env map[string]string) (*SettingsService, *memory.ConfigStore) {
	store := memory.NewConfigStore()
	service := NewSettingsService(store, nil)
	service.getenv = func(key string) string { return env[key] }
	return service, store
}

func TestSettingsService_Get_ReturnsDefaults(t *testing.T) {
	service, _ := newSettingsService(nil)

	settings, err := service.Get()

	require.NoError(t, err)
	assert.Equal(t, domain.DefaultAppSettings(), *settings)
}

func TestSettingsService_Get_ReturnsStoredValues(t *testing.T) {
	service, store := newSettingsService(nil)
	_ = store.Set("embedding.provider", "openai")
	_ = store.Set("embedding.api_key", "sk-file")
	_ = store.Set("embedding.requests_per_second", 1.5)
	_ = store.Set("chunking.chunk_size", 500)
	_ = store.Set("chunking.overlap", 50)
	_ = store.Set("retrieval.top_k", 4)
	_ = store.Set("retrieval.timeout_ms", 1500)
	_ = store.Set("context.token_budget", 1200)
	_ = store.Set("context.mode", "message")
	_ = store.Set("ingest.workers", 8)

	settings, err := service.Get()

	require.NoError(t, err)
	assert.Equal(t, domain.AIProviderOpenAI, settings.Embedding.Provider)
	assert.Equal(t, "text-embedding-3-small", settings.Embedding.Model, "model defaults per provider")
	assert.Equal(t, "sk-file", settings.Embedding.APIKey)
	assert.InDelta(t, 1.5, settings.Embedding.RequestsPerSecond, 1e-9)
	assert.Equal(t, 500, settings.Chunking.ChunkSize)
	assert.Equal(t, 50, settings.Chunking.Overlap)
	assert.Equal(t, 4, settings.Retrieval.TopK)
	assert.Equal(t, 1500*time.Millisecond, settings.Retrieval.Timeout)
	assert.Equal(t, 1200, settings.Context.TokenBudget)
	assert.Equal(t, domain.ContextModeMessage, settings.Context.Mode)
	assert.Equal(t, 8, settings.Ingest.Workers)
}

func TestSettingsService_Get_InvalidValuesReturnDefaults(t *testing.T) {
	service, store := newSettingsService(nil)
	_ = store.Set("embedding.provider", "invalid_provider")
	_ = store.Set("context.mode", "sometimes")

	settings, err := service.Get()

	require.NoError(t, err)
	defaults := domain.DefaultAppSettings()
	assert.Equal(t, defaults.Embedding.Provider, settings.Embedding.Provider)
	assert.Equal(t, defaults.Context.Mode, settings.Context.Mode)
}

func TestSettingsService_Get_APIKeyFromEnvironment(t *testing.T) {
	service, store := newSettingsService(map[string]string{EnvOpenAIAPIKey: "sk-env"})

	settings, err := service.Get()
	require.NoError(t, err)
	assert.Empty(t, settings.Embedding.APIKey, "ollama does not use the key")

	_ = store.Set("embedding.provider", "openai")
	settings, err = service.Get()
	require.NoError(t, err)
	assert.Equal(t, "sk-env", settings.Embedding.APIKey)

	_ = store.Set("embedding.api_key", "sk-file")
	settings, err = service.Get()
	require.NoError(t, err)
	assert.Equal(t, "sk-file", settings.Embedding.APIKey, "configured key wins")
}

func TestSettingsService_Save(t *testing.T) {
	service, store := newSettingsService(nil)
	settings := domain.DefaultAppSettings()
	settings.Retrieval.TopK = 12
	settings.Retrieval.Timeout = 2 * time.Second
	settings.Context.Mode = domain.ContextModeMessage

	require.NoError(t, service.Save(&settings))

	assert.Equal(t, 12, store.GetInt("retrieval.top_k"))
	assert.Equal(t, 2000, store.GetInt("retrieval.timeout_ms"))
	assert.Equal(t, "message", store.GetString("context.mode"))
	_, hasKey := store.Get("embedding.api_key")
	assert.False(t, hasKey)

	reloaded, err := service.Get()
	require.NoError(t, err)
	assert.Equal(t, settings, *reloaded)
}

func TestSettingsService_Save_DoesNotPersistEnvironmentKey(t *testing.T) {
	service, store := newSettingsService(map[string]string{EnvOpenAIAPIKey: "sk-env"})
	_ = store.Set("embedding.provider", "openai")
	settings, err := service.Get()
	require.NoError(t, err)

	require.NoError(t, service.Save(settings))

	_, hasKey := store.Get("embedding.api_key")
	assert.False(t, hasKey)
}

func TestSettingsService_Save_Invalid(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*domain.AppSettings)
	}{
		{"zero chunk size", func(s *domain.AppSettings) { s.Chunking.ChunkSize = 0 }},
		{"overlap not below chunk size", func(s *domain.AppSettings) { s.Chunking.Overlap = s.Chunking.ChunkSize }},
		{"top k too large", func(s *domain.AppSettings) { s.Retrieval.TopK = 1000 }},
		{"zero timeout", func(s *domain.AppSettings) { s.Retrieval.Timeout = 0 }},
		{"zero budget", func(s *domain.AppSettings) { s.Context.TokenBudget = 0 }},
		{"bad mode", func(s *domain.AppSettings) { s.Context.Mode = "sometimes" }},
		{"zero workers", func(s *domain.AppSettings) { s.Ingest.Workers = 0 }},
		{"negative rate", func(s *domain.AppSettings) { s.Embedding.RequestsPerSecond = -1 }},
		{"unknown provider", func(s *domain.AppSettings) { s.Embedding.Provider = "acme" }},
		{"openai without key", func(s *domain.AppSettings) { s.Embedding.Provider = domain.AIProviderOpenAI }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			service, store := newSettingsService(nil)
			settings := domain.DefaultAppSettings()
			tt.mutate(&settings)

			err := service.Save(&settings)

			require.ErrorIs(t, err, domain.ErrInvalidInput)
			_, written := store.Get("chunking.chunk_size")
			assert.False(t, written, "nothing is written on failure")
		})
	}
}

func TestSettingsService_GetValue(t *testing.T) {
	service, store := newSettingsService(nil)
	_ = store.Set("retrieval.top_k", 3)

	tests := []struct {
		key  string
		want string
	}{
		{"embedding.provider", "ollama"},
		{"embedding.model", "nomic-embed-text"},
		{"embedding.requests_per_second", "5"},
		{"chunking.chunk_size", "1000"},
		{"retrieval.top_k", "3"},
		{"retrieval.timeout_ms", "5000"},
		{"context.mode", "session"},
		{"ingest.workers", "4"},
	}
	for _, tt := range tests {
		got, err := service.GetValue(tt.key)
		require.NoError(t, err, tt.key)
		assert.Equal(t, tt.want, got, tt.key)
	}

	_, err := service.GetValue("search.mode")
	require.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestSettingsService_SetValue(t *testing.T) {
	service, store := newSettingsService(nil)

	require.NoError(t, service.SetValue("retrieval.top_k", " 10 "))
	require.NoError(t, service.SetValue("embedding.requests_per_second", "0.5"))
	require.NoError(t, service.SetValue("context.mode", "message"))

	assert.Equal(t, 10, store.GetInt("retrieval.top_k"))
	assert.InDelta(t, 0.5, store.GetFloat("embedding.requests_per_second"), 1e-9)
	assert.Equal(t, "message", store.GetString("context.mode"))
}

func TestSettingsService_SetValue_Invalid(t *testing.T) {
	tests := []struct {
		key, value string
	}{
		{"retrieval.top_k", "many"},
		{"retrieval.top_k", "0"},
		{"embedding.requests_per_second", "fast"},
		{"chunking.overlap", "5000"},
		{"context.mode", "always"},
		{"embedding.provider", "openai"},
		{"no.such.key", "1"},
	}
	for _, tt := range tests {
		t.Run(tt.key+"="+tt.value, func(t *testing.T) {
			service, store := newSettingsService(nil)

			err := service.SetValue(tt.key, tt.value)

			require.ErrorIs(t, err, domain.ErrInvalidInput)
			_, written := store.Get(tt.key)
			assert.False(t, written)
		})
	}
}

func TestSettingsService_Keys(t *testing.T) {
	service, _ := newSettingsService(nil)

	keys := service.Keys()

	assert.Len(t, keys, 12)
	assert.IsIncreasing(t, keys)
	assert.Contains(t, keys, "context.token_budget")
}

func TestSettingsService_Validate(t *testing.T) {
	service, store := newSettingsService(nil)
	require.NoError(t, service.Validate())

	_ = store.Set("embedding.provider", "openai")
	require.ErrorIs(t, service.Validate(), domain.ErrInvalidInput)
}

func TestSettingsService_GetDefaults(t *testing.T) {
	service, _ := newSettingsService(nil)

	assert.Equal(t, domain.DefaultAppSettings(), service.GetDefaults())
}

func TestSettingsService_ValidateEmbeddingConfig(t *testing.T) {
	service, _ := newSettingsService(nil)
	require.NoError(t, service.ValidateEmbeddingConfig(), "no validator configured")

	validator := &mockAIValidator{err: errors.New("connection refused")}
	service.aiValidator = validator

	err := service.ValidateEmbeddingConfig()

	require.Error(t, err)
	require.NotNil(t, validator.seen)
	assert.Equal(t, domain.AIProviderOllama, validator.seen.Provider)
}
