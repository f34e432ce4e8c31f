package services

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/custodia-labs/pdfchat/internal/core/domain"
	"github.com/custodia-labs/pdfchat/internal/core/ports/driven"
	"github.com/custodia-labs/pdfchat/internal/core/ports/driving"
)

// Ensure SettingsService implements the interface.
var _ driving.SettingsService = (*SettingsService)(nil)

// Config keys for settings storage.
//
//nolint:gosec // G101: These are config key names, not actual credentials.
const (
	keyEmbedProvider = "embedding.provider"
	keyEmbedModel    = "embedding.model"
	keyEmbedBaseURL  = "embedding.base_url"
	keyEmbedAPIKey   = "embedding.api_key"
	keyEmbedRPS      = "embedding.requests_per_second"
	keyChunkSize     = "chunking.chunk_size"
	keyChunkOverlap  = "chunking.overlap"
	keyTopK          = "retrieval.top_k"
	keyTimeoutMS     = "retrieval.timeout_ms"
	keyTokenBudget   = "context.token_budget"
	keyContextMode   = "context.mode"
	keyWorkers       = "ingest.workers"
)

// EnvOpenAIAPIKey is consulted when no API key is configured.
//
//nolint:gosec // G101: environment variable name, not a credential.
const EnvOpenAIAPIKey = "OPENAI_API_KEY"

type valueKind int

const (
	kindString valueKind = iota
	kindInt
	kindFloat
)

// settingKinds lists every supported key with the type it is stored as.
var settingKinds = map[string]valueKind{
	keyEmbedProvider: kindString,
	keyEmbedModel:    kindString,
	keyEmbedBaseURL:  kindString,
	keyEmbedAPIKey:   kindString,
	keyEmbedRPS:      kindFloat,
	keyChunkSize:     kindInt,
	keyChunkOverlap:  kindInt,
	keyTopK:          kindInt,
	keyTimeoutMS:     kindInt,
	keyTokenBudget:   kindInt,
	keyContextMode:   kindString,
	keyWorkers:       kindInt,
}

// SettingsService manages application settings.
type SettingsService struct {
	configStore driven.ConfigStore
	aiValidator driven.AIConfigValidator
	validate    *validator.Validate
	getenv      func(string) string
}

// NewSettingsService creates a new settings service.
// The aiValidator parameter is optional (can be nil).
func NewSettingsService(configStore driven.ConfigStore, aiValidator driven.AIConfigValidator) *SettingsService {
	return &SettingsService{
		configStore: configStore,
		aiValidator: aiValidator,
		validate:    validator.New(validator.WithRequiredStructEnabled()),
		getenv:      os.Getenv,
	}
}

// Get retrieves current application settings. Missing or unparseable
// values fall back to defaults.
func (s *SettingsService) Get() (*domain.AppSettings, error) {
	defaults := domain.DefaultAppSettings()

	provider := s.getProvider(defaults.Embedding.Provider)
	model := s.configStore.GetString(keyEmbedModel)
	if model == "" {
		model = domain.DefaultEmbeddingModels()[provider]
	}
	apiKey := s.configStore.GetString(keyEmbedAPIKey)
	if apiKey == "" && provider.RequiresAPIKey() {
		apiKey = s.getenv(EnvOpenAIAPIKey)
	}

	return &domain.AppSettings{
		Embedding: domain.EmbeddingSettings{
			Provider:          provider,
			Model:             model,
			BaseURL:           s.configStore.GetString(keyEmbedBaseURL),
			APIKey:            apiKey,
			RequestsPerSecond: s.getFloat(keyEmbedRPS, defaults.Embedding.RequestsPerSecond),
		},
		Chunking: domain.ChunkingSettings{
			ChunkSize: s.getInt(keyChunkSize, defaults.Chunking.ChunkSize),
			Overlap:   s.getInt(keyChunkOverlap, defaults.Chunking.Overlap),
		},
		Retrieval: domain.RetrievalSettings{
			TopK:    s.getInt(keyTopK, defaults.Retrieval.TopK),
			Timeout: time.Duration(s.getInt(keyTimeoutMS, int(defaults.Retrieval.Timeout/time.Millisecond))) * time.Millisecond,
		},
		Context: domain.ContextSettings{
			TokenBudget: s.getInt(keyTokenBudget, defaults.Context.TokenBudget),
			Mode:        s.getMode(defaults.Context.Mode),
		},
		Ingest: domain.IngestSettings{
			Workers: s.getInt(keyWorkers, defaults.Ingest.Workers),
		},
	}, nil
}

// Save validates and persists application settings.
func (s *SettingsService) Save(settings *domain.AppSettings) error {
	if err := s.check(settings); err != nil {
		return err
	}

	values := map[string]any{
		keyEmbedProvider: settings.Embedding.Provider.String(),
		keyEmbedModel:    settings.Embedding.Model,
		keyEmbedBaseURL:  settings.Embedding.BaseURL,
		keyEmbedRPS:      settings.Embedding.RequestsPerSecond,
		keyChunkSize:     settings.Chunking.ChunkSize,
		keyChunkOverlap:  settings.Chunking.Overlap,
		keyTopK:          settings.Retrieval.TopK,
		keyTimeoutMS:     int(settings.Retrieval.Timeout / time.Millisecond),
		keyTokenBudget:   settings.Context.TokenBudget,
		keyContextMode:   string(settings.Context.Mode),
		keyWorkers:       settings.Ingest.Workers,
	}
	// An API key from the environment is never copied into the file.
	if settings.Embedding.APIKey != "" && settings.Embedding.APIKey != s.getenv(EnvOpenAIAPIKey) {
		values[keyEmbedAPIKey] = settings.Embedding.APIKey
	}

	for _, key := range sortedKeys(values) {
		if err := s.configStore.Set(key, values[key]); err != nil {
			return fmt.Errorf("save %s: %w", key, err)
		}
	}
	return nil
}

// GetValue returns the effective value of a config key, defaults included.
func (s *SettingsService) GetValue(key string) (string, error) {
	if _, ok := settingKinds[key]; !ok {
		return "", fmt.Errorf("%w: unknown config key %q", domain.ErrInvalidInput, key)
	}
	settings, err := s.Get()
	if err != nil {
		return "", err
	}

	switch key {
	case keyEmbedProvider:
		return settings.Embedding.Provider.String(), nil
	case keyEmbedModel:
		return settings.Embedding.Model, nil
	case keyEmbedBaseURL:
		return settings.Embedding.BaseURL, nil
	case keyEmbedAPIKey:
		return settings.Embedding.APIKey, nil
	case keyEmbedRPS:
		return strconv.FormatFloat(settings.Embedding.RequestsPerSecond, 'f', -1, 64), nil
	case keyChunkSize:
		return strconv.Itoa(settings.Chunking.ChunkSize), nil
	case keyChunkOverlap:
		return strconv.Itoa(settings.Chunking.Overlap), nil
	case keyTopK:
		return strconv.Itoa(settings.Retrieval.TopK), nil
	case keyTimeoutMS:
		return strconv.FormatInt(settings.Retrieval.Timeout.Milliseconds(), 10), nil
	case keyTokenBudget:
		return strconv.Itoa(settings.Context.TokenBudget), nil
	case keyContextMode:
		return string(settings.Context.Mode), nil
	default:
		return strconv.Itoa(settings.Ingest.Workers), nil
	}
}

// SetValue parses value for key, validates the resulting settings and
// persists the key.
func (s *SettingsService) SetValue(key, value string) error {
	kind, ok := settingKinds[key]
	if !ok {
		return fmt.Errorf("%w: unknown config key %q", domain.ErrInvalidInput, key)
	}
	value = strings.TrimSpace(value)

	var parsed any
	switch kind {
	case kindInt:
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("%w: %s must be an integer", domain.ErrInvalidInput, key)
		}
		parsed = n
	case kindFloat:
		f, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return fmt.Errorf("%w: %s must be a number", domain.ErrInvalidInput, key)
		}
		parsed = f
	default:
		parsed = value
	}

	settings, err := s.Get()
	if err != nil {
		return err
	}
	apply(settings, key, parsed)
	if err := s.check(settings); err != nil {
		return err
	}
	return s.configStore.Set(key, parsed)
}

// apply writes a parsed value into the matching settings field.
func apply(settings *domain.AppSettings, key string, v any) {
	switch key {
	case keyEmbedProvider:
		settings.Embedding.Provider = domain.AIProvider(v.(string))
	case keyEmbedModel:
		settings.Embedding.Model = v.(string)
	case keyEmbedBaseURL:
		settings.Embedding.BaseURL = v.(string)
	case keyEmbedAPIKey:
		settings.Embedding.APIKey = v.(string)
	case keyEmbedRPS:
		settings.Embedding.RequestsPerSecond = v.(float64)
	case keyChunkSize:
		settings.Chunking.ChunkSize = v.(int)
	case keyChunkOverlap:
		settings.Chunking.Overlap = v.(int)
	case keyTopK:
		settings.Retrieval.TopK = v.(int)
	case keyTimeoutMS:
		settings.Retrieval.Timeout = time.Duration(v.(int)) * time.Millisecond
	case keyTokenBudget:
		settings.Context.TokenBudget = v.(int)
	case keyContextMode:
		settings.Context.Mode = domain.ContextMode(v.(string))
	case keyWorkers:
		settings.Ingest.Workers = v.(int)
	}
}

// Keys lists the supported config keys in sorted order.
func (s *SettingsService) Keys() []string {
	return sortedKeys(settingKinds)
}

// Validate checks the current settings.
func (s *SettingsService) Validate() error {
	settings, err := s.Get()
	if err != nil {
		return err
	}
	return s.check(settings)
}

// check runs struct validation plus the cross-field rules.
func (s *SettingsService) check(settings *domain.AppSettings) error {
	if err := s.validate.Struct(settings); err != nil {
		return fmt.Errorf("%w: %s", domain.ErrInvalidInput, describeValidation(err))
	}
	if !settings.Embedding.Provider.IsValid() {
		return fmt.Errorf("%w: unknown embedding provider %q", domain.ErrInvalidInput, settings.Embedding.Provider)
	}
	if settings.Embedding.Provider.RequiresAPIKey() && settings.Embedding.APIKey == "" {
		return fmt.Errorf("%w: %s requires an API key (set %s or %s)",
			domain.ErrInvalidInput, settings.Embedding.Provider, keyEmbedAPIKey, EnvOpenAIAPIKey)
	}
	return nil
}

// describeValidation turns validator errors into "field rule" phrases.
func describeValidation(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}
	parts := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		rule := fe.Tag()
		if fe.Param() != "" {
			rule += "=" + fe.Param()
		}
		parts = append(parts, fmt.Sprintf("%s fails %s", strings.TrimPrefix(fe.Namespace(), "AppSettings."), rule))
	}
	return strings.Join(parts, "; ")
}

// GetDefaults returns default settings.
func (s *SettingsService) GetDefaults() domain.AppSettings {
	return domain.DefaultAppSettings()
}

// ValidateEmbeddingConfig validates the current embedding configuration by pinging the provider.
func (s *SettingsService) ValidateEmbeddingConfig() error {
	if s.aiValidator == nil {
		return nil
	}
	settings, err := s.Get()
	if err != nil {
		return err
	}
	return s.aiValidator.ValidateEmbedding(&settings.Embedding)
}

// Helper methods for reading config with defaults.

func (s *SettingsService) getInt(key string, defaultVal int) int {
	if _, exists := s.configStore.Get(key); !exists {
		return defaultVal
	}
	return s.configStore.GetInt(key)
}

func (s *SettingsService) getFloat(key string, defaultVal float64) float64 {
	if _, exists := s.configStore.Get(key); !exists {
		return defaultVal
	}
	return s.configStore.GetFloat(key)
}

func (s *SettingsService) getProvider(defaultVal domain.AIProvider) domain.AIProvider {
	provider := domain.AIProvider(s.configStore.GetString(keyEmbedProvider))
	if !provider.IsValid() {
		return defaultVal
	}
	return provider
}

func (s *SettingsService) getMode(defaultVal domain.ContextMode) domain.ContextMode {
	mode := domain.ContextMode(s.configStore.GetString(keyContextMode))
	if !mode.IsValid() {
		return defaultVal
	}
	return mode
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
