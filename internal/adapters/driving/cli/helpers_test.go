package cli

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/pdfchat/internal/adapters/driven/notify"
	"github.com/custodia-labs/pdfchat/internal/adapters/driven/policy"
	"github.com/custodia-labs/pdfchat/internal/adapters/driven/provider"
	"github.com/custodia-labs/pdfchat/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/pdfchat/internal/connectors/filesystem"
	"github.com/custodia-labs/pdfchat/internal/core/domain"
	"github.com/custodia-labs/pdfchat/internal/core/services"
)

// vocabulary gives the test embedder a tiny, predictable vector space.
var vocabulary = []string{"revenue", "board", "risk", "weather"}

// keywordEmbedder embeds text as keyword counts over vocabulary.
type keywordEmbedder struct{}

func (keywordEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	lower := strings.ToLower(text)
	v := make([]float32, len(vocabulary))
	for i, w := range vocabulary {
		v[i] = float32(strings.Count(lower, w))
	}
	return v, nil
}

func (e keywordEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, t := range texts {
		out[i], _ = e.Embed(ctx, t)
	}
	return out, nil
}

func (keywordEmbedder) Dimensions() int              { return len(vocabulary) }
func (keywordEmbedder) ModelName() string            { return "keywords" }
func (keywordEmbedder) Ping(_ context.Context) error { return nil }
func (keywordEmbedder) Close() error                 { return nil }

// testEnv holds the services installed for one test.
type testEnv struct {
	docs     *memory.DocumentStore
	sessions *memory.SessionStore
	config   *memory.ConfigStore
	library  *services.LibraryService
	settings *services.SettingsService
	dir      string
}

// setupTestServices installs services over in-memory stores with the real
// text pipeline and returns a cleanup function.
func setupTestServices(t *testing.T) (*testEnv, func()) {
	t.Helper()

	docs := memory.NewDocumentStore()
	sessions := memory.NewSessionStore()
	config := memory.NewConfigStore()
	notifier := notify.New()
	embedder := keywordEmbedder{}

	prov, err := provider.NewDefault(embedder, domain.ChunkingSettings{ChunkSize: 200, Overlap: 0})
	require.NoError(t, err)

	loader := filesystem.NewLoader()
	processor := services.NewProcessorService(docs, docs, loader, prov, notifier, 2)
	search := services.NewSearchService(docs, docs, embedder)
	assembler := services.NewAssemblerService(docs, docs, sessions, search,
		policy.WordCounter{}, policy.XXHash{}, services.AssemblerConfig{TopK: 4, TokenBudget: 500})
	library := services.NewLibraryService(docs, sessions, loader, processor)
	settings := services.NewSettingsService(config, nil)

	SetServices(Services{
		Library:   library,
		Processor: processor,
		Search:    search,
		Assembler: assembler,
		Sessions:  services.NewSessionService(sessions, docs),
		Settings:  settings,
	})

	env := &testEnv{
		docs:     docs,
		sessions: sessions,
		config:   config,
		library:  library,
		settings: settings,
		dir:      t.TempDir(),
	}
	return env, func() {
		SetServices(Services{})
		notifier.Close() //nolint:errcheck
	}
}

// writeFile creates a file under the env directory and returns its path.
func (e *testEnv) writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(e.dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

// importFile writes and imports a text file, returning the document.
func (e *testEnv) importFile(t *testing.T, name, content string) *domain.Document {
	t.Helper()
	doc, err := e.library.Import(context.Background(), e.writeFile(t, name, content))
	require.NoError(t, err)
	return doc
}

// processed imports and processes a text file.
func (e *testEnv) processed(t *testing.T, name, content string) *domain.Document {
	t.Helper()
	doc := e.importFile(t, name, content)
	require.NoError(t, processorService.Process(context.Background(), doc.ID))
	got, err := e.library.Get(context.Background(), doc.ID)
	require.NoError(t, err)
	require.Equal(t, domain.StatusCompleted, got.Status)
	return got
}

// execute runs the root command with args and returns stdout and stderr.
func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	return executeWithInput(t, "", args...)
}

// executeWithInput is execute with stdin reading from input.
func executeWithInput(t *testing.T, input string, args ...string) (string, string, error) {
	t.Helper()
	resetFlags(rootCmd)

	out := new(bytes.Buffer)
	errOut := new(bytes.Buffer)
	rootCmd.SetOut(out)
	rootCmd.SetErr(errOut)
	rootCmd.SetIn(strings.NewReader(input))
	rootCmd.SetArgs(args)
	defer func() {
		rootCmd.SetArgs(nil)
		rootCmd.SetIn(nil)
	}()

	err := rootCmd.Execute()
	return out.String(), errOut.String(), err
}

// resetFlags restores every flag to its default so package-level flag
// variables do not leak between tests.
func resetFlags(c *cobra.Command) {
	reset := func(f *pflag.Flag) {
		if sv, ok := f.Value.(pflag.SliceValue); ok {
			_ = sv.Replace(nil)
		} else {
			_ = f.Value.Set(f.DefValue)
		}
		f.Changed = false
	}
	c.Flags().VisitAll(reset)
	c.PersistentFlags().VisitAll(reset)
	for _, sub := range c.Commands() {
		resetFlags(sub)
	}
}
