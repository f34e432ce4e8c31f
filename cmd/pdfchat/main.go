// Command pdfchat is the PDF library and chat context CLI.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/custodia-labs/pdfchat/internal/adapters/driven/ai"
	"github.com/custodia-labs/pdfchat/internal/adapters/driven/config/file"
	"github.com/custodia-labs/pdfchat/internal/adapters/driven/notify"
	"github.com/custodia-labs/pdfchat/internal/adapters/driven/policy"
	"github.com/custodia-labs/pdfchat/internal/adapters/driven/provider"
	"github.com/custodia-labs/pdfchat/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/pdfchat/internal/adapters/driving/cli"
	"github.com/custodia-labs/pdfchat/internal/connectors/filesystem"
	"github.com/custodia-labs/pdfchat/internal/core/ports/driven"
	"github.com/custodia-labs/pdfchat/internal/core/services"
	"github.com/custodia-labs/pdfchat/internal/logger"
	"github.com/custodia-labs/pdfchat/internal/metrics"
)

// version is set at build time via -ldflags "-X main.version=...".
var version = "dev"

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func run() error {
	// A missing .env is normal.
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dir, err := file.DefaultDir()
	if err != nil {
		return err
	}
	configStore, err := file.NewConfigStore(dir)
	if err != nil {
		return fmt.Errorf("open config: %w", err)
	}
	settingsService := services.NewSettingsService(configStore, ai.NewConfigValidator())
	settings, err := settingsService.Get()
	if err != nil {
		return fmt.Errorf("load settings: %w", err)
	}

	store, err := sqlite.NewStore(filepath.Join(dir, "data"))
	if err != nil {
		return fmt.Errorf("open library: %w", err)
	}
	defer store.Close()

	notifier := notify.New()
	defer notifier.Close()

	m := metrics.NewMetrics()
	docs, chunks, sessions := store.DocumentStore(), store.ChunkStore(), store.SessionStore()
	loader := filesystem.NewLoader()

	// Without a usable embedding provider the library and explicit context
	// still work; search degrades and processing reports not configured.
	var embedder driven.EmbeddingService
	if svc, err := ai.CreateEmbeddingService(&settings.Embedding); err != nil {
		logger.Warn("embedding provider unavailable: %v", err)
	} else {
		embedder = svc
		defer svc.Close()
	}

	search := services.NewSearchService(docs, chunks, embedder)
	search.SetMetrics(m)

	assembler := services.NewAssemblerService(docs, chunks, sessions, search,
		policy.NewTokenCounter(""), policy.XXHash{}, services.AssemblerConfigFrom(*settings))
	assembler.SetMetrics(m)

	svcs := cli.Services{
		Search:    search,
		Assembler: assembler,
		Sessions:  services.NewSessionService(sessions, docs),
		Settings:  settingsService,
		Metrics:   m.Handler(),
	}

	if embedder != nil {
		prov, err := provider.NewDefault(embedder, settings.Chunking)
		if err != nil {
			return err
		}
		processor := services.NewProcessorService(docs, chunks, loader, prov, notifier, settings.Ingest.Workers)
		processor.SetMetrics(m)
		svcs.Processor = processor
		svcs.Library = services.NewLibraryService(docs, sessions, loader, processor)
	} else {
		svcs.Library = services.NewLibraryService(docs, sessions, loader, nil)
	}

	cli.SetVersion(version)
	cli.SetServices(svcs)
	return cli.Execute(ctx)
}
