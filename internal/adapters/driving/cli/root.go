// Package cli provides the pdfchat command line, a driving adapter over the
// core services.
package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/pdfchat/internal/core/ports/driving"
	"github.com/custodia-labs/pdfchat/internal/logger"
)

// version is set at build time via -ldflags.
var version = "dev"

var verbose bool

// Services injected by main. Commands check for nil and report the service
// as not configured.
var (
	libraryService   driving.LibraryService
	processorService driving.DocumentProcessor
	searchService    driving.SimilaritySearch
	assemblerService driving.ContextAssembler
	sessionService   driving.SessionBinder
	settingsService  driving.SettingsService
	metricsHandler   http.Handler
)

// Services bundles the driving ports the commands run against.
type Services struct {
	Library   driving.LibraryService
	Processor driving.DocumentProcessor
	Search    driving.SimilaritySearch
	Assembler driving.ContextAssembler
	Sessions  driving.SessionBinder
	Settings  driving.SettingsService

	// Metrics is served by "serve --metrics-addr" when set.
	Metrics http.Handler
}

// SetServices installs the services used by every command.
func SetServices(s Services) {
	libraryService = s.Library
	processorService = s.Processor
	searchService = s.Search
	assemblerService = s.Assembler
	sessionService = s.Sessions
	settingsService = s.Settings
	metricsHandler = s.Metrics
}

// SetVersion overrides the reported version.
func SetVersion(v string) {
	if v != "" {
		version = v
	}
}

var rootCmd = &cobra.Command{
	Use:   "pdfchat",
	Short: "Chat with your PDF library",
	Long: `pdfchat imports PDFs and text files into a local library, splits them
into page-aware chunks with embeddings, and assembles the context for each
chat message from what you attach explicitly and what similarity search
retrieves.`,
	SilenceUsage: true,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		logger.SetVerbose(verbose)
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
}

// Execute runs the root command with ctx.
func Execute(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

// errNotConfigured reports a service main did not install.
func errNotConfigured(name string) error {
	return fmt.Errorf("%s not configured", name)
}

// printJSON writes v as indented JSON to the command output.
func printJSON(cmd *cobra.Command, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal output: %w", err)
	}
	cmd.Println(string(data))
	return nil
}

// commandContext returns the command's context, falling back to Background
// when the command runs outside Execute.
func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
