package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/custodia-labs/pdfchat/internal/adapters/driving/mcp"
	"github.com/custodia-labs/pdfchat/internal/logger"
)

var (
	servePort        int
	serveMetricsAddr string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the MCP server",
	Long: `Start the Model Context Protocol server so an assistant can search the
library and build chat context.

By default the server communicates over stdio using JSON-RPC. Use --port to
serve streamable HTTP instead; /metrics is then served on the same port.
Use --metrics-addr to expose Prometheus metrics on a separate listener.

Examples:
  # Stdio mode (for desktop assistants)
  pdfchat serve

  # HTTP mode with metrics
  pdfchat serve --port 8080

  # Stdio mode with metrics
  pdfchat serve --metrics-addr 127.0.0.1:9464`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().IntVarP(&servePort, "port", "p", 0, "HTTP port (0 = use stdio)")
	serveCmd.Flags().StringVar(&serveMetricsAddr, "metrics-addr", "", "address for a Prometheus /metrics listener")
	rootCmd.AddCommand(serveCmd)
}

func newMCPServer() (*mcp.Server, error) {
	return mcp.NewServer(&mcp.Ports{
		Search:    searchService,
		Assembler: assemblerService,
		Sessions:  sessionService,
		Library:   libraryService,
	})
}

func runServe(cmd *cobra.Command, _ []string) error {
	server, err := newMCPServer()
	if err != nil {
		return err
	}
	if serveMetricsAddr != "" && metricsHandler == nil {
		return errNotConfigured("metrics")
	}

	g, ctx := errgroup.WithContext(commandContext(cmd))

	if serveMetricsAddr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", metricsHandler)
		g.Go(func() error {
			return listen(ctx, serveMetricsAddr, mux)
		})
	}

	if servePort > 0 {
		mux := http.NewServeMux()
		if metricsHandler != nil {
			mux.Handle("/metrics", metricsHandler)
		}
		mux.Handle("/", server.Handler())
		addr := fmt.Sprintf(":%d", servePort)
		cmd.PrintErrf("MCP server listening on http://localhost%s\n", addr)
		g.Go(func() error {
			return listen(ctx, addr, mux)
		})
	} else {
		g.Go(func() error {
			return server.Run(ctx)
		})
	}

	return g.Wait()
}

// listen serves handler on addr until ctx is cancelled.
func listen(ctx context.Context, addr string, handler http.Handler) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx) //nolint:errcheck
	}()

	logger.Debug("listening on %s", addr)
	err := srv.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}
