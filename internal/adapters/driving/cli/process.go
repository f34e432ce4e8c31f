package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/custodia-labs/pdfchat/internal/adapters/driving/tui"
	"github.com/custodia-labs/pdfchat/internal/core/domain"
)

var processPlain bool

var processCmd = &cobra.Command{
	Use:   "process [document-id...]",
	Short: "Chunk and embed documents",
	Long: `Runs documents through text extraction, chunking and embedding so they
become searchable. Without arguments every pending or failed document is
processed. Completed documents named explicitly are reprocessed.

On a terminal a live progress view is shown; use --plain for line output.`,
	RunE: runProcess,
}

var retryCmd = &cobra.Command{
	Use:   "retry [document-id...]",
	Short: "Retry failed documents",
	Long:  `Reprocesses failed documents. Without arguments every failed document is retried.`,
	RunE:  runRetry,
}

func init() {
	for _, c := range []*cobra.Command{importCmd, processCmd, retryCmd} {
		c.Flags().BoolVar(&processPlain, "plain", false, "print line output instead of the progress view")
	}
	rootCmd.AddCommand(processCmd)
	rootCmd.AddCommand(retryCmd)
}

func runProcess(cmd *cobra.Command, args []string) error {
	if len(args) > 0 {
		return processDocuments(cmd, args)
	}
	ids, err := documentIDsWithStatus(cmd, domain.StatusPending, domain.StatusFailed)
	if err != nil {
		return err
	}
	return processDocuments(cmd, ids)
}

func runRetry(cmd *cobra.Command, args []string) error {
	if len(args) > 0 {
		if err := requireFailed(cmd, args); err != nil {
			return err
		}
		return processDocuments(cmd, args)
	}
	ids, err := documentIDsWithStatus(cmd, domain.StatusFailed)
	if err != nil {
		return err
	}
	return processDocuments(cmd, ids)
}

func requireFailed(cmd *cobra.Command, ids []string) error {
	if libraryService == nil {
		return errNotConfigured("library service")
	}
	for _, id := range ids {
		doc, err := libraryService.Get(commandContext(cmd), id)
		if err != nil {
			return fmt.Errorf("failed to get %s: %w", id, err)
		}
		if doc.Status != domain.StatusFailed {
			return fmt.Errorf("%s is %s, only failed documents can be retried", id, doc.Status)
		}
	}
	return nil
}

func documentIDsWithStatus(cmd *cobra.Command, statuses ...domain.ProcessingStatus) ([]string, error) {
	if libraryService == nil {
		return nil, errNotConfigured("library service")
	}
	docs, err := libraryService.List(commandContext(cmd))
	if err != nil {
		return nil, fmt.Errorf("failed to list documents: %w", err)
	}

	want := make(map[domain.ProcessingStatus]bool, len(statuses))
	for _, s := range statuses {
		want[s] = true
	}
	var ids []string
	for i := range docs {
		if want[docs[i].Status] {
			ids = append(ids, docs[i].ID)
		}
	}
	return ids, nil
}

// processDocuments runs ids through the processor with the progress view on
// a terminal, or line output otherwise.
func processDocuments(cmd *cobra.Command, ids []string) error {
	if processorService == nil {
		return errNotConfigured("processor")
	}
	if libraryService == nil {
		return errNotConfigured("library service")
	}
	if len(ids) == 0 {
		cmd.Println("Nothing to process.")
		return nil
	}

	if useProgressView() {
		return processInteractive(cmd, ids)
	}
	return processPlainOutput(cmd, ids)
}

func useProgressView() bool {
	return !processPlain && term.IsTerminal(int(os.Stdout.Fd()))
}

func processInteractive(cmd *cobra.Command, ids []string) error {
	ports := &tui.Ports{Library: libraryService, Processor: processorService}
	app, err := tui.Run(commandContext(cmd), ports, ids)
	if err != nil {
		return err
	}
	summary := app.Summary()
	cmd.Printf("%d ready, %d failed, %d not finished\n",
		summary.Completed, summary.Failed, summary.Pending+summary.Processing)
	return batchError(app.Err())
}

func processPlainOutput(cmd *cobra.Command, ids []string) error {
	ctx := commandContext(cmd)

	subCtx, stop := context.WithCancel(ctx)
	var wg sync.WaitGroup
	if changes, err := processorService.Subscribe(subCtx); err == nil {
		tracked := make(map[string]bool, len(ids))
		for _, id := range ids {
			tracked[id] = true
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			for change := range changes {
				if tracked[change.DocumentID] {
					cmd.PrintErrf("%s: %s -> %s\n", change.DocumentID, change.From, change.To)
				}
			}
		}()
	}

	runErr := processorService.ProcessAll(ctx, ids)
	stop()
	wg.Wait()

	var summary domain.ProcessingSummary
	for _, id := range ids {
		doc, err := libraryService.Get(context.WithoutCancel(ctx), id)
		if err != nil {
			cmd.Printf("%s  %s\n", id, err)
			continue
		}
		summary.Add(doc.Status)
		switch doc.Status {
		case domain.StatusCompleted:
			cmd.Printf("%s  ready   %4d chunks  %s\n", doc.ID, doc.TotalChunks, doc.Title)
		case domain.StatusFailed:
			cmd.Printf("%s  failed  %s: %s\n", doc.ID, doc.Title, firstLine(doc.LastError))
		default:
			cmd.Printf("%s  %s  %s\n", doc.ID, doc.Status, doc.Title)
		}
	}
	cmd.Printf("%d ready, %d failed, %d not finished\n",
		summary.Completed, summary.Failed, summary.Pending+summary.Processing)

	return batchError(runErr)
}

// batchError summarises a joined processing error without repeating every
// document's message, which the output already shows.
func batchError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) {
		return errors.New("processing cancelled")
	}
	if joined, ok := err.(interface{ Unwrap() []error }); ok {
		return fmt.Errorf("%d document(s) failed to process", len(joined.Unwrap()))
	}
	return err
}
