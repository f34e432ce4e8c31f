package cli

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/pdfchat/internal/connectors/filesystem"
	"github.com/custodia-labs/pdfchat/internal/core/domain"
	"github.com/custodia-labs/pdfchat/internal/logger"
)

var (
	watchDebounce  time.Duration
	watchNoProcess bool
)

var watchCmd = &cobra.Command{
	Use:   "watch [directory]",
	Short: "Keep the library in sync with a directory",
	Long: `Imports every supported file under the directory, then watches it.
New and modified files are imported and processed; deleted files are removed
from the library. Runs until interrupted.`,
	Args: cobra.ExactArgs(1),
	RunE: runWatch,
}

func init() {
	watchCmd.Flags().DurationVar(&watchDebounce, "debounce", filesystem.DefaultDebounce, "quiet period before a changed file is handled")
	watchCmd.Flags().BoolVar(&watchNoProcess, "no-process", false, "import files without processing them")
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	if libraryService == nil {
		return errNotConfigured("library service")
	}
	if processorService == nil && !watchNoProcess {
		return errNotConfigured("processor")
	}
	ctx := commandContext(cmd)
	dir := args[0]

	docs, err := libraryService.ImportDirectory(ctx, dir)
	if err != nil {
		cmd.PrintErrf("Some files could not be imported: %v\n", err)
	}
	cmd.Printf("Imported %d document(s) from %s\n", len(docs), dir)
	if !watchNoProcess {
		if err := processorService.ProcessPending(ctx); err != nil {
			cmd.PrintErrf("Initial processing: %v\n", batchError(err))
		}
	}

	changes, err := filesystem.NewWatcher(dir, watchDebounce).Watch(ctx)
	if err != nil {
		return fmt.Errorf("failed to watch %s: %w", dir, err)
	}
	cmd.Printf("Watching %s (Ctrl+C to stop)\n", dir)

	for change := range changes {
		if err := syncChange(ctx, cmd, change); err != nil {
			cmd.PrintErrf("%s %s: %v\n", change.Type, change.Path, err)
		}
	}
	return nil
}

// syncChange applies one filesystem change to the library.
func syncChange(ctx context.Context, cmd *cobra.Command, change filesystem.Change) error {
	log := logger.With("path", change.Path).With("change", string(change.Type))

	switch change.Type {
	case filesystem.ChangeDeleted:
		doc, err := libraryService.FindByPath(ctx, change.Path)
		if errors.Is(err, domain.ErrNotFound) {
			log.Debug("deleted file was not in the library")
			return nil
		}
		if err != nil {
			return err
		}
		if err := libraryService.Remove(ctx, doc.ID); err != nil {
			return err
		}
		cmd.Printf("Removed %s  %s\n", doc.ID, doc.Title)
		return nil

	case filesystem.ChangeCreated, filesystem.ChangeUpdated:
		doc, err := libraryService.Import(ctx, change.Path)
		if err != nil {
			return err
		}
		log.With("document", doc.ID).Debug("imported")
		if watchNoProcess {
			cmd.Printf("Imported %s  %s\n", doc.ID, doc.Title)
			return nil
		}
		return reprocess(ctx, cmd, doc)

	default:
		return fmt.Errorf("%w: unknown change %q", domain.ErrInvalidInput, change.Type)
	}
}

// reprocess processes doc, restarting a run that is already in flight so
// the latest file contents win.
func reprocess(ctx context.Context, cmd *cobra.Command, doc *domain.Document) error {
	err := processorService.Process(ctx, doc.ID)
	if errors.Is(err, domain.ErrProcessingInProgress) {
		processorService.Cancel(doc.ID)
		err = processorService.Process(ctx, doc.ID)
	}
	if err != nil {
		return err
	}

	updated, err := libraryService.Get(ctx, doc.ID)
	if err != nil {
		return err
	}
	cmd.Printf("Processed %s  %d chunks  %s\n", updated.ID, updated.TotalChunks, updated.Title)
	return nil
}
