package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/pdfchat/internal/core/domain"
)

var (
	importProcess bool
	listJSON      bool
	listStatus    string
	statusJSON    bool
)

var importCmd = &cobra.Command{
	Use:   "import [path...]",
	Short: "Add files or directories to the library",
	Long: `Adds PDF, DOCX, HTML, text and markdown files to the library as
pending documents. Directories are scanned recursively for supported files.
Importing a file that is already in the library returns the existing document.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runImport,
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List library documents",
	RunE:  runList,
}

var removeCmd = &cobra.Command{
	Use:   "remove [document-id...]",
	Short: "Remove documents from the library",
	Long: `Removes documents together with their chunks. In-flight processing is
cancelled and session items referring to the documents are detached.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runRemove,
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the processing summary",
	RunE:  runStatus,
}

func init() {
	importCmd.Flags().BoolVarP(&importProcess, "process", "p", false, "process imported documents immediately")
	listCmd.Flags().BoolVar(&listJSON, "json", false, "output documents as JSON")
	listCmd.Flags().StringVar(&listStatus, "status", "", "only show documents with this status")
	statusCmd.Flags().BoolVar(&statusJSON, "json", false, "output summary as JSON")
	rootCmd.AddCommand(importCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(removeCmd)
	rootCmd.AddCommand(statusCmd)
}

func runImport(cmd *cobra.Command, args []string) error {
	if libraryService == nil {
		return errNotConfigured("library service")
	}
	ctx := commandContext(cmd)

	var imported []domain.Document
	for _, path := range args {
		info, err := os.Stat(path)
		if err != nil {
			return fmt.Errorf("failed to import %s: %w", path, err)
		}
		if info.IsDir() {
			docs, err := libraryService.ImportDirectory(ctx, path)
			imported = append(imported, docs...)
			if err != nil {
				cmd.PrintErrf("Some files in %s could not be imported: %v\n", path, err)
			}
			continue
		}
		doc, err := libraryService.Import(ctx, path)
		if err != nil {
			return fmt.Errorf("failed to import %s: %w", path, err)
		}
		imported = append(imported, *doc)
	}

	for i := range imported {
		cmd.Printf("%s  %-10s  %s\n", imported[i].ID, imported[i].Status, imported[i].Title)
	}
	cmd.Printf("Imported %d document(s).\n", len(imported))

	if !importProcess || len(imported) == 0 {
		return nil
	}
	ids := make([]string, 0, len(imported))
	for i := range imported {
		if imported[i].Status != domain.StatusCompleted {
			ids = append(ids, imported[i].ID)
		}
	}
	return processDocuments(cmd, ids)
}

func runList(cmd *cobra.Command, _ []string) error {
	if libraryService == nil {
		return errNotConfigured("library service")
	}

	var filter domain.ProcessingStatus
	if listStatus != "" {
		status, err := domain.ParseProcessingStatus(listStatus)
		if err != nil {
			return err
		}
		filter = status
	}

	docs, err := libraryService.List(commandContext(cmd))
	if err != nil {
		return fmt.Errorf("failed to list documents: %w", err)
	}
	if filter != "" {
		kept := docs[:0]
		for i := range docs {
			if docs[i].Status == filter {
				kept = append(kept, docs[i])
			}
		}
		docs = kept
	}

	if listJSON {
		return printJSON(cmd, docs)
	}
	if len(docs) == 0 {
		cmd.Println("No documents in the library.")
		return nil
	}

	for i := range docs {
		d := &docs[i]
		cmd.Printf("%s  %-10s  %4d chunks  %s\n", d.ID, d.Status, d.TotalChunks, d.Title)
		if d.LastError != "" && verbose {
			cmd.Printf("    %s\n", firstLine(d.LastError))
		}
	}
	return nil
}

func runRemove(cmd *cobra.Command, args []string) error {
	if libraryService == nil {
		return errNotConfigured("library service")
	}
	ctx := commandContext(cmd)

	for _, id := range args {
		if err := libraryService.Remove(ctx, id); err != nil {
			return fmt.Errorf("failed to remove %s: %w", id, err)
		}
		cmd.Printf("Removed %s\n", id)
	}
	return nil
}

func runStatus(cmd *cobra.Command, _ []string) error {
	if sessionService == nil {
		return errNotConfigured("session service")
	}

	summary, err := sessionService.ProcessingSummary(commandContext(cmd))
	if err != nil {
		return fmt.Errorf("failed to get summary: %w", err)
	}
	if statusJSON {
		return printJSON(cmd, summary)
	}

	printSummary(cmd, summary)
	return nil
}

func printSummary(cmd *cobra.Command, s domain.ProcessingSummary) {
	cmd.Printf("Documents:  %d\n", s.Total)
	cmd.Printf("  Ready:      %d\n", s.Completed)
	cmd.Printf("  Pending:    %d\n", s.Pending)
	cmd.Printf("  Processing: %d\n", s.Processing)
	cmd.Printf("  Failed:     %d\n", s.Failed)
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
