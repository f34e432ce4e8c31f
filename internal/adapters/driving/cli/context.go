package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/pdfchat/internal/core/domain"
	"github.com/custodia-labs/pdfchat/internal/core/services"
)

var (
	buildSession     string
	buildActive      string
	buildBudget      int
	buildMode        string
	buildJSON        bool
	buildAttachments attachmentFlags
)

var contextCmd = &cobra.Command{
	Use:   "context",
	Short: "Assemble chat context",
}

var contextBuildCmd = &cobra.Command{
	Use:   "build [message]",
	Short: "Build the context bundle for a message",
	Long: `Builds the context for a chat message. Explicit attachments, and in
session mode the session's pinned items, are always included. Retrieved
passages fill the remaining token budget, highest score first.

If retrieval fails (no processed documents, timeout, provider error) the
bundle is built from explicit context alone and a warning is printed.

Examples:
  pdfchat context build "what drove revenue?" --pages 1f0c...:7-8
  pdfchat context build "summarise" --session 3a9e... --document 1f0c...`,
	Args: cobra.MaximumNArgs(1),
	RunE: runContextBuild,
}

func init() {
	f := contextBuildCmd.Flags()
	f.StringVarP(&buildSession, "session", "s", "", "session whose pinned items are included")
	f.StringVar(&buildActive, "active", "", "document open in the viewer, preferred on score ties")
	f.IntVar(&buildBudget, "budget", 0, "token budget (default from config)")
	f.StringVar(&buildMode, "mode", "", "context mode: session or message (default from config)")
	f.BoolVar(&buildJSON, "json", false, "output the bundle as JSON")
	buildAttachments.register(contextBuildCmd)
	contextCmd.AddCommand(contextBuildCmd)
	rootCmd.AddCommand(contextCmd)
}

// bundleSource is the JSON shape of one bundle entry.
type bundleSource struct {
	ID         string  `json:"id"`
	Kind       string  `json:"kind"`
	DocumentID string  `json:"document_id"`
	Pages      []int   `json:"pages,omitempty"`
	Tokens     int     `json:"tokens"`
	Score      float64 `json:"score,omitempty"`
}

// bundleOutput is the JSON shape of a build result.
type bundleOutput struct {
	Rendered       string         `json:"rendered"`
	TotalTokens    int            `json:"total_tokens"`
	Sources        []bundleSource `json:"sources"`
	RetrievalError string         `json:"retrieval_error,omitempty"`
	OverBudget     bool           `json:"over_budget"`
	Deduplicated   int            `json:"deduplicated"`
	Dropped        int            `json:"dropped"`
}

func runContextBuild(cmd *cobra.Command, args []string) error {
	if assemblerService == nil {
		return errNotConfigured("context assembler")
	}
	ctx := commandContext(cmd)

	req := domain.BuildRequest{
		SessionID:        buildSession,
		ActiveDocumentID: buildActive,
		TokenBudget:      buildBudget,
	}
	if len(args) > 0 {
		req.Message = args[0]
	}
	if buildMode != "" {
		mode := domain.ContextMode(buildMode)
		if !mode.IsValid() {
			return fmt.Errorf("%w: unknown context mode %q", domain.ErrInvalidInput, buildMode)
		}
		req.Mode = mode
	}

	explicit, err := buildAttachments.resolve(ctx)
	if err != nil {
		return err
	}
	req.Explicit = explicit

	result, err := assemblerService.Build(ctx, req)
	if err != nil {
		return fmt.Errorf("failed to build context: %w", err)
	}

	if buildJSON {
		return printJSON(cmd, newBundleOutput(result))
	}

	if result.Degraded() {
		cmd.PrintErrf("Warning: retrieval unavailable, using explicit context only: %v\n", result.RetrievalErr)
	}
	if result.OverBudget {
		cmd.PrintErrf("Warning: explicit context alone exceeds the token budget\n")
	}
	if result.Bundle.Len() == 0 {
		cmd.Println("No context for this message.")
		return nil
	}
	cmd.Println(result.Rendered)
	cmd.PrintErrf("%d source(s), %d tokens, %d deduplicated, %d dropped for budget\n",
		result.Bundle.Len(), result.Bundle.TotalTokens(), result.Deduplicated, result.Dropped)
	return nil
}

func newBundleOutput(result *domain.BuildResult) bundleOutput {
	out := bundleOutput{
		Rendered:     result.Rendered,
		TotalTokens:  result.Bundle.TotalTokens(),
		Sources:      make([]bundleSource, 0, result.Bundle.Len()),
		OverBudget:   result.OverBudget,
		Deduplicated: result.Deduplicated,
		Dropped:      result.Dropped,
	}
	if result.RetrievalErr != nil {
		out.RetrievalError = result.RetrievalErr.Error()
	}
	for _, src := range result.Bundle.Sources {
		s := bundleSource{
			ID:         src.SourceID(),
			Kind:       string(src.Kind()),
			DocumentID: src.Document(),
			Pages:      src.PageNumbers(),
			Tokens:     src.Tokens(),
		}
		if r, ok := src.(domain.RetrievedContext); ok {
			s.Score = r.Score
		}
		out.Sources = append(out.Sources, s)
	}
	return out
}

// describeSource is a one-line label used when listing pinned items.
func describeSource(ec domain.ExplicitContext) string {
	title := ec.DocumentTitle
	if title == "" {
		title = ec.DocumentID
	}
	switch ec.Shape {
	case domain.ExplicitDocument:
		return title + ", entire document"
	default:
		if pages := services.FormatPages(ec.PageNumbers()); pages != "" {
			return fmt.Sprintf("%s, %s (%s)", title, pages, ec.Shape)
		}
		return fmt.Sprintf("%s (%s)", title, ec.Shape)
	}
}
