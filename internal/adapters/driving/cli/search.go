package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/pdfchat/internal/core/services"
)

var (
	searchLimit int
	searchJSON  bool
)

var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Search processed documents",
	Long: `Embeds the query and ranks every chunk of the completed documents by
cosine similarity. Documents that are still pending, processing or failed
are not searched.`,
	Args: cobra.ExactArgs(1),
	RunE: runSearch,
}

func init() {
	searchCmd.Flags().IntVarP(&searchLimit, "limit", "n", services.DefaultSearchLimit, "maximum number of results")
	searchCmd.Flags().BoolVar(&searchJSON, "json", false, "output results as JSON")
	rootCmd.AddCommand(searchCmd)
}

// searchHit is the output shape of a ranked chunk.
type searchHit struct {
	ChunkID    string  `json:"chunk_id"`
	DocumentID string  `json:"document_id"`
	Title      string  `json:"title"`
	Pages      []int   `json:"pages"`
	Score      float64 `json:"score"`
	Content    string  `json:"content"`
}

func runSearch(cmd *cobra.Command, args []string) error {
	if searchService == nil {
		return errNotConfigured("search service")
	}
	ctx := commandContext(cmd)

	results, err := searchService.SearchText(ctx, args[0], searchLimit)
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	titles := make(map[string]string)
	hits := make([]searchHit, len(results))
	for i, r := range results {
		id := r.Chunk.DocumentID
		if _, ok := titles[id]; !ok {
			titles[id] = documentTitle(cmd, id)
		}
		hits[i] = searchHit{
			ChunkID:    r.Chunk.ID,
			DocumentID: id,
			Title:      titles[id],
			Pages:      r.Chunk.Pages(),
			Score:      r.Score,
			Content:    r.Chunk.Content,
		}
	}

	if searchJSON {
		return printJSON(cmd, hits)
	}
	return outputSearchTable(cmd, hits)
}

func outputSearchTable(cmd *cobra.Command, hits []searchHit) error {
	if len(hits) == 0 {
		cmd.Println("No results found.")
		return nil
	}

	for i := range hits {
		h := &hits[i]
		// Format: [N] Title, pp. a-b (score)
		where := h.Title
		if pages := services.FormatPages(h.Pages); pages != "" {
			where += ", " + pages
		}
		cmd.Printf("[%d] %s (%.3f)\n", i+1, where, h.Score)
		cmd.Printf("    %s\n", snippet(h.Content, 160))
	}
	return nil
}

// documentTitle returns the document title or its ID when it cannot be read.
func documentTitle(cmd *cobra.Command, id string) string {
	if libraryService == nil {
		return id
	}
	doc, err := libraryService.Get(commandContext(cmd), id)
	if err != nil || doc.Title == "" {
		return id
	}
	return doc.Title
}

func snippet(s string, n int) string {
	s = strings.Join(strings.Fields(s), " ")
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n]) + "..."
}
