package mcp

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/pdfchat/internal/core/domain"
	"github.com/custodia-labs/pdfchat/internal/core/services"
)

// SearchInput is the input schema for the search_library tool.
type SearchInput struct {
	Query string `json:"query" jsonschema:"the text to find similar passages for"`
	Limit int    `json:"limit,omitempty" jsonschema:"maximum number of passages to return (default 8)"`
}

// SearchOutput is the output schema for the search_library tool.
type SearchOutput struct {
	Results []SearchResultOutput `json:"results"`
	Count   int                  `json:"count"`
}

// SearchResultOutput represents a single ranked passage.
type SearchResultOutput struct {
	ChunkID    string  `json:"chunk_id"`
	DocumentID string  `json:"document_id"`
	Title      string  `json:"title,omitempty"`
	Pages      string  `json:"pages,omitempty"`
	Score      float64 `json:"score"`
	Content    string  `json:"content"`
}

// PageRangeInput selects an inclusive page range of a document.
type PageRangeInput struct {
	DocumentID string `json:"document_id"`
	From       int    `json:"from"`
	To         int    `json:"to"`
}

// SelectionInput is text the user highlighted in a document.
type SelectionInput struct {
	DocumentID string `json:"document_id"`
	Text       string `json:"text"`
	Pages      []int  `json:"pages,omitempty"`
}

// BuildContextInput is the input schema for the build_context tool.
type BuildContextInput struct {
	Message          string           `json:"message" jsonschema:"the chat message to retrieve context for"`
	SessionID        string           `json:"session_id,omitempty" jsonschema:"chat session whose pinned items join the bundle"`
	ActiveDocumentID string           `json:"active_document_id,omitempty" jsonschema:"document currently open in the viewer"`
	TokenBudget      int              `json:"token_budget,omitempty" jsonschema:"maximum tokens for the bundle"`
	Mode             string           `json:"mode,omitempty" jsonschema:"session or message"`
	Documents        []string         `json:"documents,omitempty" jsonschema:"document IDs attached whole"`
	PageRanges       []PageRangeInput `json:"page_ranges,omitempty" jsonschema:"page ranges attached explicitly"`
	Selections       []SelectionInput `json:"selections,omitempty" jsonschema:"highlighted text attached explicitly"`
}

// BuildContextOutput is the output schema for the build_context tool.
type BuildContextOutput struct {
	Rendered       string         `json:"rendered"`
	TotalTokens    int            `json:"total_tokens"`
	Sources        []SourceOutput `json:"sources"`
	Degraded       bool           `json:"degraded"`
	RetrievalError string         `json:"retrieval_error,omitempty"`
	OverBudget     bool           `json:"over_budget"`
	Deduplicated   int            `json:"deduplicated"`
	Dropped        int            `json:"dropped"`
}

// SourceOutput describes one entry of a context bundle.
type SourceOutput struct {
	ID         string `json:"id"`
	Kind       string `json:"kind"`
	DocumentID string `json:"document_id,omitempty"`
	Pages      string `json:"pages,omitempty"`
	Tokens     int    `json:"tokens"`
}

// SummaryInput is the empty input schema for the processing_summary tool.
type SummaryInput struct{}

// registerTools registers all tool handlers with the MCP server.
func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "search_library",
		Description: "Find the passages of processed PDFs most similar to a query",
	}, s.handleSearch)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "build_context",
		Description: "Assemble the context bundle for a chat message from explicit attachments and retrieved passages",
	}, s.handleBuildContext)

	if s.ports.Sessions != nil {
		mcp.AddTool(s.server, &mcp.Tool{
			Name:        "processing_summary",
			Description: "Count library documents by processing status",
		}, s.handleSummary)
	}
}

// handleSearch handles the search_library tool invocation.
func (s *Server) handleSearch(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input SearchInput,
) (*mcp.CallToolResult, SearchOutput, error) {
	limit := input.Limit
	if limit <= 0 {
		limit = services.DefaultSearchLimit
	}

	hits, err := s.ports.Search.SearchText(ctx, input.Query, limit)
	if err != nil {
		return nil, SearchOutput{}, err
	}

	titles := make(map[string]string)
	output := SearchOutput{
		Results: make([]SearchResultOutput, len(hits)),
		Count:   len(hits),
	}
	for i, hit := range hits {
		output.Results[i] = SearchResultOutput{
			ChunkID:    hit.Chunk.ID,
			DocumentID: hit.Chunk.DocumentID,
			Title:      s.title(ctx, titles, hit.Chunk.DocumentID),
			Pages:      services.FormatPages(hit.Chunk.Pages()),
			Score:      hit.Score,
			Content:    hit.Chunk.Content,
		}
	}

	return nil, output, nil
}

// title looks up a document title through the library, caching per call.
func (s *Server) title(ctx context.Context, cache map[string]string, documentID string) string {
	if s.ports.Library == nil {
		return ""
	}
	if t, ok := cache[documentID]; ok {
		return t
	}
	t := ""
	if doc, err := s.ports.Library.Get(ctx, documentID); err == nil {
		t = doc.Title
	}
	cache[documentID] = t
	return t
}

// handleBuildContext handles the build_context tool invocation.
func (s *Server) handleBuildContext(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input BuildContextInput,
) (*mcp.CallToolResult, BuildContextOutput, error) {
	explicit, err := s.explicitContexts(ctx, input)
	if err != nil {
		return nil, BuildContextOutput{}, err
	}

	req := domain.BuildRequest{
		SessionID:        input.SessionID,
		Message:          input.Message,
		Explicit:         explicit,
		ActiveDocumentID: input.ActiveDocumentID,
		TokenBudget:      input.TokenBudget,
	}
	if input.Mode != "" {
		mode := domain.ContextMode(input.Mode)
		if !mode.IsValid() {
			return nil, BuildContextOutput{}, fmt.Errorf("%w: unknown context mode %q", domain.ErrInvalidInput, input.Mode)
		}
		req.Mode = mode
	}

	result, err := s.ports.Assembler.Build(ctx, req)
	if err != nil {
		return nil, BuildContextOutput{}, err
	}

	output := BuildContextOutput{
		Rendered:     result.Rendered,
		TotalTokens:  result.Bundle.TotalTokens(),
		Sources:      make([]SourceOutput, 0, result.Bundle.Len()),
		Degraded:     result.Degraded(),
		OverBudget:   result.OverBudget,
		Deduplicated: result.Deduplicated,
		Dropped:      result.Dropped,
	}
	if result.RetrievalErr != nil {
		output.RetrievalError = result.RetrievalErr.Error()
	}
	for _, src := range result.Bundle.Sources {
		output.Sources = append(output.Sources, SourceOutput{
			ID:         src.SourceID(),
			Kind:       string(src.Kind()),
			DocumentID: src.Document(),
			Pages:      services.FormatPages(src.PageNumbers()),
			Tokens:     src.Tokens(),
		})
	}

	return nil, output, nil
}

// explicitContexts turns the tool's attachments into explicit contexts in
// input order: whole documents, then page ranges, then selections.
func (s *Server) explicitContexts(ctx context.Context, input BuildContextInput) ([]domain.ExplicitContext, error) {
	var out []domain.ExplicitContext
	for _, id := range input.Documents {
		ec, err := s.ports.Assembler.DocumentContext(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("attaching document %s: %w", id, err)
		}
		out = append(out, ec)
	}
	for _, r := range input.PageRanges {
		ec, err := s.ports.Assembler.PageRangeContext(ctx, r.DocumentID, r.From, r.To)
		if err != nil {
			return nil, fmt.Errorf("attaching pages %d-%d of %s: %w", r.From, r.To, r.DocumentID, err)
		}
		out = append(out, ec)
	}
	for _, sel := range input.Selections {
		var loc *domain.SelectionLocation
		if len(sel.Pages) > 0 {
			loc = &domain.SelectionLocation{Pages: sel.Pages}
		}
		ec, err := s.ports.Assembler.SelectionContext(ctx, sel.DocumentID, sel.Text, loc)
		if err != nil {
			return nil, fmt.Errorf("attaching selection from %s: %w", sel.DocumentID, err)
		}
		out = append(out, ec)
	}
	return out, nil
}

// handleSummary handles the processing_summary tool invocation.
func (s *Server) handleSummary(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	_ SummaryInput,
) (*mcp.CallToolResult, domain.ProcessingSummary, error) {
	summary, err := s.ports.Sessions.ProcessingSummary(ctx)
	if err != nil {
		return nil, domain.ProcessingSummary{}, err
	}
	return nil, summary, nil
}
