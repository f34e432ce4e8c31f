package cli

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/pdfchat/internal/core/domain"
)

// attachmentFlags collects explicit context from repeatable flags.
type attachmentFlags struct {
	documents  []string
	pages      []string
	selections []string
}

func (a *attachmentFlags) register(c *cobra.Command) {
	c.Flags().StringArrayVar(&a.documents, "document", nil, "attach a whole document by ID (repeatable)")
	c.Flags().StringArrayVar(&a.pages, "pages", nil, "attach pages as ID:FROM-TO or ID:PAGE (repeatable)")
	c.Flags().StringArrayVar(&a.selections, "selection", nil, "attach selected text as ID:TEXT (repeatable)")
}

func (a *attachmentFlags) empty() bool {
	return len(a.documents) == 0 && len(a.pages) == 0 && len(a.selections) == 0
}

// resolve builds explicit contexts in flag order: documents, page ranges,
// then selections.
func (a *attachmentFlags) resolve(ctx context.Context) ([]domain.ExplicitContext, error) {
	if a.empty() {
		return nil, nil
	}
	if assemblerService == nil {
		return nil, errNotConfigured("context assembler")
	}

	var out []domain.ExplicitContext
	for _, id := range a.documents {
		ec, err := assemblerService.DocumentContext(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("failed to attach document %s: %w", id, err)
		}
		out = append(out, ec)
	}
	for _, spec := range a.pages {
		id, from, to, err := parsePageSpec(spec)
		if err != nil {
			return nil, err
		}
		ec, err := assemblerService.PageRangeContext(ctx, id, from, to)
		if err != nil {
			return nil, fmt.Errorf("failed to attach %s: %w", spec, err)
		}
		out = append(out, ec)
	}
	for _, spec := range a.selections {
		id, text, ok := strings.Cut(spec, ":")
		if !ok || id == "" {
			return nil, fmt.Errorf("%w: selection %q, expected ID:TEXT", domain.ErrInvalidInput, spec)
		}
		ec, err := assemblerService.SelectionContext(ctx, id, text, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to attach selection from %s: %w", id, err)
		}
		out = append(out, ec)
	}
	return out, nil
}

// parsePageSpec parses "ID:FROM-TO" or "ID:PAGE".
func parsePageSpec(spec string) (id string, from, to int, err error) {
	id, pages, ok := strings.Cut(spec, ":")
	if !ok || id == "" || pages == "" {
		return "", 0, 0, fmt.Errorf("%w: page range %q, expected ID:FROM-TO", domain.ErrInvalidInput, spec)
	}

	lo, hi, isRange := strings.Cut(pages, "-")
	from, err = strconv.Atoi(strings.TrimSpace(lo))
	if err != nil {
		return "", 0, 0, fmt.Errorf("%w: page range %q: bad start page", domain.ErrInvalidInput, spec)
	}
	to = from
	if isRange {
		to, err = strconv.Atoi(strings.TrimSpace(hi))
		if err != nil {
			return "", 0, 0, fmt.Errorf("%w: page range %q: bad end page", domain.ErrInvalidInput, spec)
		}
	}
	if from < 1 || to < from {
		return "", 0, 0, fmt.Errorf("%w: page range %q: need 1 <= FROM <= TO", domain.ErrInvalidInput, spec)
	}
	return id, from, to, nil
}
