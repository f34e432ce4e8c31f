package domain

// ContextKind distinguishes the two concrete context source shapes.
type ContextKind string

// Context kinds.
const (
	// ContextExplicit is user-specified context (selection, page range, document).
	ContextExplicit ContextKind = "explicit"

	// ContextRetrieved is a chunk returned by similarity search.
	ContextRetrieved ContextKind = "retrieved"
)

// ContextSource is one piece of context grounding a chat turn.
// The only implementations are ExplicitContext and RetrievedContext.
type ContextSource interface {
	// SourceID is the context's identity. A bundle never holds two equal IDs.
	SourceID() string

	// Kind reports which variant this is.
	Kind() ContextKind

	// Tokens is the token count used for budgeting.
	Tokens() int

	// Text is the content rendered into the prompt.
	Text() string

	// Document is the ID of the document the context comes from.
	Document() string

	// PageNumbers lists the pages the context covers, ascending.
	PageNumbers() []int

	isContextSource()
}

// ExplicitKind is the shape of an explicit context.
type ExplicitKind string

// Explicit context shapes.
const (
	// ExplicitSelection is literal text selected on screen.
	ExplicitSelection ExplicitKind = "selection"

	// ExplicitPageRange is a contiguous range of pages.
	ExplicitPageRange ExplicitKind = "page_range"

	// ExplicitDocument is a whole document.
	ExplicitDocument ExplicitKind = "document"
)

// PageRange is an inclusive, 1-based range of pages.
type PageRange struct {
	From int `json:"from"`
	To   int `json:"to"`
}

// Contains reports whether page lies within the range.
func (r PageRange) Contains(page int) bool {
	return page >= r.From && page <= r.To
}

// Pages expands the range into its page numbers.
func (r PageRange) Pages() []int {
	if r.To < r.From || r.From <= 0 {
		return nil
	}
	pages := make([]int, 0, r.To-r.From+1)
	for p := r.From; p <= r.To; p++ {
		pages = append(pages, p)
	}
	return pages
}

// PageRect is a selection rectangle on a specific page.
type PageRect struct {
	Page   int  `json:"page"`
	Bounds Rect `json:"bounds"`
}

// SelectionLocation locates an on-screen selection within a document.
type SelectionLocation struct {
	Pages     []int      `json:"pages"`
	Rects     []PageRect `json:"rects,omitempty"`
	CharStart int        `json:"char_start"`
	CharEnd   int        `json:"char_end"`
}

// ExplicitContext is context the user attached on purpose.
// It is always included in a bundle and never dropped for budget.
type ExplicitContext struct {
	ID            string             `json:"id"`
	Shape         ExplicitKind       `json:"kind"`
	DocumentID    string             `json:"document_id"`
	DocumentTitle string             `json:"document_title"`
	Content       string             `json:"content"`
	TokenCount    int                `json:"token_count"`
	Checksum      string             `json:"checksum"`
	Location      *SelectionLocation `json:"location,omitempty"`
	Range         *PageRange         `json:"page_range,omitempty"`
}

// SourceID implements ContextSource.
func (e ExplicitContext) SourceID() string { return e.ID }

// Kind implements ContextSource.
func (e ExplicitContext) Kind() ContextKind { return ContextExplicit }

// Tokens implements ContextSource.
func (e ExplicitContext) Tokens() int { return e.TokenCount }

// Text implements ContextSource.
func (e ExplicitContext) Text() string { return e.Content }

// Document implements ContextSource.
func (e ExplicitContext) Document() string { return e.DocumentID }

// PageNumbers implements ContextSource.
func (e ExplicitContext) PageNumbers() []int {
	switch {
	case e.Range != nil:
		return e.Range.Pages()
	case e.Location != nil:
		prov := make([]Provenance, 0, len(e.Location.Pages))
		for _, p := range e.Location.Pages {
			prov = append(prov, Provenance{Page: p})
		}
		return ProvenancePages(prov)
	default:
		return nil
	}
}

// Covers reports whether the explicit context overlaps the given document pages.
// A whole-document context covers every page of its document.
func (e ExplicitContext) Covers(documentID string, pages []int) bool {
	if e.DocumentID == "" || e.DocumentID != documentID {
		return false
	}
	if e.Shape == ExplicitDocument {
		return true
	}
	own := e.PageNumbers()
	for _, p := range pages {
		for _, q := range own {
			if p == q {
				return true
			}
		}
	}
	return false
}

func (ExplicitContext) isContextSource() {}

// RetrievedContext is a chunk returned by similarity search.
type RetrievedContext struct {
	Chunk         Chunk   `json:"chunk"`
	DocumentTitle string  `json:"document_title"`
	Score         float64 `json:"score"`
	TokenCount    int     `json:"token_count"`
}

// SourceID implements ContextSource.
func (r RetrievedContext) SourceID() string { return r.Chunk.ID }

// Kind implements ContextSource.
func (r RetrievedContext) Kind() ContextKind { return ContextRetrieved }

// Tokens implements ContextSource.
func (r RetrievedContext) Tokens() int { return r.TokenCount }

// Text implements ContextSource.
func (r RetrievedContext) Text() string { return r.Chunk.Content }

// Document implements ContextSource.
func (r RetrievedContext) Document() string { return r.Chunk.DocumentID }

// PageNumbers implements ContextSource.
func (r RetrievedContext) PageNumbers() []int { return r.Chunk.Pages() }

func (RetrievedContext) isContextSource() {}

// ContextBundle is the deduplicated, budgeted context for one chat turn.
type ContextBundle struct {
	// SessionID is the chat session the bundle was built for.
	SessionID string

	// ActiveDocumentID is the document open in the viewer, if any.
	ActiveDocumentID string

	// Sources holds explicit contexts first, in the order added,
	// then retrieved contexts by descending score.
	Sources []ContextSource
}

// TotalTokens sums the token counts of all sources.
func (b ContextBundle) TotalTokens() int {
	total := 0
	for _, s := range b.Sources {
		total += s.Tokens()
	}
	return total
}

// Explicit returns the explicit contexts in bundle order.
func (b ContextBundle) Explicit() []ExplicitContext {
	var out []ExplicitContext
	for _, s := range b.Sources {
		if e, ok := s.(ExplicitContext); ok {
			out = append(out, e)
		}
	}
	return out
}

// Retrieved returns the retrieved contexts in bundle order.
func (b ContextBundle) Retrieved() []RetrievedContext {
	var out []RetrievedContext
	for _, s := range b.Sources {
		if r, ok := s.(RetrievedContext); ok {
			out = append(out, r)
		}
	}
	return out
}

// Len returns the number of sources in the bundle.
func (b ContextBundle) Len() int {
	return len(b.Sources)
}
