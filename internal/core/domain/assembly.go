package domain

// BuildRequest is the input to context assembly for one chat turn.
type BuildRequest struct {
	// SessionID selects the session whose pinned items may join the bundle.
	SessionID string

	// Message is the user's chat message, embedded for retrieval.
	// Empty skips retrieval.
	Message string

	// Explicit are the contexts attached to this message, in order.
	Explicit []ExplicitContext

	// ActiveDocumentID is the document open in the viewer. It breaks score
	// ties in its favour and is recorded on the bundle.
	ActiveDocumentID string

	// TokenBudget overrides the configured budget when positive.
	TokenBudget int

	// Mode overrides the configured context mode when set.
	Mode ContextMode
}

// BuildResult is the output of context assembly.
type BuildResult struct {
	// Bundle is the deduplicated, budgeted context.
	Bundle ContextBundle

	// Rendered is the prompt text with provenance headers.
	Rendered string

	// RetrievalErr is set when retrieval degraded to explicit-only context.
	RetrievalErr error

	// Deduplicated counts retrieved contexts removed as duplicates.
	Deduplicated int

	// Dropped counts retrieved contexts removed to fit the budget.
	Dropped int

	// OverBudget is true when explicit contexts alone exceed the budget.
	OverBudget bool
}

// Degraded reports whether retrieval failed and the bundle is explicit-only.
func (r BuildResult) Degraded() bool {
	return r.RetrievalErr != nil
}
