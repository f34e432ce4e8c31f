// Package domain defines the core business entities for pdfchat.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - Document: An imported source file and its processing status
//   - Chunk: An embedded, page-located span of document text
//   - ContextSource: Explicit or retrieved context grounding a chat turn
//   - ContextBundle: The budgeted set of contexts for one message
//   - ChatSession / ContextItem: Contexts pinned to a conversation
//
// # Architectural Position
//
// Domain is at the centre of the hexagon. It may only import
// the Go standard library. All other packages depend on domain,
// never the reverse.
//
// # Import Rules
//
//   - Can Import: Standard library only
//   - Cannot Import: Any internal/ package, any external dependency
package domain
