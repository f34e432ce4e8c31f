// Package mcp provides an MCP (Model Context Protocol) server adapter for pdfchat.
// It lets an assistant search the PDF library and assemble chat context over
// the same services the CLI uses.
package mcp

import "errors"

// ErrMissingSearchService is returned when the similarity search is not provided.
var ErrMissingSearchService = errors.New("mcp: search service is required")

// ErrMissingAssembler is returned when the context assembler is not provided.
var ErrMissingAssembler = errors.New("mcp: context assembler is required")
