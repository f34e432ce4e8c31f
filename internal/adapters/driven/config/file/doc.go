// Package file provides the TOML-backed configuration store.
//
// Keys are exposed in dot notation ("retrieval.top_k") and written back as
// nested tables, so the file stays hand-editable:
//
//	[retrieval]
//	top_k = 8
package file
