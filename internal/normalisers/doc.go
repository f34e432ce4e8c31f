// Package normalisers provides implementations of the Normaliser interface
// for the document formats the library accepts. Each normaliser knows how to
// extract per-page text from a specific MIME type.
//
// Normalisers are registered with a Registry at startup.
package normalisers
