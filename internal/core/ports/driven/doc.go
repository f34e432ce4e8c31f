// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Required Interfaces
//
// These must be provided for the application to function:
//
//   - DocumentStore: Document persistence and processing status
//   - ChunkStore: Embedded chunk persistence with per-document replacement
//   - SessionStore: Chat sessions and their pinned context items
//   - ChunkingProvider: Turns source bytes into embedded chunks
//   - SourceLoader: Reads a document's source bytes
//   - SourceIndex: Resolves and scans importable files
//   - EmbeddingService: Generates vector embeddings for ingestion and queries
//   - TokenCounter: Deterministic token estimate used for budgeting
//   - Checksummer: Fingerprints explicit context content
//   - ConfigStore: Application configuration
//
// # Optional Interfaces
//
// These can be nil - the application degrades gracefully:
//
//   - StatusNotifier: Publishes processing status transitions. Without it, callers poll.
//   - MetricsRecorder: Prometheus measurements. Without it, nothing is recorded.
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter, connector, or normaliser package
package driven
