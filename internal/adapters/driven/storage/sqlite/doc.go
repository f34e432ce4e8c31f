// Package sqlite provides a unified SQLite-based implementation of driven port interfaces.
//
// This adapter uses modernc.org/sqlite, a pure Go SQLite implementation that requires
// no CGO, enabling easy cross-compilation. It implements multiple store interfaces
// through a single database connection:
//
//   - DocumentStore: Document and processing status persistence
//   - ChunkStore: Embedded chunk persistence
//   - SessionStore: Chat sessions and pinned context items
//
// # Schema
//
// The database schema is managed through versioned migrations stored in the
// migrations/ directory. Each migration is a pair of .up.sql and .down.sql files.
//
// # Data Location
//
// By default, the database is stored at ~/.pdfchat/data/library.db
//
// # Thread Safety
//
// All operations are thread-safe. Chunk replacement runs in a single
// transaction, and WAL mode gives readers a consistent snapshot, so a
// reader sees either the old or the new chunk set of a document.
package sqlite
