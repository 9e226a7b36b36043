// Package sqlite provides a SQLite-based implementation of the document store.
//
// This adapter uses modernc.org/sqlite, a pure Go SQLite implementation that requires
// no CGO, enabling easy cross-compilation. It stores the ingested documents and
// their chunks so that benchmark generation can sample chunks without re-reading
// the corpus.
//
// # Schema
//
// The database schema is managed through versioned migrations stored in the
// migrations/ directory. Each migration is a pair of .up.sql and .down.sql files.
//
// # Data Location
//
// The database is stored at <data_dir>/udirag.db (default data/udirag.db).
//
// # Thread Safety
//
// All operations are thread-safe. The store uses database-level locking provided
// by SQLite in WAL mode. ReplaceAll runs in a single transaction, so readers see
// either the previous ingestion or the new one.
package sqlite
