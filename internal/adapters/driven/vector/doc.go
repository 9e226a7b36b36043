// Package vector holds helpers shared by the vector index adapters.
//
// The adapters themselves live in subpackages:
//   - chromem: embedded index persisted to a directory (default)
//   - pgvector: Postgres table with the pgvector extension
package vector
