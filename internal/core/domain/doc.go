// Package domain defines the core business entities for udirag.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - Document: A cleaned corpus page with its provenance
//   - Chunk: A bounded, overlapping text window, the unit of retrieval
//   - RetrievedChunk: A chunk returned by a similarity query
//   - QACandidate: A generated benchmark question with its grounding context
//   - BenchmarkReport: The scored outcome of a benchmark run
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
