// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Interfaces
//
//   - CorpusProvider: Lists and reads raw corpus files, writes scraped pages
//   - Normaliser / NormaliserRegistry: Turn raw bytes into Documents
//   - PostProcessor / PostProcessorPipeline: Turn Documents into Chunks
//   - DocumentStore: Ingested documents and chunks
//   - VectorIndex: Embedded chunk records with similarity search
//   - EmbeddingService: Generates vector embeddings
//   - LLMService: Language model completions
//   - DatasetStore: Benchmark artifacts
//   - PromptStore: User-editable prompt templates
//   - ConfigStore: Application configuration
//   - Pacer: Inter-request pacing
//   - PageFetcher: HTTP access for the scraper
//   - LanguageDetector: Language identification for the cleaner
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter or normaliser package
package driven
