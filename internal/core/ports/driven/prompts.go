package driven

// PromptStore provides access to LLM prompt templates.
// Implementations may load prompts from files or embed them in the binary.
type PromptStore interface {
	// Load returns the prompt template for the given name.
	// If the prompt is not found, implementations should return the built-in
	// default or an error when none exists.
	Load(name string) (string, error)

	// Reload clears any cached prompts, forcing fresh loads on next access.
	// This is useful when prompts may have been edited on disk.
	Reload()
}

// Well-known prompt names used throughout the application.
// These constants define the contract between prompt consumers and providers.
const (
	// PromptAnswerSystem is the strict context-only answering prompt.
	// Placeholders: %s (refusal string), %s (context), %s (question).
	PromptAnswerSystem = "answer_system"

	// PromptGenerateQA asks for scenario-style QA pairs from one chunk.
	// Placeholders: %d (number of pairs), %s (context).
	PromptGenerateQA = "generate_qa"

	// PromptAuditGrounding asks whether an answer is fully supported by its context.
	// Placeholders: %s (context), %s (question), %s (answer).
	PromptAuditGrounding = "audit_grounding"

	// PromptBenchmarkJudge grades a candidate answer against ground truth.
	// Placeholders: %s (refusal string), %s (question), %s (ground truth), %s (candidate).
	PromptBenchmarkJudge = "benchmark_judge"

	// PromptJSONCorrection asks the model to repair an invalid JSON reply.
	// Placeholders: %s (decode error).
	PromptJSONCorrection = "json_correction"
)
