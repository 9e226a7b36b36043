package domain

// RefusalAnswer is the fixed answer given when the retrieved context does not
// contain the information needed.
const RefusalAnswer = "I do not know the answer based on the provided UDI documents."

// FallbackAnswer is returned to callers when a model service fails while
// answering.
const FallbackAnswer = "I encountered an error connecting to the language model. Please try again later."

// Answer is a composed response to a user question.
type Answer struct {
	// Text is the answer shown to the user.
	Text string

	// Sources are the chunks the answer was grounded on, best first.
	Sources []RetrievedChunk

	// Degraded is true when Text is the fallback message because a
	// retrieval or model call failed.
	Degraded bool
}
