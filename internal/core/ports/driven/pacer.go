package driven

import "context"

// Pacer spaces out requests to an external endpoint.
type Pacer interface {
	// Wait blocks until the next request may be sent or ctx is done.
	Wait(ctx context.Context) error
}
