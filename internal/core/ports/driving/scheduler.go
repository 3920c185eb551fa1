package driving

import "context"

// Scheduler runs unattended ingestion in the background.
type Scheduler interface {
	// Start begins running scheduled ingestion.
	// Blocks until context is cancelled or an error occurs.
	Start(ctx context.Context) error

	// Stop gracefully stops the scheduler.
	Stop() error
}
