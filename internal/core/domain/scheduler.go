package domain

// Task IDs for built-in scheduled tasks.
const (
	TaskIDIngest = "catalog-ingest"
)

// SchedulerConfig holds scheduler configuration.
type SchedulerConfig struct {
	// Enabled is the master switch for the scheduler.
	Enabled bool

	// Spec is a five-field cron expression for periodic ingestion.
	Spec string

	// WatchCatalog triggers an ingestion run whenever the catalog file changes.
	WatchCatalog bool
}

// DefaultSchedulerConfig returns sensible defaults for the scheduler.
func DefaultSchedulerConfig() SchedulerConfig {
	return SchedulerConfig{
		Enabled:      true,
		Spec:         DefaultSchedule,
		WatchCatalog: true,
	}
}
