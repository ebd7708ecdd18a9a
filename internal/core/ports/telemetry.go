package ports

// LoadTelemetry receives one observation per load attempt and one per
// completed initialization. Category names are the stable load category names.
type LoadTelemetry interface {
	ObserveAttempt(category string)
	ObserveInitialization(rebuildCause string, attempts int, durationSeconds float64)
}
