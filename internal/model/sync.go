package model

// SyncImportResult summarizes one sync run. It is never persisted.
type SyncImportResult struct {
	ResourcesCreated int `json:"resources_created"`
	ResourcesUpdated int `json:"resources_updated"`
	EventsImported   int `json:"events_imported"`
	EventsSkipped    int `json:"events_skipped"`
}
