package entities

import "time"

// IngestRun records one ingestion session.
type IngestRun struct {
	ID         string         `json:"id"`
	StartedAt  time.Time      `json:"started_at"`
	FinishedAt time.Time      `json:"finished_at"`
	Seed       uint64         `json:"seed"`
	Triples    int            `json:"triples"`
	Battles    int            `json:"battles"`
	Details    map[string]any `json:"details,omitempty"`
}

// Snapshot is a serializable copy of a graph together with the usage
// counters collected while building it.
type Snapshot struct {
	Triples  []Triple
	Counters *UsageCounters
	Run      *IngestRun
}
