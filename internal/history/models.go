package history

import "time"

const SchemaVersion = 1

// Run is one recorded analysis run.
type Run struct {
	ID                    string
	ProjectKey            string
	Mode                  string // "single-file", "entry", or "directory"
	Timestamp             time.Time
	Duration              time.Duration
	FileCount             int
	UnusedImportCount     int
	ImplicitReexportCount int
	CycleCount            int
	FixedCount            int
}
