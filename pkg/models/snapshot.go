package models

import "time"

// StaleAfter is the age beyond which a snapshot is considered stale.
const StaleAfter = 24 * time.Hour

// Snapshot is a cached AnalysisRecord plus the time it was saved.
// Age and Stale are derived at read time against the caller's clock.
type Snapshot struct {
	Record  AnalysisRecord `json:"record"`
	SavedAt time.Time      `json:"saved_at"`
	Age     time.Duration  `json:"-"`
	Stale   bool           `json:"stale"`
	// Legacy is set when the payload was a bare record without a save timestamp.
	Legacy bool `json:"legacy"`
}

// AgeMs returns Age in whole milliseconds.
func (s Snapshot) AgeMs() int64 {
	return s.Age.Milliseconds()
}
