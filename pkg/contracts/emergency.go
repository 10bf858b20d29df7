package contracts

import "time"

// CriticalReport is a timestamped emergency-grade signal from a
// watchdog about a subject. Reports are ephemeral for counting
// purposes: only those inside the validity window contribute to a
// subject's live total, and the live total is always re-derived from
// timestamps, never kept as a decaying counter.
type CriticalReport struct {
	Reporter   string    `json:"reporter"`
	Subject    string    `json:"subject"`
	ReportedAt time.Time `json:"reported_at"`
}

// EmergencyState is a read-only snapshot of a subject's circuit
// breaker: whether it is paused and how many reports are currently
// live inside the window.
type EmergencyState struct {
	Subject     string           `json:"subject"`
	Paused      bool             `json:"paused"`
	LiveReports []CriticalReport `json:"live_reports"`
	WindowEnd   time.Time        `json:"window_end"` // snapshot time
}

// PauseEpisode records one automatic pause, from trigger to clear.
// Kept for post-incident review; a fresh burst of reports after a
// clear opens a new episode.
type PauseEpisode struct {
	Subject     string     `json:"subject"`
	TriggeredAt time.Time  `json:"triggered_at"`
	ReportCount int        `json:"report_count"` // live count at trigger
	ClearedAt   *time.Time `json:"cleared_at,omitempty"`
	ClearedBy   string     `json:"cleared_by,omitempty"`
}
