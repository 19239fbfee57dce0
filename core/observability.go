package core

import "time"

// Outcome classifies how a navigation ended.
type Outcome string

const (
	OutcomeCompleted  Outcome = "completed"
	OutcomeFailed     Outcome = "failed"
	OutcomeSuperseded Outcome = "superseded"
)

// NavigationRecord captures a finished navigation.
type NavigationRecord struct {
	ID         string
	Seq        uint64
	Path       string
	Outcome    Outcome
	Resumed    bool
	StartedAt  time.Time
	FinishedAt time.Time
	Duration   time.Duration
	Err        error
}

// NavigatorStats represents runtime observability state for a Navigator.
type NavigatorStats struct {
	Name          string
	Status        Status
	Pending       bool
	PendingPath   string
	CurrentPath   string
	CachedActions int
	Started       int64
	Completed     int64
	Failed        int64
	Superseded    int64
	Recoveries    int64
	Replaced      int64
	Closed        bool
	LastPath      string
	LastAt        time.Time
}
