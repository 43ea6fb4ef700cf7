package entity

import "time"

// Log is one stored audit_logs row.
type Log struct {
	ID           int64
	ActorID      *int64
	Action       string
	ResourceType string
	ResourceID   string
	IP           string
	UserAgent    string
	Outcome      string
	Details      map[string]any
	CreatedAt    time.Time
}

// LogFilter narrows a listing. Zero values mean "any".
type LogFilter struct {
	ActorID  int64
	Action   string
	Outcome  string
	DateFrom time.Time
	DateTo   time.Time
	Limit    int32
	Offset   int32
}
