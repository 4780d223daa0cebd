package domain

import "time"

// EventStatus is the coarse state tag attached to every logged event.
type EventStatus string

// The closed status vocabulary. Writers coerce anything else to
// StatusWork rather than dropping the event.
const (
	StatusWork    EventStatus = "work"
	StatusDown    EventStatus = "down"
	StatusChange  EventStatus = "change"
	StatusWarning EventStatus = "warning"
	StatusDone    EventStatus = "done"
	StatusSuccess EventStatus = "success"
	StatusInfo    EventStatus = "info"
)

// ValidStatus reports whether s is in the allowed set.
func ValidStatus(s EventStatus) bool {
	switch s {
	case StatusWork, StatusDown, StatusChange, StatusWarning, StatusDone, StatusSuccess, StatusInfo:
		return true
	}
	return false
}

// Event is one structured record in the persistent event log: request
// start, chunk failure, synthesis failure, overall success or failure.
type Event struct {
	ID        int64
	Source    string
	Level     string
	Status    EventStatus
	RequestID string
	ByUser    string
	Things    string
	Remark    string
	Reason    string
	Meta      map[string]any
	CreatedAt time.Time
}
