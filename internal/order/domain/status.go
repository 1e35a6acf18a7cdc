package domain

import "strings"

// Status is the service order lifecycle state. Completed and Cancelled are
// terminal; nothing transitions out of them.
type Status string

const (
	StatusScheduled  Status = "Scheduled"
	StatusInProgress Status = "InProgress"
	StatusCompleted  Status = "Completed"
	StatusCancelled  Status = "Cancelled"
)

var transitions = map[Status][]Status{
	StatusScheduled:  {StatusInProgress, StatusCancelled},
	StatusInProgress: {StatusCompleted, StatusCancelled},
	StatusCompleted:  {},
	StatusCancelled:  {},
}

func ParseStatus(s string) (Status, bool) {
	switch Status(strings.TrimSpace(s)) {
	case StatusScheduled:
		return StatusScheduled, true
	case StatusInProgress:
		return StatusInProgress, true
	case StatusCompleted:
		return StatusCompleted, true
	case StatusCancelled:
		return StatusCancelled, true
	}
	return "", false
}

func (s Status) IsTerminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

// CanTransition reports whether moving from s to target is allowed.
func (s Status) CanTransition(target Status) bool {
	for _, next := range transitions[s] {
		if next == target {
			return true
		}
	}
	return false
}
