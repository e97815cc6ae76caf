package models

import (
	"fmt"

	set "github.com/deckarep/golang-set/v2"
)

// Status is the workflow state of a bug. Any status may follow any other.
type Status string

const (
	StatusOpen       Status = "open"
	StatusInProgress Status = "in-progress"
	StatusTesting    Status = "testing"
	StatusResolved   Status = "resolved"
	StatusClosed     Status = "closed"
)

// Statuses lists every status in workflow order.
var Statuses = []Status{StatusOpen, StatusInProgress, StatusTesting, StatusResolved, StatusClosed}

var statusSet = set.NewThreadUnsafeSet(Statuses...)

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	return statusSet.Contains(s)
}

// Done reports whether the bug needs no further work.
func (s Status) Done() bool {
	return s == StatusResolved || s == StatusClosed
}

// ParseStatus converts a raw string into a Status.
func ParseStatus(raw string) (Status, error) {
	s := Status(raw)
	if !s.Valid() {
		return "", fmt.Errorf("unknown status %q", raw)
	}
	return s, nil
}

// Priority is the urgency of a bug.
type Priority string

const (
	PriorityLow      Priority = "low"
	PriorityMedium   Priority = "medium"
	PriorityHigh     Priority = "high"
	PriorityCritical Priority = "critical"
)

// Priorities lists every priority from most to least urgent.
var Priorities = []Priority{PriorityCritical, PriorityHigh, PriorityMedium, PriorityLow}

var priorityRank = map[Priority]int{
	PriorityCritical: 4,
	PriorityHigh:     3,
	PriorityMedium:   2,
	PriorityLow:      1,
}

// Rank returns the fixed sort rank of the priority (critical=4 → low=1), or 0 if unknown.
func (p Priority) Rank() int {
	return priorityRank[p]
}

// Valid reports whether p is a known priority.
func (p Priority) Valid() bool {
	return p.Rank() > 0
}

// ParsePriority converts a raw string into a Priority.
func ParsePriority(raw string) (Priority, error) {
	p := Priority(raw)
	if !p.Valid() {
		return "", fmt.Errorf("unknown priority %q", raw)
	}
	return p, nil
}
