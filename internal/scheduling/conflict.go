package scheduling

import (
	"errors"
	"time"
)

// Status is the lifecycle state of a scheduled interval.
type Status string

const (
	StatusScheduled Status = "scheduled"
	StatusCancelled Status = "cancelled"
	StatusCompleted Status = "completed"
)

// ErrInvalidInterval is returned when an interval does not start before it ends.
var ErrInvalidInterval = errors.New("interval start must be before end")

// Interval is a half-open time range [Start, End).
type Interval struct {
	Start  time.Time
	End    time.Time
	Status Status
}

// Valid reports whether the interval starts strictly before it ends.
func (i Interval) Valid() bool {
	return i.Start.Before(i.End)
}

// Overlaps reports whether two intervals share any instant.
// Touching endpoints do not overlap. Status is ignored.
func (i Interval) Overlaps(other Interval) bool {
	return i.Start.Before(other.End) && other.Start.Before(i.End)
}

// HasConflict reports whether candidate overlaps any non-cancelled interval
// in existing. The candidate is not validated; see CheckConflict.
func HasConflict(existing []Interval, candidate Interval) bool {
	for _, s := range existing {
		if s.Status == StatusCancelled {
			continue
		}
		if candidate.Overlaps(s) {
			return true
		}
	}
	return false
}

// CheckConflict is HasConflict with the candidate validated first.
func CheckConflict(existing []Interval, candidate Interval) (bool, error) {
	if !candidate.Valid() {
		return false, ErrInvalidInterval
	}
	return HasConflict(existing, candidate), nil
}

// Conflicts returns the non-cancelled intervals of existing that overlap
// candidate, in input order.
func Conflicts(existing []Interval, candidate Interval) []Interval {
	var out []Interval
	for _, s := range existing {
		if s.Status == StatusCancelled {
			continue
		}
		if candidate.Overlaps(s) {
			out = append(out, s)
		}
	}
	return out
}
