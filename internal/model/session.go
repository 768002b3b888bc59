package model

import (
	"time"

	"github.com/Freeeeeet/tutor_scheduler/internal/scheduling"
)

type SessionStatus string

const (
	SessionStatusScheduled SessionStatus = "scheduled"
	SessionStatusCancelled SessionStatus = "cancelled"
	SessionStatusCompleted SessionStatus = "completed"
)

// Session is a single tutoring time slot of a class.
type Session struct {
	ID          int64         `json:"id"`
	ClassID     int64         `json:"class_id"`
	TutorID     int64         `json:"tutor_id"`
	Topic       string        `json:"topic"`
	StartTime   time.Time     `json:"start_time"`
	EndTime     time.Time     `json:"end_time"`
	Status      SessionStatus `json:"status"`
	Capacity    *int          `json:"capacity"` // nil = unlimited
	BookedCount int           `json:"booked_count"`
	CreatedAt   time.Time     `json:"created_at"`

	Class *Class `json:"class,omitempty"`
}

// Interval maps the session onto the conflict checker input.
func (s *Session) Interval() scheduling.Interval {
	return scheduling.Interval{
		Start:  s.StartTime,
		End:    s.EndTime,
		Status: scheduling.Status(s.Status),
	}
}

func (s *Session) IsFull() bool {
	return s.Capacity != nil && s.BookedCount >= *s.Capacity
}

// Intervals maps a session list for the conflict checker.
func Intervals(sessions []*Session) []scheduling.Interval {
	out := make([]scheduling.Interval, 0, len(sessions))
	for _, s := range sessions {
		out = append(out, s.Interval())
	}
	return out
}

type BookingStatus string

const (
	BookingStatusActive    BookingStatus = "active"
	BookingStatusCancelled BookingStatus = "cancelled"
)

type Booking struct {
	ID        int64         `json:"id"`
	SessionID int64         `json:"session_id"`
	StudentID int64         `json:"student_id"`
	Status    BookingStatus `json:"status"`
	CreatedAt time.Time     `json:"created_at"`
	UpdatedAt time.Time     `json:"updated_at"`

	Session *Session `json:"session,omitempty"`
}
