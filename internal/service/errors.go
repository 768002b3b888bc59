package service

import (
	"errors"
	"strings"

	"github.com/Freeeeeet/tutor_scheduler/internal/moderation"
	"github.com/Freeeeeet/tutor_scheduler/internal/scheduling"
)

var (
	ErrNotFound           = errors.New("not found")
	ErrForbidden          = errors.New("permission denied")
	ErrBlocked            = errors.New("user is blocked")
	ErrSessionInPast      = errors.New("session is in the past")
	ErrSessionNotBookable = errors.New("session is not open for booking")
	ErrSessionFull        = errors.New("session is full")
	ErrAlreadyBooked      = errors.New("session is already booked")
	ErrBookingNotActive   = errors.New("booking is not active")
	ErrScheduleConflict   = errors.New("schedule conflict")
	ErrAlreadyEnrolled    = errors.New("already enrolled in this course")
	ErrClassFull          = errors.New("class is full")
	ErrNoClassAvailable   = errors.New("no class available for this course")
	ErrCourseInactive     = errors.New("course is not active")
	ErrInvalidVote        = errors.New("vote must be +1 or -1")
	ErrEmptyTitle         = errors.New("title is required")
	ErrInvalidCapacity    = errors.New("capacity must be positive")
	ErrEmptyName          = errors.New("name is required")
)

// ConflictError lists the sessions a requested time range collides with.
// It matches ErrScheduleConflict with errors.Is.
type ConflictError struct {
	Conflicts []scheduling.Interval
}

func (e *ConflictError) Error() string {
	return ErrScheduleConflict.Error()
}

func (e *ConflictError) Unwrap() error {
	return ErrScheduleConflict
}

// ModerationError carries the verdict of rejected forum content.
type ModerationError struct {
	Verdict moderation.Verdict
}

func (e *ModerationError) Error() string {
	return "content rejected: " + strings.Join(e.Verdict.Errors, "; ")
}
