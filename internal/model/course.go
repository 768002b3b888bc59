package model

import (
	"time"

	"github.com/Freeeeeet/tutor_scheduler/internal/enrollment"
)

// Course is a subject offered at the university, e.g. "Calculus I".
type Course struct {
	ID          int64     `json:"id"`
	Code        string    `json:"code"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	IsActive    bool      `json:"is_active"`
	CreatedAt   time.Time `json:"created_at"`
}

// Class is one recurring offering of a course led by a single tutor.
type Class struct {
	ID            int64     `json:"id"`
	CourseID      int64     `json:"course_id"`
	TutorID       int64     `json:"tutor_id"`
	Name          string    `json:"name"`
	Capacity      *int      `json:"capacity"` // nil = unlimited seats
	EnrolledCount int       `json:"enrolled_count"`
	CreatedAt     time.Time `json:"created_at"`
}

// Candidate maps the class onto the auto-assignment input.
func (c *Class) Candidate() enrollment.Candidate {
	return enrollment.Candidate{
		ID:            c.ID,
		Capacity:      c.Capacity,
		EnrolledCount: c.EnrolledCount,
	}
}

// IsFull reports whether a bounded class has no free seats left.
func (c *Class) IsFull() bool {
	return c.Capacity != nil && c.EnrolledCount >= *c.Capacity
}

type Enrollment struct {
	ID        int64     `json:"id"`
	ClassID   int64     `json:"class_id"`
	CourseID  int64     `json:"course_id"`
	StudentID int64     `json:"student_id"`
	CreatedAt time.Time `json:"created_at"`
}
