package model

import (
	"time"

	"github.com/google/uuid"
)

// ForumThread is a discussion started in a course forum.
type ForumThread struct {
	ID        int64     `json:"id"`
	PublicID  uuid.UUID `json:"public_id"`
	CourseID  *int64    `json:"course_id"` // nil = general forum
	AuthorID  int64     `json:"author_id"`
	Title     string    `json:"title"`
	CreatedAt time.Time `json:"created_at"`
}

// ForumPost is the opening post or a reply in a thread.
type ForumPost struct {
	ID        int64     `json:"id"`
	ThreadID  int64     `json:"thread_id"`
	AuthorID  int64     `json:"author_id"`
	Body      string    `json:"body"`
	Score     int       `json:"score"` // sum of vote values
	CreatedAt time.Time `json:"created_at"`
}

// Vote values.
const (
	VoteUp   = 1
	VoteDown = -1
)

type Vote struct {
	PostID int64 `json:"post_id"`
	UserID int64 `json:"user_id"`
	Value  int   `json:"value"`
}
