package state

import "time"

// UserState is the step a user is at in a multi-message dialog.
type UserState string

const (
	StateNone UserState = ""

	// /post: title first, then body
	StatePostTitle UserState = "post_title"
	StatePostBody  UserState = "post_body"
)

// Data keys used by the dialogs.
const (
	KeyCourseID = "course_id"
	KeyTitle    = "title"
)

// UserData holds a user's dialog step and the values collected so far.
type UserData struct {
	State     UserState
	Data      map[string]interface{}
	UpdatedAt time.Time
}
