package handlers

import "time"

const (
	// DateTimeLayout is how tutors type session start times.
	DateTimeLayout = "2006-01-02 15:04"
	// DateLayout selects a week for /week.
	DateLayout = "2006-01-02"

	MinSessionMinutes = 15
	MaxSessionMinutes = 480

	TopicMaxLength = 100
	TitleMaxLength = 120

	ThreadListLimit = 15
	UsersPageSize   = 20

	// upcoming window for /sessions
	SessionsHorizon = 14 * 24 * time.Hour
)
