package model

import "time"

type NotificationKind string

const (
	NotificationSessionScheduled NotificationKind = "session_scheduled"
	NotificationSessionBooked    NotificationKind = "session_booked"
	NotificationSessionCancelled NotificationKind = "session_cancelled"
	NotificationSessionReminder  NotificationKind = "session_reminder"
	NotificationEnrolled         NotificationKind = "enrolled"
	NotificationForumReply       NotificationKind = "forum_reply"
)

type Notification struct {
	ID        int64            `json:"id"`
	UserID    int64            `json:"user_id"`
	Kind      NotificationKind `json:"kind"`
	Text      string           `json:"text"`
	ReadAt    *time.Time       `json:"read_at"` // nil = unread
	CreatedAt time.Time        `json:"created_at"`
}
