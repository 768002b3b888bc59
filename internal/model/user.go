package model

import "time"

type UserRole string

const (
	RoleStudent UserRole = "student"
	RoleTutor   UserRole = "tutor"
	RoleAdmin   UserRole = "admin"
)

// ParseRole validates a role name typed by an admin.
func ParseRole(s string) (UserRole, bool) {
	switch r := UserRole(s); r {
	case RoleStudent, RoleTutor, RoleAdmin:
		return r, true
	}
	return "", false
}

type User struct {
	ID           int64     `json:"id"`
	TelegramID   int64     `json:"telegram_id"`
	Username     string    `json:"username"`
	FirstName    string    `json:"first_name"`
	LastName     string    `json:"last_name"`
	LanguageCode string    `json:"language_code"`
	Role         UserRole  `json:"role"`
	IsBlocked    bool      `json:"is_blocked"` // blocked users cannot post or book
	CreatedAt    time.Time `json:"created_at"`
}

func (u *User) IsTutor() bool {
	return u.Role == RoleTutor || u.Role == RoleAdmin
}

func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}
