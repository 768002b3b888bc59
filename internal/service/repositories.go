package service

import (
	"context"
	"time"

	"github.com/Freeeeeet/tutor_scheduler/internal/model"
)

// The interfaces below are implemented by the pgx repositories in
// internal/repository and by in-memory fakes in tests.

type UserRepository interface {
	Create(ctx context.Context, user *model.User) error
	GetByTelegramID(ctx context.Context, telegramID int64) (*model.User, error)
	GetByID(ctx context.Context, id int64) (*model.User, error)
	Update(ctx context.Context, user *model.User) error
	List(ctx context.Context, limit, offset int) ([]*model.User, error)
}

type CourseRepository interface {
	Create(ctx context.Context, course *model.Course) error
	GetByID(ctx context.Context, id int64) (*model.Course, error)
	GetActive(ctx context.Context) ([]*model.Course, error)
	GetClassByID(ctx context.Context, id int64) (*model.Class, error)
	GetClassesByCourseID(ctx context.Context, courseID int64) ([]*model.Class, error)
	CreateClass(ctx context.Context, class *model.Class) error
	GetClassesByTutorID(ctx context.Context, tutorID int64) ([]*model.Class, error)
}

type EnrollmentRepository interface {
	CreateWithinCapacity(ctx context.Context, e *model.Enrollment) (bool, error)
	GetByStudentAndCourse(ctx context.Context, studentID, courseID int64) (*model.Enrollment, error)
	GetStudentIDsByClassID(ctx context.Context, classID int64) ([]int64, error)
}

type SessionRepository interface {
	Create(ctx context.Context, s *model.Session) error
	GetByID(ctx context.Context, id int64) (*model.Session, error)
	GetByTutorID(ctx context.Context, tutorID int64, from, to time.Time) ([]*model.Session, error)
	GetBookedByStudentID(ctx context.Context, studentID int64, from, to time.Time) ([]*model.Session, error)
	GetUpcomingByClassID(ctx context.Context, classID int64, now time.Time) ([]*model.Session, error)
	Cancel(ctx context.Context, id int64) (int64, error)
	CompletePast(ctx context.Context, now time.Time) (int64, error)
	GetDueForReminder(ctx context.Context, now time.Time, window time.Duration) ([]*model.Session, error)
	MarkReminded(ctx context.Context, id int64, at time.Time) error
}

type BookingRepository interface {
	CreateWithinCapacity(ctx context.Context, b *model.Booking) (bool, error)
	GetByID(ctx context.Context, id int64) (*model.Booking, error)
	GetActive(ctx context.Context, sessionID, studentID int64) (*model.Booking, error)
	UpdateStatus(ctx context.Context, id int64, status model.BookingStatus) error
	GetActiveStudentIDs(ctx context.Context, sessionID int64) ([]int64, error)
}

type ForumRepository interface {
	CreateThread(ctx context.Context, thread *model.ForumThread, post *model.ForumPost) error
	CreatePost(ctx context.Context, post *model.ForumPost) error
	GetThreadByID(ctx context.Context, id int64) (*model.ForumThread, error)
	ListThreads(ctx context.Context, limit int) ([]*model.ForumThread, error)
	GetPostByID(ctx context.Context, id int64) (*model.ForumPost, error)
	GetPostsByThreadID(ctx context.Context, threadID int64) ([]*model.ForumPost, error)
	GetRecentBodiesByAuthor(ctx context.Context, authorID int64, limit int) ([]string, error)
	GetVote(ctx context.Context, postID, userID int64) (*model.Vote, error)
	UpsertVote(ctx context.Context, v *model.Vote) error
	DeleteVote(ctx context.Context, postID, userID int64) error
}

type NotificationRepository interface {
	Create(ctx context.Context, n *model.Notification) error
	GetUnread(ctx context.Context, userID int64, limit int) ([]*model.Notification, error)
	MarkAllRead(ctx context.Context, userID int64, at time.Time) (int64, error)
}

// HistoryStore keeps an author's recent texts for duplicate detection.
type HistoryStore interface {
	Recent(ctx context.Context, userID int64) ([]string, error)
	Remember(ctx context.Context, userID int64, text string) error
	Forget(ctx context.Context, userID int64) error
}

// Notifier delivers a message to a user's chat.
type Notifier interface {
	Notify(ctx context.Context, telegramID int64, text string) error
}
