package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/Freeeeeet/tutor_scheduler/internal/model"
	"go.uber.org/zap"
)

// In-memory repositories used by the service tests.

type fakeUsers struct {
	mu     sync.Mutex
	nextID int64
	byID   map[int64]*model.User
}

func newFakeUsers(users ...*model.User) *fakeUsers {
	f := &fakeUsers{byID: map[int64]*model.User{}}
	for _, u := range users {
		f.byID[u.ID] = u
		if u.ID > f.nextID {
			f.nextID = u.ID
		}
	}
	return f
}

func (f *fakeUsers) Create(_ context.Context, u *model.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	u.ID = f.nextID
	f.byID[u.ID] = u
	return nil
}

func (f *fakeUsers) GetByTelegramID(_ context.Context, telegramID int64) (*model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.byID {
		if u.TelegramID == telegramID {
			return u, nil
		}
	}
	return nil, nil
}

func (f *fakeUsers) GetByID(_ context.Context, id int64) (*model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.byID[id], nil
}

func (f *fakeUsers) Update(_ context.Context, u *model.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.byID[u.ID] = u
	return nil
}

func (f *fakeUsers) List(_ context.Context, limit, offset int) ([]*model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*model.User
	for id := int64(1); id <= f.nextID; id++ {
		if u, ok := f.byID[id]; ok {
			out = append(out, u)
		}
	}
	if offset >= len(out) {
		return nil, nil
	}
	out = out[offset:]
	if limit < len(out) {
		out = out[:limit]
	}
	return out, nil
}

type fakeCourses struct {
	courses map[int64]*model.Course
	classes []*model.Class
}

func (f *fakeCourses) Create(_ context.Context, c *model.Course) error {
	if f.courses == nil {
		f.courses = map[int64]*model.Course{}
	}
	c.ID = int64(len(f.courses) + 1)
	f.courses[c.ID] = c
	return nil
}

func (f *fakeCourses) CreateClass(_ context.Context, c *model.Class) error {
	c.ID = int64(100 + len(f.classes))
	f.classes = append(f.classes, c)
	return nil
}

func (f *fakeCourses) GetClassesByTutorID(_ context.Context, tutorID int64) ([]*model.Class, error) {
	var out []*model.Class
	for _, c := range f.classes {
		if c.TutorID == tutorID {
			out = append(out, c)
		}
	}
	return out, nil
}

func (f *fakeCourses) GetByID(_ context.Context, id int64) (*model.Course, error) {
	return f.courses[id], nil
}

func (f *fakeCourses) GetActive(_ context.Context) ([]*model.Course, error) {
	var out []*model.Course
	for _, c := range f.courses {
		if c.IsActive {
			out = append(out, c)
		}
	}
	return out, nil
}

func (f *fakeCourses) GetClassByID(_ context.Context, id int64) (*model.Class, error) {
	for _, c := range f.classes {
		if c.ID == id {
			cp := *c
			return &cp, nil
		}
	}
	return nil, nil
}

func (f *fakeCourses) GetClassesByCourseID(_ context.Context, courseID int64) ([]*model.Class, error) {
	var out []*model.Class
	for _, c := range f.classes {
		if c.CourseID == courseID {
			cp := *c
			out = append(out, &cp)
		}
	}
	return out, nil
}

type fakeEnrollments struct {
	courses *fakeCourses
	rows    []*model.Enrollment
	// filled simulates a class reaching capacity between read and insert.
	filled map[int64]bool
	// raced simulates a parallel request enrolling the student first.
	raced map[int64]bool
}

func (f *fakeEnrollments) CreateWithinCapacity(_ context.Context, e *model.Enrollment) (bool, error) {
	if f.filled[e.ClassID] {
		return false, nil
	}
	if f.raced[e.StudentID] {
		return false, model.ErrDuplicate
	}
	for _, c := range f.courses.classes {
		if c.ID != e.ClassID {
			continue
		}
		if c.Capacity != nil && c.EnrolledCount >= *c.Capacity {
			return false, nil
		}
		e.CourseID = c.CourseID
		c.EnrolledCount++
	}
	e.ID = int64(len(f.rows) + 1)
	f.rows = append(f.rows, e)
	return true, nil
}

func (f *fakeEnrollments) GetByStudentAndCourse(_ context.Context, studentID, courseID int64) (*model.Enrollment, error) {
	for _, e := range f.rows {
		if e.StudentID != studentID {
			continue
		}
		for _, c := range f.courses.classes {
			if c.ID == e.ClassID && c.CourseID == courseID {
				return e, nil
			}
		}
	}
	return nil, nil
}

func (f *fakeEnrollments) GetStudentIDsByClassID(_ context.Context, classID int64) ([]int64, error) {
	var out []int64
	for _, e := range f.rows {
		if e.ClassID == classID {
			out = append(out, e.StudentID)
		}
	}
	return out, nil
}

type fakeSessions struct {
	rows     map[int64]*model.Session
	bookings *fakeBookings
	reminded map[int64]bool
	nextID   int64

	cancelErr error
}

func newFakeSessions(bookings *fakeBookings, sessions ...*model.Session) *fakeSessions {
	f := &fakeSessions{rows: map[int64]*model.Session{}, bookings: bookings, reminded: map[int64]bool{}}
	for _, s := range sessions {
		f.rows[s.ID] = s
		if s.ID > f.nextID {
			f.nextID = s.ID
		}
	}
	bookings.sessions = f
	return f
}

func (f *fakeSessions) Create(_ context.Context, s *model.Session) error {
	f.nextID++
	s.ID = f.nextID
	f.rows[s.ID] = s
	return nil
}

func (f *fakeSessions) GetByID(_ context.Context, id int64) (*model.Session, error) {
	return f.rows[id], nil
}

func overlapsRange(s *model.Session, from, to time.Time) bool {
	return s.StartTime.Before(to) && from.Before(s.EndTime)
}

func (f *fakeSessions) GetByTutorID(_ context.Context, tutorID int64, from, to time.Time) ([]*model.Session, error) {
	var out []*model.Session
	for _, s := range f.rows {
		if s.TutorID == tutorID && overlapsRange(s, from, to) {
			out = append(out, s)
		}
	}
	return out, nil
}

func (f *fakeSessions) GetBookedByStudentID(_ context.Context, studentID int64, from, to time.Time) ([]*model.Session, error) {
	var out []*model.Session
	for _, b := range f.bookings.rows {
		if b.StudentID != studentID || b.Status != model.BookingStatusActive {
			continue
		}
		if s := f.rows[b.SessionID]; s != nil && overlapsRange(s, from, to) {
			out = append(out, s)
		}
	}
	return out, nil
}

func (f *fakeSessions) GetUpcomingByClassID(_ context.Context, classID int64, now time.Time) ([]*model.Session, error) {
	var out []*model.Session
	for _, s := range f.rows {
		if s.ClassID == classID && s.Status == model.SessionStatusScheduled && s.StartTime.After(now) {
			out = append(out, s)
		}
	}
	return out, nil
}

// Cancel applies both updates only when cancelErr is unset, like the
// transactional repository.
func (f *fakeSessions) Cancel(_ context.Context, id int64) (int64, error) {
	if f.cancelErr != nil {
		return 0, f.cancelErr
	}
	s := f.rows[id]
	if s == nil || s.Status != model.SessionStatusScheduled {
		return 0, fmt.Errorf("session %d is not scheduled", id)
	}
	s.Status = model.SessionStatusCancelled

	var n int64
	for _, b := range f.bookings.rows {
		if b.SessionID == id && b.Status == model.BookingStatusActive {
			b.Status = model.BookingStatusCancelled
			n++
		}
	}
	return n, nil
}

func (f *fakeSessions) CompletePast(_ context.Context, now time.Time) (int64, error) {
	var n int64
	for _, s := range f.rows {
		if s.Status == model.SessionStatusScheduled && !s.EndTime.After(now) {
			s.Status = model.SessionStatusCompleted
			n++
		}
	}
	return n, nil
}

func (f *fakeSessions) GetDueForReminder(_ context.Context, now time.Time, window time.Duration) ([]*model.Session, error) {
	var out []*model.Session
	for _, s := range f.rows {
		if f.reminded[s.ID] {
			continue
		}
		if s.Status == model.SessionStatusScheduled && s.StartTime.After(now) && !s.StartTime.After(now.Add(window)) {
			out = append(out, s)
		}
	}
	return out, nil
}

func (f *fakeSessions) MarkReminded(_ context.Context, id int64, _ time.Time) error {
	f.reminded[id] = true
	return nil
}

type fakeBookings struct {
	sessions *fakeSessions
	rows     map[int64]*model.Booking
	nextID   int64
	// raced simulates a parallel request booking for the student first.
	raced map[int64]bool
}

func newFakeBookings() *fakeBookings {
	return &fakeBookings{rows: map[int64]*model.Booking{}}
}

func (f *fakeBookings) CreateWithinCapacity(_ context.Context, b *model.Booking) (bool, error) {
	if f.raced[b.StudentID] {
		return false, model.ErrDuplicate
	}
	s := f.sessions.rows[b.SessionID]
	if s.Capacity != nil && s.BookedCount >= *s.Capacity {
		return false, nil
	}
	s.BookedCount++
	f.nextID++
	b.ID = f.nextID
	b.Status = model.BookingStatusActive
	f.rows[b.ID] = b
	return true, nil
}

func (f *fakeBookings) GetByID(_ context.Context, id int64) (*model.Booking, error) {
	return f.rows[id], nil
}

func (f *fakeBookings) GetActive(_ context.Context, sessionID, studentID int64) (*model.Booking, error) {
	for _, b := range f.rows {
		if b.SessionID == sessionID && b.StudentID == studentID && b.Status == model.BookingStatusActive {
			return b, nil
		}
	}
	return nil, nil
}

func (f *fakeBookings) UpdateStatus(_ context.Context, id int64, status model.BookingStatus) error {
	f.rows[id].Status = status
	return nil
}

func (f *fakeBookings) GetActiveStudentIDs(_ context.Context, sessionID int64) ([]int64, error) {
	var out []int64
	for id := int64(1); id <= f.nextID; id++ {
		b := f.rows[id]
		if b != nil && b.SessionID == sessionID && b.Status == model.BookingStatusActive {
			out = append(out, b.StudentID)
		}
	}
	return out, nil
}

type fakeForum struct {
	threads []*model.ForumThread
	posts   []*model.ForumPost
	votes   map[[2]int64]int
}

func newFakeForum() *fakeForum {
	return &fakeForum{votes: map[[2]int64]int{}}
}

func (f *fakeForum) CreateThread(ctx context.Context, t *model.ForumThread, p *model.ForumPost) error {
	t.ID = int64(len(f.threads) + 1)
	f.threads = append(f.threads, t)
	p.ThreadID = t.ID
	return f.CreatePost(ctx, p)
}

func (f *fakeForum) CreatePost(_ context.Context, p *model.ForumPost) error {
	p.ID = int64(len(f.posts) + 1)
	f.posts = append(f.posts, p)
	return nil
}

func (f *fakeForum) GetThreadByID(_ context.Context, id int64) (*model.ForumThread, error) {
	for _, t := range f.threads {
		if t.ID == id {
			return t, nil
		}
	}
	return nil, nil
}

func (f *fakeForum) ListThreads(_ context.Context, limit int) ([]*model.ForumThread, error) {
	if limit < len(f.threads) {
		return f.threads[:limit], nil
	}
	return f.threads, nil
}

func (f *fakeForum) score(postID int64) int {
	total := 0
	for k, v := range f.votes {
		if k[0] == postID {
			total += v
		}
	}
	return total
}

func (f *fakeForum) GetPostByID(_ context.Context, id int64) (*model.ForumPost, error) {
	for _, p := range f.posts {
		if p.ID == id {
			cp := *p
			cp.Score = f.score(id)
			return &cp, nil
		}
	}
	return nil, nil
}

func (f *fakeForum) GetPostsByThreadID(_ context.Context, threadID int64) ([]*model.ForumPost, error) {
	var out []*model.ForumPost
	for _, p := range f.posts {
		if p.ThreadID == threadID {
			cp := *p
			cp.Score = f.score(p.ID)
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (f *fakeForum) GetRecentBodiesByAuthor(_ context.Context, authorID int64, limit int) ([]string, error) {
	var out []string
	for i := len(f.posts) - 1; i >= 0 && len(out) < limit; i-- {
		if f.posts[i].AuthorID == authorID {
			out = append(out, f.posts[i].Body)
		}
	}
	return out, nil
}

func (f *fakeForum) GetVote(_ context.Context, postID, userID int64) (*model.Vote, error) {
	v, ok := f.votes[[2]int64{postID, userID}]
	if !ok {
		return nil, nil
	}
	return &model.Vote{PostID: postID, UserID: userID, Value: v}, nil
}

func (f *fakeForum) UpsertVote(_ context.Context, v *model.Vote) error {
	f.votes[[2]int64{v.PostID, v.UserID}] = v.Value
	return nil
}

func (f *fakeForum) DeleteVote(_ context.Context, postID, userID int64) error {
	delete(f.votes, [2]int64{postID, userID})
	return nil
}

type fakeNotifications struct {
	rows []*model.Notification
}

func (f *fakeNotifications) Create(_ context.Context, n *model.Notification) error {
	n.ID = int64(len(f.rows) + 1)
	f.rows = append(f.rows, n)
	return nil
}

func (f *fakeNotifications) GetUnread(_ context.Context, userID int64, limit int) ([]*model.Notification, error) {
	var out []*model.Notification
	for _, n := range f.rows {
		if n.UserID == userID && n.ReadAt == nil && len(out) < limit {
			out = append(out, n)
		}
	}
	return out, nil
}

func (f *fakeNotifications) MarkAllRead(_ context.Context, userID int64, at time.Time) (int64, error) {
	var n int64
	for _, row := range f.rows {
		if row.UserID == userID && row.ReadAt == nil {
			row.ReadAt = &at
			n++
		}
	}
	return n, nil
}

func (f *fakeNotifications) kinds(userID int64) []model.NotificationKind {
	var out []model.NotificationKind
	for _, n := range f.rows {
		if n.UserID == userID {
			out = append(out, n.Kind)
		}
	}
	return out
}

type fakeHistory struct {
	texts map[int64][]string
	err   error
}

func (f *fakeHistory) Recent(_ context.Context, userID int64) ([]string, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.texts[userID], nil
}

func (f *fakeHistory) Remember(_ context.Context, userID int64, text string) error {
	if f.err != nil {
		return f.err
	}
	f.texts[userID] = append([]string{text}, f.texts[userID]...)
	return nil
}

func (f *fakeHistory) Forget(_ context.Context, userID int64) error {
	if f.err != nil {
		return f.err
	}
	delete(f.texts, userID)
	return nil
}

type fakeNotifier struct {
	sent map[int64][]string
	err  error
}

func (f *fakeNotifier) Notify(_ context.Context, telegramID int64, text string) error {
	if f.err != nil {
		return f.err
	}
	if f.sent == nil {
		f.sent = map[int64][]string{}
	}
	f.sent[telegramID] = append(f.sent[telegramID], text)
	return nil
}

var errUnavailable = errors.New("unavailable")

func intPtr(n int) *int { return &n }

func testLogger() *zap.Logger { return zap.NewNop() }
