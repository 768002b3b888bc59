package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Freeeeeet/tutor_scheduler/internal/model"
	"github.com/Freeeeeet/tutor_scheduler/internal/scheduling"
)

var baseNow = time.Date(2025, 3, 10, 8, 0, 0, 0, time.UTC)

type scheduleFixture struct {
	svc       *ScheduleService
	sessions  *fakeSessions
	bookings  *fakeBookings
	notes     *fakeNotifications
	notifier  *fakeNotifier
	tutor     *model.User
	student   *model.User
	classroom *model.Class
}

func newScheduleFixture(sessions ...*model.Session) *scheduleFixture {
	tutor := &model.User{ID: 1, TelegramID: 100, Username: "tutor", Role: model.RoleTutor}
	student := &model.User{ID: 2, TelegramID: 200, FirstName: "Ann", Role: model.RoleStudent}
	other := &model.User{ID: 3, TelegramID: 300, Role: model.RoleStudent}
	class := &model.Class{ID: 10, CourseID: 1, TutorID: tutor.ID, Name: "A"}

	users := newFakeUsers(tutor, student, other)
	courses := &fakeCourses{
		courses: map[int64]*model.Course{1: {ID: 1, Name: "Calculus", IsActive: true}},
		classes: []*model.Class{class},
	}
	bookings := newFakeBookings()
	sessionRepo := newFakeSessions(bookings, sessions...)
	enrollments := &fakeEnrollments{
		courses: courses,
		rows:    []*model.Enrollment{{ID: 1, ClassID: class.ID, StudentID: other.ID}},
	}
	notes := &fakeNotifications{}
	notifier := &fakeNotifier{}

	ns := NewNotificationService(notes, users, testLogger())
	ns.SetNotifier(notifier)
	svc := NewScheduleService(users, courses, enrollments, sessionRepo, bookings, ns, testLogger())
	svc.now = func() time.Time { return baseNow }

	return &scheduleFixture{
		svc:       svc,
		sessions:  sessionRepo,
		bookings:  bookings,
		notes:     notes,
		notifier:  notifier,
		tutor:     tutor,
		student:   student,
		classroom: class,
	}
}

func newSession(id, tutorID int64, startHour, endHour int, status model.SessionStatus) *model.Session {
	return &model.Session{
		ID:        id,
		ClassID:   10,
		TutorID:   tutorID,
		Topic:     "Limits",
		StartTime: baseNow.Add(time.Duration(startHour) * time.Hour),
		EndTime:   baseNow.Add(time.Duration(endHour) * time.Hour),
		Status:    status,
	}
}

func TestCreateSession(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name     string
		existing []*model.Session
		start    time.Time
		duration time.Duration
		wantErr  error
	}{
		{
			name:     "free slot",
			start:    baseNow.Add(2 * time.Hour),
			duration: time.Hour,
		},
		{
			name:     "touching previous session",
			existing: []*model.Session{newSession(1, 1, 1, 2, model.SessionStatusScheduled)},
			start:    baseNow.Add(2 * time.Hour),
			duration: time.Hour,
		},
		{
			name:     "overlaps own session",
			existing: []*model.Session{newSession(1, 1, 2, 4, model.SessionStatusScheduled)},
			start:    baseNow.Add(3 * time.Hour),
			duration: time.Hour,
			wantErr:  ErrScheduleConflict,
		},
		{
			name:     "overlap with cancelled session ignored",
			existing: []*model.Session{newSession(1, 1, 2, 4, model.SessionStatusCancelled)},
			start:    baseNow.Add(3 * time.Hour),
			duration: time.Hour,
		},
		{
			name:     "zero duration",
			start:    baseNow.Add(3 * time.Hour),
			duration: 0,
			wantErr:  scheduling.ErrInvalidInterval,
		},
		{
			name:     "in the past",
			start:    baseNow.Add(-time.Hour),
			duration: time.Hour,
			wantErr:  ErrSessionInPast,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newScheduleFixture(tt.existing...)

			s, err := f.svc.CreateSession(ctx, f.tutor.ID, f.classroom.ID, "Derivatives", tt.start, tt.duration, nil)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("CreateSession() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("CreateSession() unexpected error: %v", err)
			}
			if s.ID == 0 || s.Status != model.SessionStatusScheduled {
				t.Errorf("CreateSession() = %+v, want stored scheduled session", s)
			}
		})
	}
}

func TestCreateSession_NotifiesClassStudents(t *testing.T) {
	f := newScheduleFixture()
	ctx := context.Background()

	s, err := f.svc.CreateSession(ctx, f.tutor.ID, f.classroom.ID, "Series", baseNow.Add(24*time.Hour), time.Hour, intPtr(5))
	if err != nil {
		t.Fatalf("CreateSession() error: %v", err)
	}

	if kinds := f.notes.kinds(3); len(kinds) != 1 || kinds[0] != model.NotificationSessionScheduled {
		t.Errorf("enrolled student notifications = %v", kinds)
	}

	upcoming, err := f.svc.ClassSessions(ctx, f.classroom.ID)
	if err != nil || len(upcoming) != 1 || upcoming[0].ID != s.ID {
		t.Errorf("ClassSessions() = %v, %v", upcoming, err)
	}

	if _, err := f.svc.CreateSession(ctx, f.tutor.ID, f.classroom.ID, "x", baseNow.Add(48*time.Hour), time.Hour, intPtr(0)); !errors.Is(err, ErrInvalidCapacity) {
		t.Errorf("CreateSession() zero capacity error = %v, want ErrInvalidCapacity", err)
	}
}

func TestCreateSession_ConflictDetails(t *testing.T) {
	f := newScheduleFixture(newSession(1, 1, 2, 4, model.SessionStatusScheduled))

	_, err := f.svc.CreateSession(context.Background(), f.tutor.ID, f.classroom.ID, "x", baseNow.Add(3*time.Hour), time.Hour, nil)

	var ce *ConflictError
	if !errors.As(err, &ce) {
		t.Fatalf("error = %v, want *ConflictError", err)
	}
	if len(ce.Conflicts) != 1 || !ce.Conflicts[0].Start.Equal(baseNow.Add(2*time.Hour)) {
		t.Errorf("Conflicts = %+v", ce.Conflicts)
	}
}

func TestCreateSession_RequiresTutor(t *testing.T) {
	f := newScheduleFixture()

	_, err := f.svc.CreateSession(context.Background(), f.student.ID, f.classroom.ID, "x", baseNow.Add(time.Hour), time.Hour, nil)
	if !errors.Is(err, ErrForbidden) {
		t.Fatalf("error = %v, want ErrForbidden", err)
	}
}

func TestBookSession(t *testing.T) {
	target := newSession(1, 1, 2, 3, model.SessionStatusScheduled)
	f := newScheduleFixture(target)

	b, err := f.svc.BookSession(context.Background(), f.student.ID, target.ID)
	if err != nil {
		t.Fatalf("BookSession() error: %v", err)
	}
	if b.Status != model.BookingStatusActive {
		t.Errorf("booking status = %q, want active", b.Status)
	}

	kinds := f.notes.kinds(f.tutor.ID)
	if len(kinds) != 1 || kinds[0] != model.NotificationSessionBooked {
		t.Errorf("tutor notifications = %v", kinds)
	}
	if len(f.notifier.sent[f.tutor.TelegramID]) != 1 {
		t.Errorf("tutor chat messages = %v", f.notifier.sent)
	}

	if _, err := f.svc.BookSession(context.Background(), f.student.ID, target.ID); !errors.Is(err, ErrAlreadyBooked) {
		t.Errorf("second BookSession() error = %v, want ErrAlreadyBooked", err)
	}
}

func TestBookSession_Rejections(t *testing.T) {
	tests := []struct {
		name    string
		setup   func(f *scheduleFixture) int64
		wantErr error
	}{
		{
			name: "full",
			setup: func(f *scheduleFixture) int64 {
				s := newSession(1, 1, 2, 3, model.SessionStatusScheduled)
				s.Capacity = intPtr(1)
				s.BookedCount = 1
				f.sessions.rows[s.ID] = s
				return s.ID
			},
			wantErr: ErrSessionFull,
		},
		{
			name: "conflicts with booked session",
			setup: func(f *scheduleFixture) int64 {
				booked := newSession(1, 5, 2, 4, model.SessionStatusScheduled)
				target := newSession(2, 1, 3, 5, model.SessionStatusScheduled)
				f.sessions.rows[booked.ID] = booked
				f.sessions.rows[target.ID] = target
				f.bookings.rows[1] = &model.Booking{ID: 1, SessionID: booked.ID, StudentID: f.student.ID, Status: model.BookingStatusActive}
				f.bookings.nextID = 1
				return target.ID
			},
			wantErr: ErrScheduleConflict,
		},
		{
			name: "cancelled session",
			setup: func(f *scheduleFixture) int64 {
				s := newSession(1, 1, 2, 3, model.SessionStatusCancelled)
				f.sessions.rows[s.ID] = s
				return s.ID
			},
			wantErr: ErrSessionNotBookable,
		},
		{
			name: "already started",
			setup: func(f *scheduleFixture) int64 {
				s := newSession(1, 1, 0, 1, model.SessionStatusScheduled)
				f.sessions.rows[s.ID] = s
				return s.ID
			},
			wantErr: ErrSessionInPast,
		},
		{
			name: "blocked student",
			setup: func(f *scheduleFixture) int64 {
				f.student.IsBlocked = true
				s := newSession(1, 1, 2, 3, model.SessionStatusScheduled)
				f.sessions.rows[s.ID] = s
				return s.ID
			},
			wantErr: ErrBlocked,
		},
		{
			name:    "unknown session",
			setup:   func(f *scheduleFixture) int64 { return 42 },
			wantErr: ErrNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newScheduleFixture()
			id := tt.setup(f)

			_, err := f.svc.BookSession(context.Background(), f.student.ID, id)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("BookSession() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestCancelSession_NotifiesStudents(t *testing.T) {
	target := newSession(1, 1, 2, 3, model.SessionStatusScheduled)
	f := newScheduleFixture(target)
	ctx := context.Background()

	if _, err := f.svc.BookSession(ctx, f.student.ID, target.ID); err != nil {
		t.Fatalf("BookSession() error: %v", err)
	}

	if err := f.svc.CancelSession(ctx, f.student.ID, target.ID); !errors.Is(err, ErrForbidden) {
		t.Errorf("CancelSession() by student error = %v, want ErrForbidden", err)
	}

	if err := f.svc.CancelSession(ctx, f.tutor.ID, target.ID); err != nil {
		t.Fatalf("CancelSession() error: %v", err)
	}
	if target.Status != model.SessionStatusCancelled {
		t.Errorf("session status = %q, want cancelled", target.Status)
	}
	for _, b := range f.bookings.rows {
		if b.Status != model.BookingStatusCancelled {
			t.Errorf("booking %d status = %q, want cancelled", b.ID, b.Status)
		}
	}

	kinds := f.notes.kinds(f.student.ID)
	if len(kinds) != 1 || kinds[0] != model.NotificationSessionCancelled {
		t.Errorf("student notifications = %v", kinds)
	}
}

func TestCancelSession_FailedWriteLeavesSessionOpen(t *testing.T) {
	target := newSession(1, 1, 2, 3, model.SessionStatusScheduled)
	f := newScheduleFixture(target)
	ctx := context.Background()

	b, err := f.svc.BookSession(ctx, f.student.ID, target.ID)
	if err != nil {
		t.Fatalf("BookSession() error: %v", err)
	}

	f.sessions.cancelErr = errUnavailable
	if err := f.svc.CancelSession(ctx, f.tutor.ID, target.ID); !errors.Is(err, errUnavailable) {
		t.Fatalf("CancelSession() error = %v, want errUnavailable", err)
	}
	if target.Status != model.SessionStatusScheduled {
		t.Errorf("session status after failure = %q, want scheduled", target.Status)
	}
	if b.Status != model.BookingStatusActive {
		t.Errorf("booking status after failure = %q, want active", b.Status)
	}
	if kinds := f.notes.kinds(f.student.ID); len(kinds) != 0 {
		t.Errorf("notifications after failure = %v, want none", kinds)
	}

	f.sessions.cancelErr = nil
	if err := f.svc.CancelSession(ctx, f.tutor.ID, target.ID); err != nil {
		t.Fatalf("CancelSession() retry error: %v", err)
	}
	if target.Status != model.SessionStatusCancelled || b.Status != model.BookingStatusCancelled {
		t.Errorf("after retry session = %q, booking = %q", target.Status, b.Status)
	}
	kinds := f.notes.kinds(f.student.ID)
	if len(kinds) != 1 || kinds[0] != model.NotificationSessionCancelled {
		t.Errorf("student notifications after retry = %v", kinds)
	}
}

func TestBookSession_ParallelDuplicate(t *testing.T) {
	target := newSession(1, 1, 2, 3, model.SessionStatusScheduled)
	f := newScheduleFixture(target)
	f.bookings.raced = map[int64]bool{f.student.ID: true}

	if _, err := f.svc.BookSession(context.Background(), f.student.ID, target.ID); !errors.Is(err, ErrAlreadyBooked) {
		t.Errorf("BookSession() error = %v, want ErrAlreadyBooked", err)
	}
	if len(f.bookings.rows) != 0 {
		t.Errorf("bookings = %d, want 0", len(f.bookings.rows))
	}
}

func TestCancelBooking_Permissions(t *testing.T) {
	target := newSession(1, 1, 2, 3, model.SessionStatusScheduled)
	f := newScheduleFixture(target)
	ctx := context.Background()

	b, err := f.svc.BookSession(ctx, f.student.ID, target.ID)
	if err != nil {
		t.Fatalf("BookSession() error: %v", err)
	}

	if err := f.svc.CancelBooking(ctx, 3, b.ID); !errors.Is(err, ErrForbidden) {
		t.Errorf("CancelBooking() by stranger error = %v, want ErrForbidden", err)
	}
	if err := f.svc.CancelBooking(ctx, f.tutor.ID, b.ID); err != nil {
		t.Fatalf("CancelBooking() by tutor error: %v", err)
	}
	if err := f.svc.CancelBooking(ctx, f.student.ID, b.ID); !errors.Is(err, ErrBookingNotActive) {
		t.Errorf("CancelBooking() twice error = %v, want ErrBookingNotActive", err)
	}
}

func TestCompletePastSessions(t *testing.T) {
	past := newSession(1, 1, -3, -1, model.SessionStatusScheduled)
	future := newSession(2, 1, 1, 2, model.SessionStatusScheduled)
	f := newScheduleFixture(past, future)

	n, err := f.svc.CompletePastSessions(context.Background())
	if err != nil {
		t.Fatalf("CompletePastSessions() error: %v", err)
	}
	if n != 1 || past.Status != model.SessionStatusCompleted || future.Status != model.SessionStatusScheduled {
		t.Errorf("n = %d, past = %q, future = %q", n, past.Status, future.Status)
	}
}

func TestSendReminders_Once(t *testing.T) {
	soon := newSession(1, 1, 0, 2, model.SessionStatusScheduled)
	soon.StartTime = baseNow.Add(30 * time.Minute)
	later := newSession(2, 1, 5, 6, model.SessionStatusScheduled)
	f := newScheduleFixture(soon, later)
	ctx := context.Background()

	for _, s := range []*model.Session{soon, later} {
		if _, err := f.svc.BookSession(ctx, f.student.ID, s.ID); err != nil {
			t.Fatalf("BookSession(%d) error: %v", s.ID, err)
		}
	}

	sent, err := f.svc.SendReminders(ctx, time.Hour)
	if err != nil || sent != 1 {
		t.Fatalf("SendReminders() = %d, %v; want 1, nil", sent, err)
	}

	sent, err = f.svc.SendReminders(ctx, time.Hour)
	if err != nil || sent != 0 {
		t.Fatalf("second SendReminders() = %d, %v; want 0, nil", sent, err)
	}
}
