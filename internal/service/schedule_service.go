package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Freeeeeet/tutor_scheduler/internal/metrics"
	"github.com/Freeeeeet/tutor_scheduler/internal/model"
	"github.com/Freeeeeet/tutor_scheduler/internal/scheduling"
	"go.uber.org/zap"
)

type ScheduleService struct {
	userRepo       UserRepository
	courseRepo     CourseRepository
	enrollmentRepo EnrollmentRepository
	sessionRepo    SessionRepository
	bookingRepo    BookingRepository
	notifications  *NotificationService
	logger         *zap.Logger
	now            func() time.Time
}

func NewScheduleService(
	userRepo UserRepository,
	courseRepo CourseRepository,
	enrollmentRepo EnrollmentRepository,
	sessionRepo SessionRepository,
	bookingRepo BookingRepository,
	notifications *NotificationService,
	logger *zap.Logger,
) *ScheduleService {
	return &ScheduleService{
		userRepo:       userRepo,
		courseRepo:     courseRepo,
		enrollmentRepo: enrollmentRepo,
		sessionRepo:    sessionRepo,
		bookingRepo:    bookingRepo,
		notifications:  notifications,
		logger:         logger,
		now:            time.Now,
	}
}

// CreateSession schedules a session for one of the tutor's classes.
// The new range must not overlap any of the tutor's other sessions.
func (s *ScheduleService) CreateSession(ctx context.Context, tutorID, classID int64, topic string, start time.Time, duration time.Duration, capacity *int) (*model.Session, error) {
	tutor, err := s.userRepo.GetByID(ctx, tutorID)
	if err != nil {
		return nil, fmt.Errorf("get tutor: %w", err)
	}
	if tutor == nil {
		return nil, fmt.Errorf("tutor %d: %w", tutorID, ErrNotFound)
	}
	if !tutor.IsTutor() {
		return nil, fmt.Errorf("user is not a tutor: %w", ErrForbidden)
	}

	class, err := s.courseRepo.GetClassByID(ctx, classID)
	if err != nil {
		return nil, fmt.Errorf("get class: %w", err)
	}
	if class == nil {
		return nil, fmt.Errorf("class %d: %w", classID, ErrNotFound)
	}
	if class.TutorID != tutorID && !tutor.IsAdmin() {
		return nil, fmt.Errorf("class does not belong to tutor: %w", ErrForbidden)
	}

	candidate := scheduling.Interval{
		Start:  start,
		End:    start.Add(duration),
		Status: scheduling.StatusScheduled,
	}
	if capacity != nil && *capacity <= 0 {
		return nil, ErrInvalidCapacity
	}

	existing, err := s.sessionRepo.GetByTutorID(ctx, tutorID, candidate.Start, candidate.End)
	if err != nil {
		return nil, fmt.Errorf("get tutor sessions: %w", err)
	}
	intervals := model.Intervals(existing)

	conflict, err := scheduling.CheckConflict(intervals, candidate)
	if err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}
	if candidate.Start.Before(s.now()) {
		return nil, ErrSessionInPast
	}

	if conflict {
		conflicts := scheduling.Conflicts(intervals, candidate)
		s.logger.Info("Session overlaps tutor schedule",
			zap.Int64("tutor_id", tutorID),
			zap.Time("start", candidate.Start),
			zap.Int("conflicts", len(conflicts)),
		)
		return nil, &ConflictError{Conflicts: conflicts}
	}

	session := &model.Session{
		ClassID:   classID,
		TutorID:   tutorID,
		Topic:     topic,
		StartTime: candidate.Start,
		EndTime:   candidate.End,
		Status:    model.SessionStatusScheduled,
		Capacity:  capacity,
	}

	if err := s.sessionRepo.Create(ctx, session); err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}

	s.logger.Info("Session created",
		zap.Int64("session_id", session.ID),
		zap.Int64("class_id", classID),
		zap.Int64("tutor_id", tutorID),
		zap.Time("start", session.StartTime),
	)

	session.Class = class

	students, err := s.enrollmentRepo.GetStudentIDsByClassID(ctx, classID)
	if err != nil {
		s.logger.Warn("Failed to load class students", zap.Int64("class_id", classID), zap.Error(err))
		return session, nil
	}
	text := fmt.Sprintf("New session in %s: %q on %s (/book %d)",
		class.Name, session.Topic, session.StartTime.Format("Mon 02 Jan 15:04"), session.ID)
	if err := s.notifications.SendMany(ctx, students, model.NotificationSessionScheduled, text); err != nil {
		s.logger.Warn("Failed to notify class students", zap.Int64("session_id", session.ID), zap.Error(err))
	}

	return session, nil
}

// ClassSessions returns the class's scheduled sessions that have not started.
func (s *ScheduleService) ClassSessions(ctx context.Context, classID int64) ([]*model.Session, error) {
	return s.sessionRepo.GetUpcomingByClassID(ctx, classID, s.now())
}

// BookSession books a seat for the student after checking that the session
// is open, not full and does not collide with the student's other bookings.
func (s *ScheduleService) BookSession(ctx context.Context, studentID, sessionID int64) (*model.Booking, error) {
	student, err := s.userRepo.GetByID(ctx, studentID)
	if err != nil {
		return nil, fmt.Errorf("get student: %w", err)
	}
	if student == nil {
		return nil, fmt.Errorf("student %d: %w", studentID, ErrNotFound)
	}
	if student.IsBlocked {
		return nil, ErrBlocked
	}

	session, err := s.sessionRepo.GetByID(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}
	if session == nil {
		return nil, fmt.Errorf("session %d: %w", sessionID, ErrNotFound)
	}
	if session.Status != model.SessionStatusScheduled {
		return nil, ErrSessionNotBookable
	}
	if !session.StartTime.After(s.now()) {
		return nil, ErrSessionInPast
	}
	if session.TutorID == studentID {
		return nil, fmt.Errorf("tutor cannot book own session: %w", ErrForbidden)
	}

	existingBooking, err := s.bookingRepo.GetActive(ctx, sessionID, studentID)
	if err != nil {
		return nil, fmt.Errorf("get booking: %w", err)
	}
	if existingBooking != nil {
		return nil, ErrAlreadyBooked
	}

	booked, err := s.sessionRepo.GetBookedByStudentID(ctx, studentID, session.StartTime, session.EndTime)
	if err != nil {
		return nil, fmt.Errorf("get student sessions: %w", err)
	}

	if conflicts := scheduling.Conflicts(model.Intervals(booked), session.Interval()); len(conflicts) > 0 {
		metrics.Bookings.WithLabelValues("conflict").Inc()
		return nil, &ConflictError{Conflicts: conflicts}
	}

	if session.IsFull() {
		metrics.Bookings.WithLabelValues("full").Inc()
		return nil, ErrSessionFull
	}

	booking := &model.Booking{
		SessionID: sessionID,
		StudentID: studentID,
	}

	ok, err := s.bookingRepo.CreateWithinCapacity(ctx, booking)
	if errors.Is(err, model.ErrDuplicate) {
		return nil, ErrAlreadyBooked
	}
	if err != nil {
		return nil, fmt.Errorf("create booking: %w", err)
	}
	if !ok {
		metrics.Bookings.WithLabelValues("full").Inc()
		return nil, ErrSessionFull
	}

	metrics.Bookings.WithLabelValues("booked").Inc()
	s.logger.Info("Session booked",
		zap.Int64("booking_id", booking.ID),
		zap.Int64("student_id", studentID),
		zap.Int64("session_id", sessionID),
	)

	text := fmt.Sprintf("%s booked your session %q on %s",
		displayName(student), session.Topic, session.StartTime.Format("Mon 02 Jan 15:04"))
	if err := s.notifications.Send(ctx, session.TutorID, model.NotificationSessionBooked, text); err != nil {
		s.logger.Warn("Failed to notify tutor", zap.Int64("session_id", sessionID), zap.Error(err))
	}

	booking.Session = session
	return booking, nil
}

// CancelBooking cancels a booking on behalf of the student, the session's
// tutor, or an admin.
func (s *ScheduleService) CancelBooking(ctx context.Context, userID, bookingID int64) error {
	booking, err := s.bookingRepo.GetByID(ctx, bookingID)
	if err != nil {
		return fmt.Errorf("get booking: %w", err)
	}
	if booking == nil {
		return fmt.Errorf("booking %d: %w", bookingID, ErrNotFound)
	}

	if booking.StudentID != userID {
		session, err := s.sessionRepo.GetByID(ctx, booking.SessionID)
		if err != nil {
			return fmt.Errorf("get session: %w", err)
		}
		allowed := session != nil && session.TutorID == userID
		if !allowed {
			user, err := s.userRepo.GetByID(ctx, userID)
			if err != nil {
				return fmt.Errorf("get user: %w", err)
			}
			allowed = user != nil && user.IsAdmin()
		}
		if !allowed {
			return fmt.Errorf("cancel booking: %w", ErrForbidden)
		}
	}

	if booking.Status != model.BookingStatusActive {
		return ErrBookingNotActive
	}

	if err := s.bookingRepo.UpdateStatus(ctx, bookingID, model.BookingStatusCancelled); err != nil {
		return fmt.Errorf("update booking status: %w", err)
	}

	s.logger.Info("Booking cancelled",
		zap.Int64("booking_id", bookingID),
		zap.Int64("user_id", userID),
	)

	return nil
}

// CancelSession cancels a scheduled session and every booking on it, then
// tells the booked students.
func (s *ScheduleService) CancelSession(ctx context.Context, tutorID, sessionID int64) error {
	session, err := s.sessionRepo.GetByID(ctx, sessionID)
	if err != nil {
		return fmt.Errorf("get session: %w", err)
	}
	if session == nil {
		return fmt.Errorf("session %d: %w", sessionID, ErrNotFound)
	}
	if session.TutorID != tutorID {
		return fmt.Errorf("session does not belong to tutor: %w", ErrForbidden)
	}
	if session.Status != model.SessionStatusScheduled {
		return ErrSessionNotBookable
	}

	students, err := s.bookingRepo.GetActiveStudentIDs(ctx, sessionID)
	if err != nil {
		return fmt.Errorf("get booked students: %w", err)
	}

	cancelled, err := s.sessionRepo.Cancel(ctx, sessionID)
	if err != nil {
		return fmt.Errorf("cancel session: %w", err)
	}

	s.logger.Info("Session cancelled",
		zap.Int64("session_id", sessionID),
		zap.Int64("tutor_id", tutorID),
		zap.Int64("bookings_cancelled", cancelled),
	)

	text := fmt.Sprintf("Session %q on %s was cancelled by the tutor",
		session.Topic, session.StartTime.Format("Mon 02 Jan 15:04"))
	return s.notifications.SendMany(ctx, students, model.NotificationSessionCancelled, text)
}

// StudentSessions returns the sessions the student booked within [from, to).
func (s *ScheduleService) StudentSessions(ctx context.Context, studentID int64, from, to time.Time) ([]*model.Session, error) {
	return s.sessionRepo.GetBookedByStudentID(ctx, studentID, from, to)
}

// TutorSessions returns the tutor's sessions within [from, to).
func (s *ScheduleService) TutorSessions(ctx context.Context, tutorID int64, from, to time.Time) ([]*model.Session, error) {
	return s.sessionRepo.GetByTutorID(ctx, tutorID, from, to)
}

// CompletePastSessions marks every scheduled session that has ended as completed.
func (s *ScheduleService) CompletePastSessions(ctx context.Context) (int64, error) {
	n, err := s.sessionRepo.CompletePast(ctx, s.now())
	if err != nil {
		return 0, err
	}
	if n > 0 {
		s.logger.Info("Past sessions completed", zap.Int64("count", n))
	}
	return n, nil
}

// SendReminders notifies booked students of sessions starting within window.
// Each session is reminded once.
func (s *ScheduleService) SendReminders(ctx context.Context, window time.Duration) (int, error) {
	now := s.now()

	due, err := s.sessionRepo.GetDueForReminder(ctx, now, window)
	if err != nil {
		return 0, err
	}

	sent := 0
	for _, session := range due {
		students, err := s.bookingRepo.GetActiveStudentIDs(ctx, session.ID)
		if err != nil {
			return sent, fmt.Errorf("get booked students: %w", err)
		}

		text := fmt.Sprintf("Reminder: %q starts at %s", session.Topic, session.StartTime.Format("15:04"))
		if err := s.notifications.SendMany(ctx, students, model.NotificationSessionReminder, text); err != nil {
			return sent, err
		}

		if err := s.sessionRepo.MarkReminded(ctx, session.ID, now); err != nil {
			return sent, err
		}
		sent += len(students)
	}

	return sent, nil
}

func displayName(u *model.User) string {
	if u.Username != "" {
		return "@" + u.Username
	}
	if u.FirstName != "" {
		return u.FirstName
	}
	return fmt.Sprintf("user %d", u.ID)
}
