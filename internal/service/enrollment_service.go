package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Freeeeeet/tutor_scheduler/internal/enrollment"
	"github.com/Freeeeeet/tutor_scheduler/internal/metrics"
	"github.com/Freeeeeet/tutor_scheduler/internal/model"
	"go.uber.org/zap"
)

type EnrollmentService struct {
	userRepo       UserRepository
	courseRepo     CourseRepository
	enrollmentRepo EnrollmentRepository
	notifications  *NotificationService
	logger         *zap.Logger
}

func NewEnrollmentService(
	userRepo UserRepository,
	courseRepo CourseRepository,
	enrollmentRepo EnrollmentRepository,
	notifications *NotificationService,
	logger *zap.Logger,
) *EnrollmentService {
	return &EnrollmentService{
		userRepo:       userRepo,
		courseRepo:     courseRepo,
		enrollmentRepo: enrollmentRepo,
		notifications:  notifications,
		logger:         logger,
	}
}

func (s *EnrollmentService) Courses(ctx context.Context) ([]*model.Course, error) {
	return s.courseRepo.GetActive(ctx)
}

func (s *EnrollmentService) CourseClasses(ctx context.Context, courseID int64) ([]*model.Class, error) {
	return s.courseRepo.GetClassesByCourseID(ctx, courseID)
}

func (s *EnrollmentService) TutorClasses(ctx context.Context, tutorID int64) ([]*model.Class, error) {
	return s.courseRepo.GetClassesByTutorID(ctx, tutorID)
}

// CreateCourse adds an active course. Only admins may call it.
func (s *EnrollmentService) CreateCourse(ctx context.Context, adminID int64, code, name string) (*model.Course, error) {
	admin, err := s.userRepo.GetByID(ctx, adminID)
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	if admin == nil || !admin.IsAdmin() {
		return nil, fmt.Errorf("admin only: %w", ErrForbidden)
	}

	code, name = strings.TrimSpace(code), strings.TrimSpace(name)
	if code == "" || name == "" {
		return nil, ErrEmptyName
	}

	course := &model.Course{Code: strings.ToUpper(code), Name: name, IsActive: true}
	if err := s.courseRepo.Create(ctx, course); err != nil {
		return nil, fmt.Errorf("create course: %w", err)
	}

	s.logger.Info("Course created",
		zap.Int64("course_id", course.ID),
		zap.String("code", course.Code),
	)

	return course, nil
}

// CreateClass opens a class of a course led by the calling tutor.
// A nil capacity means unlimited seats.
func (s *EnrollmentService) CreateClass(ctx context.Context, tutorID, courseID int64, name string, capacity *int) (*model.Class, error) {
	tutor, err := s.userRepo.GetByID(ctx, tutorID)
	if err != nil {
		return nil, fmt.Errorf("get tutor: %w", err)
	}
	if tutor == nil || !tutor.IsTutor() {
		return nil, fmt.Errorf("tutor only: %w", ErrForbidden)
	}

	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrEmptyName
	}
	if capacity != nil && *capacity <= 0 {
		return nil, ErrInvalidCapacity
	}

	course, err := s.courseRepo.GetByID(ctx, courseID)
	if err != nil {
		return nil, fmt.Errorf("get course: %w", err)
	}
	if course == nil {
		return nil, fmt.Errorf("course %d: %w", courseID, ErrNotFound)
	}
	if !course.IsActive {
		return nil, ErrCourseInactive
	}

	class := &model.Class{
		CourseID: courseID,
		TutorID:  tutorID,
		Name:     name,
		Capacity: capacity,
	}
	if err := s.courseRepo.CreateClass(ctx, class); err != nil {
		return nil, fmt.Errorf("create class: %w", err)
	}

	s.logger.Info("Class created",
		zap.Int64("class_id", class.ID),
		zap.Int64("course_id", courseID),
		zap.Int64("tutor_id", tutorID),
	)

	return class, nil
}

// AutoEnroll places the student in the course's best class as chosen by
// enrollment.AutoAssign. Full classes are skipped; if a class fills up
// between selection and insert, the next best one is tried.
func (s *EnrollmentService) AutoEnroll(ctx context.Context, studentID, courseID int64) (*model.Enrollment, *model.Class, error) {
	if _, err := s.activeStudent(ctx, studentID); err != nil {
		return nil, nil, err
	}

	course, err := s.courseRepo.GetByID(ctx, courseID)
	if err != nil {
		return nil, nil, fmt.Errorf("get course: %w", err)
	}
	if course == nil {
		return nil, nil, fmt.Errorf("course %d: %w", courseID, ErrNotFound)
	}
	if !course.IsActive {
		return nil, nil, ErrCourseInactive
	}

	existing, err := s.enrollmentRepo.GetByStudentAndCourse(ctx, studentID, courseID)
	if err != nil {
		return nil, nil, fmt.Errorf("get enrollment: %w", err)
	}
	if existing != nil {
		return nil, nil, ErrAlreadyEnrolled
	}

	classes, err := s.courseRepo.GetClassesByCourseID(ctx, courseID)
	if err != nil {
		return nil, nil, fmt.Errorf("get classes: %w", err)
	}

	open := make(map[int64]*model.Class, len(classes))
	var candidates []enrollment.Candidate
	for _, c := range classes {
		if c.IsFull() {
			continue
		}
		open[c.ID] = c
		candidates = append(candidates, c.Candidate())
	}

	for len(candidates) > 0 {
		classID, ok := enrollment.AutoAssign(candidates)
		if !ok {
			break
		}

		e := &model.Enrollment{ClassID: classID, StudentID: studentID}
		created, err := s.enrollmentRepo.CreateWithinCapacity(ctx, e)
		if errors.Is(err, model.ErrDuplicate) {
			return nil, nil, ErrAlreadyEnrolled
		}
		if err != nil {
			return nil, nil, fmt.Errorf("create enrollment: %w", err)
		}
		if created {
			class := open[classID]
			metrics.AutoAssignments.WithLabelValues("assigned").Inc()
			s.logger.Info("Student auto-enrolled",
				zap.Int64("student_id", studentID),
				zap.Int64("course_id", courseID),
				zap.Int64("class_id", classID),
				zap.Float64("occupancy", class.Candidate().Occupancy()),
			)
			s.notifyEnrolled(ctx, studentID, course, class)
			return e, class, nil
		}

		metrics.AutoAssignments.WithLabelValues("full").Inc()
		candidates = without(candidates, classID)
	}

	metrics.AutoAssignments.WithLabelValues("none").Inc()
	return nil, nil, ErrNoClassAvailable
}

// Enroll places the student in a specific class if a seat is free.
func (s *EnrollmentService) Enroll(ctx context.Context, studentID, classID int64) (*model.Enrollment, error) {
	if _, err := s.activeStudent(ctx, studentID); err != nil {
		return nil, err
	}

	class, err := s.courseRepo.GetClassByID(ctx, classID)
	if err != nil {
		return nil, fmt.Errorf("get class: %w", err)
	}
	if class == nil {
		return nil, fmt.Errorf("class %d: %w", classID, ErrNotFound)
	}

	existing, err := s.enrollmentRepo.GetByStudentAndCourse(ctx, studentID, class.CourseID)
	if err != nil {
		return nil, fmt.Errorf("get enrollment: %w", err)
	}
	if existing != nil {
		return nil, ErrAlreadyEnrolled
	}

	if class.IsFull() {
		return nil, ErrClassFull
	}

	e := &model.Enrollment{ClassID: classID, StudentID: studentID}
	created, err := s.enrollmentRepo.CreateWithinCapacity(ctx, e)
	if errors.Is(err, model.ErrDuplicate) {
		return nil, ErrAlreadyEnrolled
	}
	if err != nil {
		return nil, fmt.Errorf("create enrollment: %w", err)
	}
	if !created {
		return nil, ErrClassFull
	}

	s.logger.Info("Student enrolled",
		zap.Int64("student_id", studentID),
		zap.Int64("class_id", classID),
	)

	return e, nil
}

func (s *EnrollmentService) activeStudent(ctx context.Context, studentID int64) (*model.User, error) {
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
	return student, nil
}

func (s *EnrollmentService) notifyEnrolled(ctx context.Context, studentID int64, course *model.Course, class *model.Class) {
	text := fmt.Sprintf("You were enrolled in %s, class %q", course.Name, class.Name)
	if err := s.notifications.Send(ctx, studentID, model.NotificationEnrolled, text); err != nil {
		s.logger.Warn("Failed to notify student", zap.Int64("student_id", studentID), zap.Error(err))
	}
}

func without(cs []enrollment.Candidate, id int64) []enrollment.Candidate {
	out := cs[:0:0]
	for _, c := range cs {
		if c.ID != id {
			out = append(out, c)
		}
	}
	return out
}
