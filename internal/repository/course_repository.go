package repository

import (
	"context"
	"fmt"

	"github.com/Freeeeeet/tutor_scheduler/internal/model"
	"github.com/Freeeeeet/tutor_scheduler/internal/repository/base"
	"github.com/jackc/pgx/v5/pgxpool"
)

type CourseRepository struct {
	*base.Repository
}

func NewCourseRepository(pool *pgxpool.Pool) *CourseRepository {
	return &CourseRepository{Repository: base.NewRepository(pool)}
}

func scanCourse(row base.Scanner) (*model.Course, error) {
	var c model.Course
	if err := row.Scan(&c.ID, &c.Code, &c.Name, &c.Description, &c.IsActive, &c.CreatedAt); err != nil {
		return nil, err
	}
	return &c, nil
}

// classSelect joins the live enrollment count onto each class
const classSelect = `
	SELECT c.id, c.course_id, c.tutor_id, c.name, c.capacity,
	       (SELECT COUNT(*) FROM enrollments e WHERE e.class_id = c.id) AS enrolled_count,
	       c.created_at
	FROM classes c
`

func scanClass(row base.Scanner) (*model.Class, error) {
	var c model.Class
	err := row.Scan(&c.ID, &c.CourseID, &c.TutorID, &c.Name, &c.Capacity, &c.EnrolledCount, &c.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *CourseRepository) Create(ctx context.Context, course *model.Course) error {
	query := `
		INSERT INTO courses (code, name, description, is_active)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at
	`

	err := r.QueryRow(ctx, query, course.Code, course.Name, course.Description, course.IsActive).
		Scan(&course.ID, &course.CreatedAt)
	if err != nil {
		return fmt.Errorf("create course: %w", err)
	}

	return nil
}

func (r *CourseRepository) GetByID(ctx context.Context, id int64) (*model.Course, error) {
	query := `SELECT id, code, name, description, is_active, created_at FROM courses WHERE id = $1`

	course, err := scanCourse(r.QueryRow(ctx, query, id))
	if err != nil {
		if base.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get course by id: %w", err)
	}

	return course, nil
}

func (r *CourseRepository) GetActive(ctx context.Context) ([]*model.Course, error) {
	query := `SELECT id, code, name, description, is_active, created_at FROM courses WHERE is_active = TRUE ORDER BY code`

	rows, err := r.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("get active courses: %w", err)
	}

	courses, err := base.CollectAll(rows, scanCourse)
	if err != nil {
		return nil, fmt.Errorf("scan course: %w", err)
	}

	return courses, nil
}

func (r *CourseRepository) CreateClass(ctx context.Context, class *model.Class) error {
	query := `
		INSERT INTO classes (course_id, tutor_id, name, capacity)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at
	`

	err := r.QueryRow(ctx, query, class.CourseID, class.TutorID, class.Name, class.Capacity).
		Scan(&class.ID, &class.CreatedAt)
	if err != nil {
		return fmt.Errorf("create class: %w", err)
	}

	return nil
}

func (r *CourseRepository) GetClassByID(ctx context.Context, id int64) (*model.Class, error) {
	class, err := scanClass(r.QueryRow(ctx, classSelect+` WHERE c.id = $1`, id))
	if err != nil {
		if base.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get class by id: %w", err)
	}

	return class, nil
}

// GetClassesByCourseID returns the classes of a course in creation order,
// which is also the tie-break order for auto-assignment
func (r *CourseRepository) GetClassesByCourseID(ctx context.Context, courseID int64) ([]*model.Class, error) {
	rows, err := r.Query(ctx, classSelect+` WHERE c.course_id = $1 ORDER BY c.id`, courseID)
	if err != nil {
		return nil, fmt.Errorf("get classes by course: %w", err)
	}

	classes, err := base.CollectAll(rows, scanClass)
	if err != nil {
		return nil, fmt.Errorf("scan class: %w", err)
	}

	return classes, nil
}

func (r *CourseRepository) GetClassesByTutorID(ctx context.Context, tutorID int64) ([]*model.Class, error) {
	rows, err := r.Query(ctx, classSelect+` WHERE c.tutor_id = $1 ORDER BY c.id`, tutorID)
	if err != nil {
		return nil, fmt.Errorf("get classes by tutor: %w", err)
	}

	classes, err := base.CollectAll(rows, scanClass)
	if err != nil {
		return nil, fmt.Errorf("scan class: %w", err)
	}

	return classes, nil
}
