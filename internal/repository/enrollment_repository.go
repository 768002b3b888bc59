package repository

import (
	"context"
	"fmt"

	"github.com/Freeeeeet/tutor_scheduler/internal/model"
	"github.com/Freeeeeet/tutor_scheduler/internal/repository/base"
	"github.com/jackc/pgx/v5/pgxpool"
)

type EnrollmentRepository struct {
	*base.Repository
}

func NewEnrollmentRepository(pool *pgxpool.Pool) *EnrollmentRepository {
	return &EnrollmentRepository{Repository: base.NewRepository(pool)}
}

// CreateWithinCapacity enrolls the student unless the class is already full.
// The class row is locked so concurrent enrollments are counted one after
// another. Returns false when no seat was left and model.ErrDuplicate when
// the student is already in a class of the same course.
func (r *EnrollmentRepository) CreateWithinCapacity(ctx context.Context, e *model.Enrollment) (bool, error) {
	tx, err := r.Pool().Begin(ctx)
	if err != nil {
		return false, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var capacity *int
	err = tx.QueryRow(ctx, `SELECT course_id, capacity FROM classes WHERE id = $1 FOR UPDATE`, e.ClassID).
		Scan(&e.CourseID, &capacity)
	if err != nil {
		if base.IsNotFound(err) {
			return false, nil
		}
		return false, fmt.Errorf("lock class: %w", err)
	}

	if capacity != nil {
		var enrolled int
		err = tx.QueryRow(ctx, `SELECT COUNT(*) FROM enrollments WHERE class_id = $1`, e.ClassID).Scan(&enrolled)
		if err != nil {
			return false, fmt.Errorf("count enrollments: %w", err)
		}
		if enrolled >= *capacity {
			return false, nil
		}
	}

	err = tx.QueryRow(ctx, `
		INSERT INTO enrollments (class_id, course_id, student_id)
		VALUES ($1, $2, $3)
		RETURNING id, created_at
	`, e.ClassID, e.CourseID, e.StudentID).Scan(&e.ID, &e.CreatedAt)
	if err != nil {
		if base.IsUniqueViolation(err) {
			return false, model.ErrDuplicate
		}
		return false, fmt.Errorf("create enrollment: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return false, fmt.Errorf("commit transaction: %w", err)
	}

	return true, nil
}

// GetByStudentAndCourse returns the student's enrollment in any class of the course
func (r *EnrollmentRepository) GetByStudentAndCourse(ctx context.Context, studentID, courseID int64) (*model.Enrollment, error) {
	query := `
		SELECT id, class_id, course_id, student_id, created_at
		FROM enrollments
		WHERE student_id = $1 AND course_id = $2
	`

	var e model.Enrollment
	err := r.QueryRow(ctx, query, studentID, courseID).Scan(&e.ID, &e.ClassID, &e.CourseID, &e.StudentID, &e.CreatedAt)
	if err != nil {
		if base.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get enrollment by course: %w", err)
	}

	return &e, nil
}

func (r *EnrollmentRepository) GetStudentIDsByClassID(ctx context.Context, classID int64) ([]int64, error) {
	rows, err := r.Query(ctx, `SELECT student_id FROM enrollments WHERE class_id = $1 ORDER BY id`, classID)
	if err != nil {
		return nil, fmt.Errorf("get class students: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan student id: %w", err)
		}
		ids = append(ids, id)
	}

	return ids, rows.Err()
}
