package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/Freeeeeet/tutor_scheduler/internal/model"
	"github.com/Freeeeeet/tutor_scheduler/internal/repository/base"
	"github.com/jackc/pgx/v5/pgxpool"
)

type SessionRepository struct {
	*base.Repository
}

func NewSessionRepository(pool *pgxpool.Pool) *SessionRepository {
	return &SessionRepository{Repository: base.NewRepository(pool)}
}

const sessionSelect = `
	SELECT s.id, s.class_id, s.tutor_id, s.topic, s.start_time, s.end_time, s.status, s.capacity,
	       (SELECT COUNT(*) FROM bookings b WHERE b.session_id = s.id AND b.status = 'active') AS booked_count,
	       s.created_at
	FROM sessions s
`

func scanSession(row base.Scanner) (*model.Session, error) {
	var s model.Session
	err := row.Scan(
		&s.ID,
		&s.ClassID,
		&s.TutorID,
		&s.Topic,
		&s.StartTime,
		&s.EndTime,
		&s.Status,
		&s.Capacity,
		&s.BookedCount,
		&s.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *SessionRepository) list(ctx context.Context, op, query string, args ...any) ([]*model.Session, error) {
	rows, err := r.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	sessions, err := base.CollectAll(rows, scanSession)
	if err != nil {
		return nil, fmt.Errorf("scan session: %w", err)
	}

	return sessions, nil
}

func (r *SessionRepository) Create(ctx context.Context, s *model.Session) error {
	query := `
		INSERT INTO sessions (class_id, tutor_id, topic, start_time, end_time, status, capacity)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at
	`

	err := r.QueryRow(ctx, query,
		s.ClassID,
		s.TutorID,
		s.Topic,
		s.StartTime,
		s.EndTime,
		s.Status,
		s.Capacity,
	).Scan(&s.ID, &s.CreatedAt)
	if err != nil {
		return fmt.Errorf("create session: %w", err)
	}

	return nil
}

func (r *SessionRepository) GetByID(ctx context.Context, id int64) (*model.Session, error) {
	s, err := scanSession(r.QueryRow(ctx, sessionSelect+` WHERE s.id = $1`, id))
	if err != nil {
		if base.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get session by id: %w", err)
	}

	return s, nil
}

// GetByTutorID returns the tutor's sessions that overlap [from, to)
func (r *SessionRepository) GetByTutorID(ctx context.Context, tutorID int64, from, to time.Time) ([]*model.Session, error) {
	return r.list(ctx, "get sessions by tutor",
		sessionSelect+` WHERE s.tutor_id = $1 AND s.end_time > $2 AND s.start_time < $3 ORDER BY s.start_time`,
		tutorID, from, to)
}

// GetBookedByStudentID returns sessions the student holds an active booking for, overlapping [from, to)
func (r *SessionRepository) GetBookedByStudentID(ctx context.Context, studentID int64, from, to time.Time) ([]*model.Session, error) {
	return r.list(ctx, "get booked sessions",
		sessionSelect+`
		JOIN bookings bk ON bk.session_id = s.id AND bk.status = 'active'
		WHERE bk.student_id = $1 AND s.end_time > $2 AND s.start_time < $3
		ORDER BY s.start_time`,
		studentID, from, to)
}

// GetUpcomingByClassID returns scheduled sessions of a class starting after now
func (r *SessionRepository) GetUpcomingByClassID(ctx context.Context, classID int64, now time.Time) ([]*model.Session, error) {
	return r.list(ctx, "get upcoming sessions",
		sessionSelect+` WHERE s.class_id = $1 AND s.status = 'scheduled' AND s.start_time > $2 ORDER BY s.start_time`,
		classID, now)
}

// Cancel marks a scheduled session cancelled together with its active
// bookings in one transaction. Returns the number of bookings cancelled.
func (r *SessionRepository) Cancel(ctx context.Context, id int64) (int64, error) {
	tx, err := r.Pool().Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx, `UPDATE sessions SET status = 'cancelled' WHERE id = $1 AND status = 'scheduled'`, id)
	if err != nil {
		return 0, fmt.Errorf("cancel session: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return 0, fmt.Errorf("session %d is not scheduled", id)
	}

	tag, err = tx.Exec(ctx,
		`UPDATE bookings SET status = 'cancelled', updated_at = NOW() WHERE session_id = $1 AND status = 'active'`, id)
	if err != nil {
		return 0, fmt.Errorf("cancel session bookings: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("commit transaction: %w", err)
	}

	return tag.RowsAffected(), nil
}

// CompletePast marks scheduled sessions that ended before now as completed
func (r *SessionRepository) CompletePast(ctx context.Context, now time.Time) (int64, error) {
	affected, err := r.ExecAffected(ctx,
		`UPDATE sessions SET status = 'completed' WHERE status = 'scheduled' AND end_time <= $1`, now)
	if err != nil {
		return 0, fmt.Errorf("complete past sessions: %w", err)
	}

	return affected, nil
}

// GetDueForReminder returns scheduled, not yet reminded sessions starting in [now, now+window)
func (r *SessionRepository) GetDueForReminder(ctx context.Context, now time.Time, window time.Duration) ([]*model.Session, error) {
	return r.list(ctx, "get sessions due for reminder",
		sessionSelect+`
		WHERE s.status = 'scheduled' AND s.reminded_at IS NULL
		  AND s.start_time >= $1 AND s.start_time < $2
		ORDER BY s.start_time`,
		now, now.Add(window))
}

func (r *SessionRepository) MarkReminded(ctx context.Context, id int64, at time.Time) error {
	_, err := r.ExecAffected(ctx, `UPDATE sessions SET reminded_at = $1 WHERE id = $2`, at, id)
	if err != nil {
		return fmt.Errorf("mark session reminded: %w", err)
	}
	return nil
}
