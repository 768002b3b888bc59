package repository

import (
	"context"
	"fmt"

	"github.com/Freeeeeet/tutor_scheduler/internal/model"
	"github.com/Freeeeeet/tutor_scheduler/internal/repository/base"
	"github.com/jackc/pgx/v5/pgxpool"
)

type BookingRepository struct {
	*base.Repository
}

func NewBookingRepository(pool *pgxpool.Pool) *BookingRepository {
	return &BookingRepository{Repository: base.NewRepository(pool)}
}

func scanBooking(row base.Scanner) (*model.Booking, error) {
	var b model.Booking
	err := row.Scan(&b.ID, &b.SessionID, &b.StudentID, &b.Status, &b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &b, nil
}

// CreateWithinCapacity books a seat unless the session is full. The session
// row is locked so concurrent bookings are counted one after another.
// Returns false when no seat was left and model.ErrDuplicate when the
// student already holds an active booking.
func (r *BookingRepository) CreateWithinCapacity(ctx context.Context, b *model.Booking) (bool, error) {
	tx, err := r.Pool().Begin(ctx)
	if err != nil {
		return false, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var capacity *int
	err = tx.QueryRow(ctx, `SELECT capacity FROM sessions WHERE id = $1 FOR UPDATE`, b.SessionID).Scan(&capacity)
	if err != nil {
		if base.IsNotFound(err) {
			return false, nil
		}
		return false, fmt.Errorf("lock session: %w", err)
	}

	if capacity != nil {
		var booked int
		err = tx.QueryRow(ctx,
			`SELECT COUNT(*) FROM bookings WHERE session_id = $1 AND status = 'active'`, b.SessionID).Scan(&booked)
		if err != nil {
			return false, fmt.Errorf("count bookings: %w", err)
		}
		if booked >= *capacity {
			return false, nil
		}
	}

	err = tx.QueryRow(ctx, `
		INSERT INTO bookings (session_id, student_id, status)
		VALUES ($1, $2, 'active')
		RETURNING id, status, created_at, updated_at
	`, b.SessionID, b.StudentID).Scan(&b.ID, &b.Status, &b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		if base.IsUniqueViolation(err) {
			return false, model.ErrDuplicate
		}
		return false, fmt.Errorf("create booking: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return false, fmt.Errorf("commit transaction: %w", err)
	}

	return true, nil
}

func (r *BookingRepository) GetByID(ctx context.Context, id int64) (*model.Booking, error) {
	query := `SELECT id, session_id, student_id, status, created_at, updated_at FROM bookings WHERE id = $1`

	b, err := scanBooking(r.QueryRow(ctx, query, id))
	if err != nil {
		if base.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get booking by id: %w", err)
	}

	return b, nil
}

func (r *BookingRepository) GetActive(ctx context.Context, sessionID, studentID int64) (*model.Booking, error) {
	query := `
		SELECT id, session_id, student_id, status, created_at, updated_at
		FROM bookings
		WHERE session_id = $1 AND student_id = $2 AND status = 'active'
	`

	b, err := scanBooking(r.QueryRow(ctx, query, sessionID, studentID))
	if err != nil {
		if base.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get active booking: %w", err)
	}

	return b, nil
}

func (r *BookingRepository) UpdateStatus(ctx context.Context, id int64, status model.BookingStatus) error {
	affected, err := r.ExecAffected(ctx,
		`UPDATE bookings SET status = $1, updated_at = NOW() WHERE id = $2`, status, id)
	if err != nil {
		return fmt.Errorf("update booking status: %w", err)
	}

	if affected == 0 {
		return fmt.Errorf("booking not found")
	}

	return nil
}

func (r *BookingRepository) GetActiveStudentIDs(ctx context.Context, sessionID int64) ([]int64, error) {
	rows, err := r.Query(ctx,
		`SELECT student_id FROM bookings WHERE session_id = $1 AND status = 'active' ORDER BY id`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("get session students: %w", err)
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
