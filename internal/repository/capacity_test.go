package repository

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/Freeeeeet/tutor_scheduler/internal/app"
	"github.com/Freeeeeet/tutor_scheduler/internal/model"
)

// newTestPool requires TEST_DB_DSN pointing at a disposable Postgres database
// and skips otherwise.
func newTestPool(t *testing.T) *pgxpool.Pool {
	t.Helper()
	dsn := os.Getenv("TEST_DB_DSN")
	if dsn == "" {
		t.Skip("TEST_DB_DSN not set")
	}

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		t.Skipf("postgres not available: %v", err)
	}

	migrator, err := app.NewMigrator(pool, "../../migrations", zap.NewNop())
	if err != nil {
		t.Fatalf("NewMigrator() error: %v", err)
	}
	defer migrator.Close()
	if err := migrator.Run(ctx); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	t.Cleanup(pool.Close)
	return pool
}

type capacityFixture struct {
	pool     *pgxpool.Pool
	course   *model.Course
	tutor    *model.User
	students []*model.User
}

func newCapacityFixture(t *testing.T, students int) *capacityFixture {
	t.Helper()
	pool := newTestPool(t)
	ctx := context.Background()
	stamp := time.Now().UnixNano()

	users := NewUserRepository(pool)
	f := &capacityFixture{pool: pool}

	f.tutor = &model.User{TelegramID: stamp, Username: "tutor", Role: model.RoleTutor}
	if err := users.Create(ctx, f.tutor); err != nil {
		t.Fatalf("create tutor: %v", err)
	}
	for i := 0; i < students; i++ {
		u := &model.User{TelegramID: stamp + int64(i) + 1, Role: model.RoleStudent}
		if err := users.Create(ctx, u); err != nil {
			t.Fatalf("create student: %v", err)
		}
		f.students = append(f.students, u)
	}

	f.course = &model.Course{Code: fmt.Sprintf("T%d", stamp), Name: "Concurrency", IsActive: true}
	if err := NewCourseRepository(pool).Create(ctx, f.course); err != nil {
		t.Fatalf("create course: %v", err)
	}

	t.Cleanup(func() {
		ids := []int64{f.tutor.ID}
		for _, s := range f.students {
			ids = append(ids, s.ID)
		}
		pool.Exec(ctx, `DELETE FROM courses WHERE id = $1`, f.course.ID)
		pool.Exec(ctx, `DELETE FROM users WHERE id = ANY($1)`, ids)
	})
	return f
}

func (f *capacityFixture) class(t *testing.T, capacity int) *model.Class {
	t.Helper()
	c := &model.Class{CourseID: f.course.ID, TutorID: f.tutor.ID, Name: "Group", Capacity: &capacity}
	if err := NewCourseRepository(f.pool).CreateClass(context.Background(), c); err != nil {
		t.Fatalf("create class: %v", err)
	}
	return c
}

// parallel runs fn once per student at the same time and counts successes.
func (f *capacityFixture) parallel(t *testing.T, fn func(student *model.User) (bool, error)) int {
	t.Helper()
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		created int
		start   = make(chan struct{})
	)
	for _, s := range f.students {
		wg.Add(1)
		go func(s *model.User) {
			defer wg.Done()
			<-start
			ok, err := fn(s)
			if err != nil && !errors.Is(err, model.ErrDuplicate) {
				t.Errorf("student %d: %v", s.ID, err)
			}
			if ok {
				mu.Lock()
				created++
				mu.Unlock()
			}
		}(s)
	}
	close(start)
	wg.Wait()
	return created
}

func TestEnrollmentCreateWithinCapacity_Parallel(t *testing.T) {
	f := newCapacityFixture(t, 10)
	class := f.class(t, 3)
	repo := NewEnrollmentRepository(f.pool)

	created := f.parallel(t, func(s *model.User) (bool, error) {
		return repo.CreateWithinCapacity(context.Background(), &model.Enrollment{ClassID: class.ID, StudentID: s.ID})
	})
	if created != 3 {
		t.Errorf("enrollments created = %d, want 3", created)
	}

	ids, err := repo.GetStudentIDsByClassID(context.Background(), class.ID)
	if err != nil {
		t.Fatalf("GetStudentIDsByClassID() error: %v", err)
	}
	if len(ids) != 3 {
		t.Errorf("stored enrollments = %d, want 3", len(ids))
	}
}

func TestEnrollmentCreateWithinCapacity_OneClassPerCourse(t *testing.T) {
	f := newCapacityFixture(t, 1)
	a, b := f.class(t, 10), f.class(t, 10)
	repo := NewEnrollmentRepository(f.pool)
	student := f.students[0]

	var (
		wg   sync.WaitGroup
		errs = make([]error, 2)
		oks  = make([]bool, 2)
	)
	for i, classID := range []int64{a.ID, b.ID} {
		wg.Add(1)
		go func(i int, classID int64) {
			defer wg.Done()
			oks[i], errs[i] = repo.CreateWithinCapacity(context.Background(),
				&model.Enrollment{ClassID: classID, StudentID: student.ID})
		}(i, classID)
	}
	wg.Wait()

	if oks[0] == oks[1] {
		t.Fatalf("created = %v, want exactly one enrollment", oks)
	}
	for i, err := range errs {
		if !oks[i] && !errors.Is(err, model.ErrDuplicate) {
			t.Errorf("losing insert error = %v, want ErrDuplicate", err)
		}
	}
}

func TestBookingCreateWithinCapacity_Parallel(t *testing.T) {
	f := newCapacityFixture(t, 8)
	class := f.class(t, 20)
	ctx := context.Background()

	seats := 2
	start := time.Now().Add(24 * time.Hour).Truncate(time.Minute)
	session := &model.Session{
		ClassID:   class.ID,
		TutorID:   f.tutor.ID,
		Topic:     "Limits",
		StartTime: start,
		EndTime:   start.Add(time.Hour),
		Status:    model.SessionStatusScheduled,
		Capacity:  &seats,
	}
	if err := NewSessionRepository(f.pool).Create(ctx, session); err != nil {
		t.Fatalf("create session: %v", err)
	}

	repo := NewBookingRepository(f.pool)
	created := f.parallel(t, func(s *model.User) (bool, error) {
		return repo.CreateWithinCapacity(ctx, &model.Booking{SessionID: session.ID, StudentID: s.ID})
	})
	if created != seats {
		t.Errorf("bookings created = %d, want %d", created, seats)
	}

	ids, err := repo.GetActiveStudentIDs(ctx, session.ID)
	if err != nil {
		t.Fatalf("GetActiveStudentIDs() error: %v", err)
	}
	if len(ids) != seats {
		t.Errorf("stored bookings = %d, want %d", len(ids), seats)
	}
}

func TestSessionCancel_CancelsBookings(t *testing.T) {
	f := newCapacityFixture(t, 2)
	class := f.class(t, 20)
	ctx := context.Background()

	start := time.Now().Add(48 * time.Hour).Truncate(time.Minute)
	sessions := NewSessionRepository(f.pool)
	session := &model.Session{
		ClassID: class.ID, TutorID: f.tutor.ID, Topic: "Series",
		StartTime: start, EndTime: start.Add(time.Hour), Status: model.SessionStatusScheduled,
	}
	if err := sessions.Create(ctx, session); err != nil {
		t.Fatalf("create session: %v", err)
	}

	bookings := NewBookingRepository(f.pool)
	for _, s := range f.students {
		if _, err := bookings.CreateWithinCapacity(ctx, &model.Booking{SessionID: session.ID, StudentID: s.ID}); err != nil {
			t.Fatalf("book: %v", err)
		}
	}

	n, err := sessions.Cancel(ctx, session.ID)
	if err != nil {
		t.Fatalf("Cancel() error: %v", err)
	}
	if n != 2 {
		t.Errorf("bookings cancelled = %d, want 2", n)
	}
	if _, err := sessions.Cancel(ctx, session.ID); err == nil {
		t.Error("second Cancel() succeeded on a cancelled session")
	}

	got, err := sessions.GetByID(ctx, session.ID)
	if err != nil {
		t.Fatalf("GetByID() error: %v", err)
	}
	if got.Status != model.SessionStatusCancelled {
		t.Errorf("status = %q, want cancelled", got.Status)
	}
}
