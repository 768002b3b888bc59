package repository

import (
	"context"
	"fmt"

	"github.com/Freeeeeet/tutor_scheduler/internal/model"
	"github.com/Freeeeeet/tutor_scheduler/internal/repository/base"
	"github.com/jackc/pgx/v5/pgxpool"
)

type ForumRepository struct {
	*base.Repository
}

func NewForumRepository(pool *pgxpool.Pool) *ForumRepository {
	return &ForumRepository{Repository: base.NewRepository(pool)}
}

func scanThread(row base.Scanner) (*model.ForumThread, error) {
	var t model.ForumThread
	if err := row.Scan(&t.ID, &t.PublicID, &t.CourseID, &t.AuthorID, &t.Title, &t.CreatedAt); err != nil {
		return nil, err
	}
	return &t, nil
}

const postSelect = `
	SELECT p.id, p.thread_id, p.author_id, p.body,
	       COALESCE((SELECT SUM(v.value) FROM forum_votes v WHERE v.post_id = p.id), 0) AS score,
	       p.created_at
	FROM forum_posts p
`

func scanPost(row base.Scanner) (*model.ForumPost, error) {
	var p model.ForumPost
	if err := row.Scan(&p.ID, &p.ThreadID, &p.AuthorID, &p.Body, &p.Score, &p.CreatedAt); err != nil {
		return nil, err
	}
	return &p, nil
}

// CreateThread inserts the thread and its opening post in one transaction
func (r *ForumRepository) CreateThread(ctx context.Context, thread *model.ForumThread, post *model.ForumPost) error {
	tx, err := r.Pool().Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	err = tx.QueryRow(ctx, `
		INSERT INTO forum_threads (public_id, course_id, author_id, title)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at
	`, thread.PublicID, thread.CourseID, thread.AuthorID, thread.Title).Scan(&thread.ID, &thread.CreatedAt)
	if err != nil {
		return fmt.Errorf("create thread: %w", err)
	}

	post.ThreadID = thread.ID
	err = tx.QueryRow(ctx, `
		INSERT INTO forum_posts (thread_id, author_id, body)
		VALUES ($1, $2, $3)
		RETURNING id, created_at
	`, post.ThreadID, post.AuthorID, post.Body).Scan(&post.ID, &post.CreatedAt)
	if err != nil {
		return fmt.Errorf("create opening post: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}

	return nil
}

func (r *ForumRepository) CreatePost(ctx context.Context, post *model.ForumPost) error {
	err := r.QueryRow(ctx, `
		INSERT INTO forum_posts (thread_id, author_id, body)
		VALUES ($1, $2, $3)
		RETURNING id, created_at
	`, post.ThreadID, post.AuthorID, post.Body).Scan(&post.ID, &post.CreatedAt)
	if err != nil {
		return fmt.Errorf("create post: %w", err)
	}

	return nil
}

func (r *ForumRepository) GetThreadByID(ctx context.Context, id int64) (*model.ForumThread, error) {
	t, err := scanThread(r.QueryRow(ctx,
		`SELECT id, public_id, course_id, author_id, title, created_at FROM forum_threads WHERE id = $1`, id))
	if err != nil {
		if base.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get thread by id: %w", err)
	}

	return t, nil
}

func (r *ForumRepository) ListThreads(ctx context.Context, limit int) ([]*model.ForumThread, error) {
	rows, err := r.Query(ctx,
		`SELECT id, public_id, course_id, author_id, title, created_at FROM forum_threads ORDER BY created_at DESC LIMIT $1`,
		limit)
	if err != nil {
		return nil, fmt.Errorf("list threads: %w", err)
	}

	threads, err := base.CollectAll(rows, scanThread)
	if err != nil {
		return nil, fmt.Errorf("scan thread: %w", err)
	}

	return threads, nil
}

func (r *ForumRepository) GetPostByID(ctx context.Context, id int64) (*model.ForumPost, error) {
	p, err := scanPost(r.QueryRow(ctx, postSelect+` WHERE p.id = $1`, id))
	if err != nil {
		if base.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get post by id: %w", err)
	}

	return p, nil
}

func (r *ForumRepository) GetPostsByThreadID(ctx context.Context, threadID int64) ([]*model.ForumPost, error) {
	rows, err := r.Query(ctx, postSelect+` WHERE p.thread_id = $1 ORDER BY p.created_at, p.id`, threadID)
	if err != nil {
		return nil, fmt.Errorf("get thread posts: %w", err)
	}

	posts, err := base.CollectAll(rows, scanPost)
	if err != nil {
		return nil, fmt.Errorf("scan post: %w", err)
	}

	return posts, nil
}

// GetRecentBodiesByAuthor returns the author's latest post bodies, newest first
func (r *ForumRepository) GetRecentBodiesByAuthor(ctx context.Context, authorID int64, limit int) ([]string, error) {
	rows, err := r.Query(ctx,
		`SELECT body FROM forum_posts WHERE author_id = $1 ORDER BY created_at DESC LIMIT $2`, authorID, limit)
	if err != nil {
		return nil, fmt.Errorf("get recent posts: %w", err)
	}
	defer rows.Close()

	var bodies []string
	for rows.Next() {
		var body string
		if err := rows.Scan(&body); err != nil {
			return nil, fmt.Errorf("scan post body: %w", err)
		}
		bodies = append(bodies, body)
	}

	return bodies, rows.Err()
}

func (r *ForumRepository) GetVote(ctx context.Context, postID, userID int64) (*model.Vote, error) {
	var v model.Vote
	err := r.QueryRow(ctx,
		`SELECT post_id, user_id, value FROM forum_votes WHERE post_id = $1 AND user_id = $2`, postID, userID).
		Scan(&v.PostID, &v.UserID, &v.Value)
	if err != nil {
		if base.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get vote: %w", err)
	}

	return &v, nil
}

// UpsertVote records or replaces the user's vote on a post
func (r *ForumRepository) UpsertVote(ctx context.Context, v *model.Vote) error {
	_, err := r.ExecAffected(ctx, `
		INSERT INTO forum_votes (post_id, user_id, value)
		VALUES ($1, $2, $3)
		ON CONFLICT (post_id, user_id) DO UPDATE SET value = EXCLUDED.value
	`, v.PostID, v.UserID, v.Value)
	if err != nil {
		return fmt.Errorf("upsert vote: %w", err)
	}

	return nil
}

func (r *ForumRepository) DeleteVote(ctx context.Context, postID, userID int64) error {
	_, err := r.ExecAffected(ctx, `DELETE FROM forum_votes WHERE post_id = $1 AND user_id = $2`, postID, userID)
	if err != nil {
		return fmt.Errorf("delete vote: %w", err)
	}

	return nil
}
