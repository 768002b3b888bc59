package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/Freeeeeet/tutor_scheduler/internal/metrics"
	"github.com/Freeeeeet/tutor_scheduler/internal/model"
	"github.com/Freeeeeet/tutor_scheduler/internal/moderation"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ForumConfig holds the moderation bounds applied to forum content.
type ForumConfig struct {
	MinLength   int
	MaxLength   int
	HistorySize int
}

type ForumService struct {
	userRepo      UserRepository
	forumRepo     ForumRepository
	history       HistoryStore // may be nil; the database is used instead
	filter        *moderation.Filter
	cfg           ForumConfig
	notifications *NotificationService
	logger        *zap.Logger
}

func NewForumService(
	userRepo UserRepository,
	forumRepo ForumRepository,
	history HistoryStore,
	filter *moderation.Filter,
	cfg ForumConfig,
	notifications *NotificationService,
	logger *zap.Logger,
) *ForumService {
	if filter == nil {
		filter = moderation.NewFilter()
	}
	if cfg.HistorySize <= 0 {
		cfg.HistorySize = 20
	}
	return &ForumService{
		userRepo:      userRepo,
		forumRepo:     forumRepo,
		history:       history,
		filter:        filter,
		cfg:           cfg,
		notifications: notifications,
		logger:        logger,
	}
}

// CreateThread opens a thread with its first post after moderating both.
func (s *ForumService) CreateThread(ctx context.Context, authorID int64, courseID *int64, title, body string) (*model.ForumThread, *model.ForumPost, error) {
	if _, err := s.activeAuthor(ctx, authorID); err != nil {
		return nil, nil, err
	}

	title = strings.TrimSpace(title)
	if title == "" {
		return nil, nil, ErrEmptyTitle
	}
	if _, found := s.filter.ContainsProfanity(title); found {
		v := moderation.Verdict{}
		v.Errors = []string{"Title contains inappropriate language"}
		v.Reasons = []moderation.Reason{moderation.ReasonProfanity}
		s.record(authorID, v)
		return nil, nil, &ModerationError{Verdict: v}
	}

	if err := s.moderate(ctx, authorID, body); err != nil {
		return nil, nil, err
	}

	thread := &model.ForumThread{
		PublicID: uuid.New(),
		CourseID: courseID,
		AuthorID: authorID,
		Title:    title,
	}
	post := &model.ForumPost{
		AuthorID: authorID,
		Body:     body,
	}

	if err := s.forumRepo.CreateThread(ctx, thread, post); err != nil {
		return nil, nil, fmt.Errorf("create thread: %w", err)
	}

	s.remember(ctx, authorID, body)

	s.logger.Info("Thread created",
		zap.Int64("thread_id", thread.ID),
		zap.String("public_id", thread.PublicID.String()),
		zap.Int64("author_id", authorID),
	)

	return thread, post, nil
}

// Reply adds a moderated post to a thread and notifies the thread author.
func (s *ForumService) Reply(ctx context.Context, authorID, threadID int64, body string) (*model.ForumPost, error) {
	author, err := s.activeAuthor(ctx, authorID)
	if err != nil {
		return nil, err
	}

	thread, err := s.forumRepo.GetThreadByID(ctx, threadID)
	if err != nil {
		return nil, fmt.Errorf("get thread: %w", err)
	}
	if thread == nil {
		return nil, fmt.Errorf("thread %d: %w", threadID, ErrNotFound)
	}

	if err := s.moderate(ctx, authorID, body); err != nil {
		return nil, err
	}

	post := &model.ForumPost{
		ThreadID: threadID,
		AuthorID: authorID,
		Body:     body,
	}
	if err := s.forumRepo.CreatePost(ctx, post); err != nil {
		return nil, fmt.Errorf("create post: %w", err)
	}

	s.remember(ctx, authorID, body)

	if thread.AuthorID != authorID {
		text := fmt.Sprintf("%s replied in %q", displayName(author), thread.Title)
		if err := s.notifications.Send(ctx, thread.AuthorID, model.NotificationForumReply, text); err != nil {
			s.logger.Warn("Failed to notify thread author", zap.Int64("thread_id", threadID), zap.Error(err))
		}
	}

	return post, nil
}

// Vote records an up or down vote and returns the post's new score.
// Repeating the same vote withdraws it; the opposite vote replaces it.
func (s *ForumService) Vote(ctx context.Context, userID, postID int64, value int) (int, error) {
	if value != model.VoteUp && value != model.VoteDown {
		return 0, ErrInvalidVote
	}

	if _, err := s.activeAuthor(ctx, userID); err != nil {
		return 0, err
	}

	post, err := s.forumRepo.GetPostByID(ctx, postID)
	if err != nil {
		return 0, fmt.Errorf("get post: %w", err)
	}
	if post == nil {
		return 0, fmt.Errorf("post %d: %w", postID, ErrNotFound)
	}
	if post.AuthorID == userID {
		return 0, fmt.Errorf("vote on own post: %w", ErrForbidden)
	}

	existing, err := s.forumRepo.GetVote(ctx, postID, userID)
	if err != nil {
		return 0, fmt.Errorf("get vote: %w", err)
	}

	if existing != nil && existing.Value == value {
		err = s.forumRepo.DeleteVote(ctx, postID, userID)
	} else {
		err = s.forumRepo.UpsertVote(ctx, &model.Vote{PostID: postID, UserID: userID, Value: value})
	}
	if err != nil {
		return 0, err
	}

	updated, err := s.forumRepo.GetPostByID(ctx, postID)
	if err != nil {
		return 0, fmt.Errorf("reload post: %w", err)
	}
	if updated == nil {
		return 0, fmt.Errorf("post %d: %w", postID, ErrNotFound)
	}

	return updated.Score, nil
}

func (s *ForumService) Threads(ctx context.Context, limit int) ([]*model.ForumThread, error) {
	return s.forumRepo.ListThreads(ctx, limit)
}

func (s *ForumService) Thread(ctx context.Context, threadID int64) (*model.ForumThread, error) {
	thread, err := s.forumRepo.GetThreadByID(ctx, threadID)
	if err != nil {
		return nil, fmt.Errorf("get thread: %w", err)
	}
	if thread == nil {
		return nil, fmt.Errorf("thread %d: %w", threadID, ErrNotFound)
	}
	return thread, nil
}

// ThreadPosts returns the thread's posts with denylisted words redacted.
func (s *ForumService) ThreadPosts(ctx context.Context, threadID int64) ([]*model.ForumPost, error) {
	posts, err := s.forumRepo.GetPostsByThreadID(ctx, threadID)
	if err != nil {
		return nil, err
	}
	for _, p := range posts {
		p.Body = s.filter.SanitizeContent(p.Body)
	}
	return posts, nil
}

// Check validates text without storing it, so the bot can warn early.
func (s *ForumService) Check(ctx context.Context, authorID int64, text string) moderation.Verdict {
	return s.filter.ValidateContent(text, s.options(s.previousContents(ctx, authorID)))
}

func (s *ForumService) moderate(ctx context.Context, authorID int64, text string) error {
	v := s.Check(ctx, authorID, text)
	s.record(authorID, v)
	if !v.IsValid {
		return &ModerationError{Verdict: v}
	}
	return nil
}

func (s *ForumService) record(authorID int64, v moderation.Verdict) {
	if v.IsValid {
		metrics.ModerationVerdicts.WithLabelValues("accepted").Inc()
		return
	}

	metrics.ModerationVerdicts.WithLabelValues("rejected").Inc()
	reasons := make([]string, 0, len(v.Reasons))
	for _, r := range v.Reasons {
		metrics.ModerationRejections.WithLabelValues(string(r)).Inc()
		reasons = append(reasons, string(r))
	}

	s.logger.Info("Content rejected",
		zap.Int64("author_id", authorID),
		zap.Strings("reasons", reasons),
	)
}

func (s *ForumService) options(previous []string) moderation.Options {
	return moderation.Options{
		MinLength:        s.cfg.MinLength,
		MaxLength:        s.cfg.MaxLength,
		PreviousContents: previous,
	}
}

// previousContents reads the author's recent texts from the history store,
// falling back to the database. Lookup failures disable the duplicate check
// for this submission rather than blocking it.
func (s *ForumService) previousContents(ctx context.Context, authorID int64) []string {
	if s.history != nil {
		texts, err := s.history.Recent(ctx, authorID)
		if err == nil {
			return texts
		}
		s.logger.Warn("History store unavailable, using database", zap.Error(err))
	}

	texts, err := s.forumRepo.GetRecentBodiesByAuthor(ctx, authorID, s.cfg.HistorySize)
	if err != nil {
		s.logger.Warn("Failed to load previous posts", zap.Int64("author_id", authorID), zap.Error(err))
		return nil
	}
	return texts
}

// ForgetAuthor drops the cached history of a user, e.g. once they are blocked.
func (s *ForumService) ForgetAuthor(ctx context.Context, userID int64) error {
	if s.history == nil {
		return nil
	}
	if err := s.history.Forget(ctx, userID); err != nil {
		return fmt.Errorf("forget history: %w", err)
	}
	return nil
}

func (s *ForumService) remember(ctx context.Context, authorID int64, text string) {
	if s.history == nil {
		return
	}
	if err := s.history.Remember(ctx, authorID, text); err != nil {
		s.logger.Warn("Failed to remember post", zap.Int64("author_id", authorID), zap.Error(err))
	}
}

func (s *ForumService) activeAuthor(ctx context.Context, userID int64) (*model.User, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	if user == nil {
		return nil, fmt.Errorf("user %d: %w", userID, ErrNotFound)
	}
	if user.IsBlocked {
		return nil, ErrBlocked
	}
	return user, nil
}
