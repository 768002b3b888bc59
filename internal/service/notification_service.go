package service

import (
	"context"
	"fmt"
	"time"

	"github.com/Freeeeeet/tutor_scheduler/internal/model"
	"go.uber.org/zap"
)

type NotificationService struct {
	repo     NotificationRepository
	userRepo UserRepository
	notifier Notifier
	logger   *zap.Logger
	now      func() time.Time
}

func NewNotificationService(repo NotificationRepository, userRepo UserRepository, logger *zap.Logger) *NotificationService {
	return &NotificationService{
		repo:     repo,
		userRepo: userRepo,
		logger:   logger,
		now:      time.Now,
	}
}

// SetNotifier attaches the delivery channel. The bot is built after the
// services, so it is wired in late.
func (s *NotificationService) SetNotifier(n Notifier) {
	s.notifier = n
}

// Send stores the notification and pushes it to the user's chat.
// Delivery failures are logged, not returned: the stored copy stays readable.
func (s *NotificationService) Send(ctx context.Context, userID int64, kind model.NotificationKind, text string) error {
	n := &model.Notification{
		UserID: userID,
		Kind:   kind,
		Text:   text,
	}

	if err := s.repo.Create(ctx, n); err != nil {
		return fmt.Errorf("store notification: %w", err)
	}

	if s.notifier == nil {
		return nil
	}

	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil || user == nil {
		s.logger.Warn("Notification recipient not found",
			zap.Int64("user_id", userID),
			zap.Error(err))
		return nil
	}

	if err := s.notifier.Notify(ctx, user.TelegramID, text); err != nil {
		s.logger.Warn("Failed to deliver notification",
			zap.Int64("user_id", userID),
			zap.String("kind", string(kind)),
			zap.Error(err))
	}

	return nil
}

// SendMany fans a notification out; the first storage error stops it.
func (s *NotificationService) SendMany(ctx context.Context, userIDs []int64, kind model.NotificationKind, text string) error {
	for _, id := range userIDs {
		if err := s.Send(ctx, id, kind, text); err != nil {
			return err
		}
	}
	return nil
}

func (s *NotificationService) Unread(ctx context.Context, userID int64) ([]*model.Notification, error) {
	return s.repo.GetUnread(ctx, userID, 20)
}

func (s *NotificationService) MarkAllRead(ctx context.Context, userID int64) (int64, error) {
	return s.repo.MarkAllRead(ctx, userID, s.now())
}
