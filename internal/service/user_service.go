package service

import (
	"context"
	"fmt"

	"github.com/Freeeeeet/tutor_scheduler/internal/model"
	"go.uber.org/zap"
)

type UserService struct {
	userRepo UserRepository
	logger   *zap.Logger
}

func NewUserService(userRepo UserRepository, logger *zap.Logger) *UserService {
	return &UserService{
		userRepo: userRepo,
		logger:   logger,
	}
}

// RegisterUser creates the user on first contact and refreshes the profile afterwards
func (s *UserService) RegisterUser(ctx context.Context, telegramID int64, username, firstName, lastName, languageCode string) (*model.User, error) {
	existingUser, err := s.userRepo.GetByTelegramID(ctx, telegramID)
	if err != nil {
		return nil, fmt.Errorf("check existing user: %w", err)
	}

	if existingUser != nil {
		existingUser.Username = username
		existingUser.FirstName = firstName
		existingUser.LastName = lastName
		existingUser.LanguageCode = languageCode

		if err := s.userRepo.Update(ctx, existingUser); err != nil {
			return nil, fmt.Errorf("update user: %w", err)
		}

		return existingUser, nil
	}

	user := &model.User{
		TelegramID:   telegramID,
		Username:     username,
		FirstName:    firstName,
		LastName:     lastName,
		LanguageCode: languageCode,
		Role:         model.RoleStudent,
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}

	s.logger.Info("New user registered",
		zap.Int64("user_id", user.ID),
		zap.Int64("telegram_id", telegramID),
		zap.String("username", username),
	)

	return user, nil
}

func (s *UserService) GetByTelegramID(ctx context.Context, telegramID int64) (*model.User, error) {
	return s.userRepo.GetByTelegramID(ctx, telegramID)
}

func (s *UserService) GetByID(ctx context.Context, id int64) (*model.User, error) {
	return s.userRepo.GetByID(ctx, id)
}

// BecomeTutor promotes a student to tutor. Admins keep their role.
func (s *UserService) BecomeTutor(ctx context.Context, telegramID int64) (*model.User, error) {
	user, err := s.userRepo.GetByTelegramID(ctx, telegramID)
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}

	if user == nil {
		return nil, fmt.Errorf("user %d: %w", telegramID, ErrNotFound)
	}

	if user.IsTutor() {
		return user, nil
	}

	user.Role = model.RoleTutor
	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, fmt.Errorf("update user: %w", err)
	}

	s.logger.Info("User became tutor",
		zap.Int64("user_id", user.ID),
		zap.String("username", user.Username),
	)

	return user, nil
}

// SetRole changes another user's role. Only admins may call it.
func (s *UserService) SetRole(ctx context.Context, adminID, targetTelegramID int64, role model.UserRole) (*model.User, error) {
	target, err := s.adminTarget(ctx, adminID, targetTelegramID)
	if err != nil {
		return nil, err
	}

	target.Role = role
	if err := s.userRepo.Update(ctx, target); err != nil {
		return nil, fmt.Errorf("update user: %w", err)
	}

	s.logger.Info("User role changed",
		zap.Int64("admin_id", adminID),
		zap.Int64("user_id", target.ID),
		zap.String("role", string(role)),
	)

	return target, nil
}

// SetBlocked blocks or unblocks a user. Only admins may call it.
func (s *UserService) SetBlocked(ctx context.Context, adminID, targetTelegramID int64, blocked bool) (*model.User, error) {
	target, err := s.adminTarget(ctx, adminID, targetTelegramID)
	if err != nil {
		return nil, err
	}

	if target.ID == adminID {
		return nil, fmt.Errorf("block yourself: %w", ErrForbidden)
	}

	target.IsBlocked = blocked
	if err := s.userRepo.Update(ctx, target); err != nil {
		return nil, fmt.Errorf("update user: %w", err)
	}

	s.logger.Info("User block flag changed",
		zap.Int64("admin_id", adminID),
		zap.Int64("user_id", target.ID),
		zap.Bool("blocked", blocked),
	)

	return target, nil
}

// ListUsers pages through all users. Only admins may call it.
func (s *UserService) ListUsers(ctx context.Context, adminID int64, limit, offset int) ([]*model.User, error) {
	if err := s.requireAdmin(ctx, adminID); err != nil {
		return nil, err
	}
	return s.userRepo.List(ctx, limit, offset)
}

func (s *UserService) adminTarget(ctx context.Context, adminID, targetTelegramID int64) (*model.User, error) {
	if err := s.requireAdmin(ctx, adminID); err != nil {
		return nil, err
	}

	target, err := s.userRepo.GetByTelegramID(ctx, targetTelegramID)
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}

	if target == nil {
		return nil, fmt.Errorf("user %d: %w", targetTelegramID, ErrNotFound)
	}

	return target, nil
}

func (s *UserService) requireAdmin(ctx context.Context, userID int64) error {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return fmt.Errorf("get user: %w", err)
	}

	if user == nil || !user.IsAdmin() {
		return fmt.Errorf("admin only: %w", ErrForbidden)
	}

	return nil
}
