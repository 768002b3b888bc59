package handlers

import (
	"context"

	"github.com/Freeeeeet/tutor_scheduler/internal/model"
	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"go.uber.org/zap"
)

// requireUser loads the registered sender of the message.
// It replies to the chat itself when the user cannot be used.
func (h *Handlers) requireUser(ctx context.Context, b *bot.Bot, update *models.Update) (*model.User, bool) {
	if update.Message == nil || update.Message.From == nil {
		return nil, false
	}

	telegramID := update.Message.From.ID
	user, err := h.userService.GetByTelegramID(ctx, telegramID)
	if err != nil {
		h.logger.Error("Failed to get user", zap.Int64("telegram_id", telegramID), zap.Error(err))
		h.sendError(ctx, b, update.Message.Chat.ID, "❌ Something went wrong. Please try again later.")
		return nil, false
	}

	if user == nil {
		h.sendError(ctx, b, update.Message.Chat.ID, "❌ You are not registered yet. Send /start first.")
		return nil, false
	}

	if user.IsBlocked {
		h.sendError(ctx, b, update.Message.Chat.ID, "🚫 Your account is blocked.")
		return nil, false
	}

	return user, true
}

func (h *Handlers) requireTutor(ctx context.Context, b *bot.Bot, update *models.Update) (*model.User, bool) {
	user, ok := h.requireUser(ctx, b, update)
	if !ok {
		return nil, false
	}

	if !user.IsTutor() {
		h.sendError(ctx, b, update.Message.Chat.ID, "❌ This command is for tutors.\n\nBecome a tutor: /becometutor")
		return nil, false
	}

	return user, true
}

func (h *Handlers) requireAdmin(ctx context.Context, b *bot.Bot, update *models.Update) (*model.User, bool) {
	user, ok := h.requireUser(ctx, b, update)
	if !ok {
		return nil, false
	}

	if !user.IsAdmin() {
		h.sendError(ctx, b, update.Message.Chat.ID, "❌ This command is for admins.")
		return nil, false
	}

	return user, true
}
