package handlers

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/Freeeeeet/tutor_scheduler/internal/model"
	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"go.uber.org/zap"
)

func (h *Handlers) HandleUsers(ctx context.Context, b *bot.Bot, update *models.Update) {
	admin, ok := h.requireAdmin(ctx, b, update)
	if !ok {
		return
	}
	chatID := update.Message.Chat.ID

	page := 1
	if args := commandArgs(update.Message.Text); len(args) > 0 {
		n, err := strconv.Atoi(args[0])
		if err != nil || n < 1 {
			h.sendError(ctx, b, chatID, "Usage: /users [page]")
			return
		}
		page = n
	}

	users, err := h.userService.ListUsers(ctx, admin.ID, UsersPageSize, (page-1)*UsersPageSize)
	if err != nil {
		h.replyServiceError(ctx, b, chatID, "list users", err)
		return
	}

	if len(users) == 0 {
		h.sendMessage(ctx, b, chatID, "👥 No users on this page.")
		return
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "👥 Users, page %d\n", page)
	for _, u := range users {
		sb.WriteString("\n" + formatUser(u))
	}
	h.sendMessage(ctx, b, chatID, sb.String())
}

func (h *Handlers) HandleSetRole(ctx context.Context, b *bot.Bot, update *models.Update) {
	admin, ok := h.requireAdmin(ctx, b, update)
	if !ok {
		return
	}
	chatID := update.Message.Chat.ID

	const usage = "Usage: /setrole <telegram_id> <student|tutor|admin>"
	args := commandArgs(update.Message.Text)
	if len(args) < 2 {
		h.sendError(ctx, b, chatID, usage)
		return
	}

	telegramID, valid := parseID(args[0])
	role, roleOK := model.ParseRole(strings.ToLower(args[1]))
	if !valid || !roleOK {
		h.sendError(ctx, b, chatID, usage)
		return
	}

	user, err := h.userService.SetRole(ctx, admin.ID, telegramID, role)
	if err != nil {
		h.replyServiceError(ctx, b, chatID, "set role", err)
		return
	}

	h.sendMessage(ctx, b, chatID, "✅ "+formatUser(user))
}

func (h *Handlers) HandleBlock(ctx context.Context, b *bot.Bot, update *models.Update) {
	h.setBlocked(ctx, b, update, true)
}

func (h *Handlers) HandleUnblock(ctx context.Context, b *bot.Bot, update *models.Update) {
	h.setBlocked(ctx, b, update, false)
}

func (h *Handlers) setBlocked(ctx context.Context, b *bot.Bot, update *models.Update, blocked bool) {
	admin, ok := h.requireAdmin(ctx, b, update)
	if !ok {
		return
	}
	chatID := update.Message.Chat.ID

	telegramID, valid := firstID(commandArgs(update.Message.Text))
	if !valid {
		h.sendError(ctx, b, chatID, "Usage: /block <telegram_id> or /unblock <telegram_id>")
		return
	}

	user, err := h.userService.SetBlocked(ctx, admin.ID, telegramID, blocked)
	if err != nil {
		h.replyServiceError(ctx, b, chatID, "set blocked", err)
		return
	}

	if blocked {
		if err := h.forumService.ForgetAuthor(ctx, user.ID); err != nil {
			h.logger.Warn("Failed to drop moderation history", zap.Int64("user_id", user.ID), zap.Error(err))
		}
	}

	h.sendMessage(ctx, b, chatID, "✅ "+formatUser(user))
}

func (h *Handlers) HandleNewCourse(ctx context.Context, b *bot.Bot, update *models.Update) {
	admin, ok := h.requireAdmin(ctx, b, update)
	if !ok {
		return
	}
	chatID := update.Message.Chat.ID

	args := commandArgs(update.Message.Text)
	name := commandRest(update.Message.Text, 1)
	if len(args) < 2 || name == "" {
		h.sendError(ctx, b, chatID, "Usage: /newcourse <code> <name>")
		return
	}

	course, err := h.enrollmentService.CreateCourse(ctx, admin.ID, args[0], name)
	if err != nil {
		h.replyServiceError(ctx, b, chatID, "create course", err)
		return
	}

	h.sendMessage(ctx, b, chatID, fmt.Sprintf("✅ Course #%d %s %s created.", course.ID, course.Code, course.Name))
}
