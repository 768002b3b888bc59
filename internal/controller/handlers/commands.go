package handlers

import (
	"context"
	"fmt"
	"strings"

	"github.com/Freeeeeet/tutor_scheduler/internal/controller/state"
	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"go.uber.org/zap"
)

const helpText = "📚 Commands\n\n" +
	"Students:\n" +
	"/courses - Courses and their classes\n" +
	"/enroll <course_id> - Join the best class of a course\n" +
	"/class <class_id> - Upcoming sessions of a class\n" +
	"/book <session_id> - Book a session\n" +
	"/cancel <booking_id> - Cancel a booking\n" +
	"/sessions - Your upcoming sessions\n" +
	"/week [YYYY-MM-DD] - Your week as a picture\n" +
	"/notifications - Unread notifications\n\n" +
	"Forum:\n" +
	"/forum - Latest threads\n" +
	"/thread <id> - Read a thread\n" +
	"/post [course_id] - Start a thread\n" +
	"/reply <thread_id> <text> - Reply to a thread\n" +
	"/vote <post_id> <up|down> - Vote on a post\n\n" +
	"Tutors:\n" +
	"/becometutor - Register as a tutor\n" +
	"/myclasses - Your classes\n" +
	"/newclass <course_id> <capacity|-> <name> - Open a class\n" +
	"/newsession <class_id> <YYYY-MM-DD HH:MM> <minutes> [capacity] [topic] - Schedule a session\n" +
	"/dropsession <session_id> - Cancel a session\n\n" +
	"Admins:\n" +
	"/newcourse <code> <name>\n" +
	"/users [page]\n" +
	"/setrole <telegram_id> <student|tutor|admin>\n" +
	"/block <telegram_id>, /unblock <telegram_id>\n\n" +
	"/cancel without arguments stops the current dialog."

func (h *Handlers) HandleStart(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.Message == nil || update.Message.From == nil {
		return
	}

	from := update.Message.From

	user, err := h.userService.RegisterUser(ctx, from.ID, from.Username, from.FirstName, from.LastName, from.LanguageCode)
	if err != nil {
		h.logger.Error("Failed to register user", zap.Int64("telegram_id", from.ID), zap.Error(err))
		h.sendError(ctx, b, update.Message.Chat.ID, "❌ Registration failed. Please try again later.")
		return
	}

	name := user.FirstName
	if name == "" {
		name = user.Username
	}

	h.sendMessage(ctx, b, update.Message.Chat.ID, fmt.Sprintf(
		"👋 Hi, %s!\n\nI help you book tutoring sessions, join classes and talk on the course forum.\n\n%s",
		name, helpText))
}

func (h *Handlers) HandleHelp(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.Message == nil {
		return
	}
	h.sendMessage(ctx, b, update.Message.Chat.ID, helpText)
}

func (h *Handlers) HandleBecomeTutor(ctx context.Context, b *bot.Bot, update *models.Update) {
	if _, ok := h.requireUser(ctx, b, update); !ok {
		return
	}

	user, err := h.userService.BecomeTutor(ctx, update.Message.From.ID)
	if err != nil {
		h.replyServiceError(ctx, b, update.Message.Chat.ID, "become tutor", err)
		return
	}

	h.sendMessage(ctx, b, update.Message.Chat.ID, fmt.Sprintf(
		"🎓 You are now a %s.\n\nOpen a class with /newclass, then schedule sessions with /newsession.", user.Role))
}

// HandleCancel stops the active dialog, or cancels a booking when an ID is given.
func (h *Handlers) HandleCancel(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.Message == nil || update.Message.From == nil {
		return
	}

	args := commandArgs(update.Message.Text)
	if len(args) == 0 {
		h.cancelDialog(ctx, b, update)
		return
	}

	h.cancelBooking(ctx, b, update, args[0])
}

func (h *Handlers) cancelDialog(ctx context.Context, b *bot.Bot, update *models.Update) {
	telegramID := update.Message.From.ID

	if h.stateManager.GetState(telegramID) == state.StateNone {
		h.sendMessage(ctx, b, update.Message.Chat.ID, "Nothing to cancel.\n\nTo cancel a booking: /cancel <booking_id>")
		return
	}

	h.stateManager.ClearState(telegramID)
	h.sendMessage(ctx, b, update.Message.Chat.ID, "✅ Cancelled.")
}

// HandleTextMessage routes plain text to the user's active dialog.
func (h *Handlers) HandleTextMessage(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.Message == nil || update.Message.From == nil || update.Message.Text == "" {
		return
	}

	// commands have their own handlers
	if strings.HasPrefix(update.Message.Text, "/") {
		return
	}

	telegramID := update.Message.From.ID
	currentState := h.stateManager.GetState(telegramID)

	switch currentState {
	case state.StateNone:
		return
	case state.StatePostTitle:
		h.handlePostTitleStep(ctx, b, update)
	case state.StatePostBody:
		h.handlePostBodyStep(ctx, b, update)
	default:
		h.logger.Warn("Unknown dialog state",
			zap.Int64("telegram_id", telegramID),
			zap.String("state", string(currentState)))
		h.stateManager.ClearState(telegramID)
	}
}
