package handlers

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/Freeeeeet/tutor_scheduler/internal/model"
	"github.com/Freeeeeet/tutor_scheduler/internal/scheduling"
	"github.com/Freeeeeet/tutor_scheduler/internal/service"
	"github.com/go-telegram/bot"
	"go.uber.org/zap"
)

func (h *Handlers) sendError(ctx context.Context, b *bot.Bot, chatID int64, text string) {
	_, err := b.SendMessage(ctx, &bot.SendMessageParams{
		ChatID: chatID,
		Text:   text,
	})
	if err != nil {
		h.logger.Error("Failed to send error message",
			zap.Int64("chat_id", chatID),
			zap.String("text", text),
			zap.Error(err),
		)
	}
}

func (h *Handlers) sendMessage(ctx context.Context, b *bot.Bot, chatID int64, text string) {
	_, err := b.SendMessage(ctx, &bot.SendMessageParams{
		ChatID: chatID,
		Text:   text,
	})
	if err != nil {
		h.logger.Error("Failed to send message",
			zap.Int64("chat_id", chatID),
			zap.Error(err),
		)
	}
}

// replyServiceError turns a service error into a chat message. Errors
// without a user-facing text are logged and reported generically.
func (h *Handlers) replyServiceError(ctx context.Context, b *bot.Bot, chatID int64, op string, err error) {
	text, known := errorText(err)
	if !known {
		h.logger.Error("Command failed", zap.String("op", op), zap.Error(err))
	}
	h.sendError(ctx, b, chatID, text)
}

// errorText maps domain errors to chat text. The bool is false for
// unexpected errors.
func errorText(err error) (string, bool) {
	var conflict *service.ConflictError
	if errors.As(err, &conflict) {
		var sb strings.Builder
		sb.WriteString("⚠️ This time overlaps with:\n")
		for _, c := range conflict.Conflicts {
			fmt.Fprintf(&sb, "• %s\n", formatRange(c))
		}
		return strings.TrimRight(sb.String(), "\n"), true
	}

	var rejected *service.ModerationError
	if errors.As(err, &rejected) {
		return "🚫 Your text was not accepted:\n• " + strings.Join(rejected.Verdict.Errors, "\n• "), true
	}

	switch {
	case errors.Is(err, service.ErrNotFound):
		return "❌ Not found.", true
	case errors.Is(err, service.ErrForbidden):
		return "❌ You are not allowed to do that.", true
	case errors.Is(err, service.ErrBlocked):
		return "🚫 Your account is blocked.", true
	case errors.Is(err, service.ErrSessionInPast):
		return "❌ That session has already started.", true
	case errors.Is(err, service.ErrSessionNotBookable):
		return "❌ That session is not open.", true
	case errors.Is(err, service.ErrSessionFull):
		return "😔 That session is full.", true
	case errors.Is(err, service.ErrAlreadyBooked):
		return "ℹ️ You already booked this session.", true
	case errors.Is(err, service.ErrBookingNotActive):
		return "ℹ️ That booking is already cancelled.", true
	case errors.Is(err, service.ErrAlreadyEnrolled):
		return "ℹ️ You are already enrolled in this course.", true
	case errors.Is(err, service.ErrClassFull):
		return "😔 That class is full.", true
	case errors.Is(err, service.ErrNoClassAvailable):
		return "😔 No class of this course has a free seat.", true
	case errors.Is(err, service.ErrCourseInactive):
		return "❌ That course is closed.", true
	case errors.Is(err, service.ErrInvalidVote):
		return "❌ Vote with up or down.", true
	case errors.Is(err, service.ErrEmptyTitle):
		return "❌ The title cannot be empty.", true
	case errors.Is(err, service.ErrEmptyName):
		return "❌ The name cannot be empty.", true
	case errors.Is(err, service.ErrInvalidCapacity):
		return "❌ Capacity must be a positive number.", true
	case errors.Is(err, scheduling.ErrInvalidInterval):
		return "❌ The session must end after it starts.", true
	}

	return "❌ Something went wrong. Please try again later.", false
}

// commandArgs returns the words after the command, e.g. "/book 12" -> ["12"].
func commandArgs(text string) []string {
	fields := strings.Fields(text)
	if len(fields) <= 1 {
		return nil
	}
	return fields[1:]
}

// commandRest returns everything after the first n arguments, verbatim.
func commandRest(text string, n int) string {
	rest := strings.TrimSpace(text)
	for i := 0; i <= n; i++ {
		idx := strings.IndexFunc(rest, isSpace)
		if idx < 0 {
			return ""
		}
		rest = strings.TrimSpace(rest[idx:])
	}
	return rest
}

func isSpace(r rune) bool {
	return r == ' ' || r == '\t' || r == '\n' || r == '\r'
}

func parseID(s string) (int64, bool) {
	id, err := strconv.ParseInt(strings.TrimPrefix(s, "#"), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

func formatRange(i scheduling.Interval) string {
	return i.Start.Format("Mon 02 Jan 15:04") + "-" + i.End.Format("15:04")
}

func sessionStatusEmoji(status model.SessionStatus) string {
	switch status {
	case model.SessionStatusScheduled:
		return "🟢"
	case model.SessionStatusCompleted:
		return "✅"
	case model.SessionStatusCancelled:
		return "⚪"
	default:
		return "•"
	}
}

func formatSession(s *model.Session) string {
	line := fmt.Sprintf("%s #%d %s %s", sessionStatusEmoji(s.Status), s.ID, formatRange(s.Interval()), s.Topic)
	if s.Capacity != nil {
		line += fmt.Sprintf(" (%d/%d)", s.BookedCount, *s.Capacity)
	}
	return line
}

func formatSessions(title string, sessions []*model.Session) string {
	if len(sessions) == 0 {
		return title + "\n\nNothing here yet."
	}
	var sb strings.Builder
	sb.WriteString(title)
	sb.WriteString("\n")
	for _, s := range sessions {
		sb.WriteString("\n")
		sb.WriteString(formatSession(s))
	}
	return sb.String()
}

func formatClass(c *model.Class) string {
	seats := "unlimited"
	if c.Capacity != nil {
		seats = fmt.Sprintf("%d/%d", c.EnrolledCount, *c.Capacity)
	}
	return fmt.Sprintf("#%d %s (%s)", c.ID, c.Name, seats)
}

func formatUser(u *model.User) string {
	name := strings.TrimSpace(u.FirstName + " " + u.LastName)
	if u.Username != "" {
		name += " @" + u.Username
	}
	line := fmt.Sprintf("%d %s [%s]", u.TelegramID, strings.TrimSpace(name), u.Role)
	if u.IsBlocked {
		line += " 🚫"
	}
	return line
}

func formatPost(p *model.ForumPost) string {
	return fmt.Sprintf("#%d ⭐%d %s\n%s", p.ID, p.Score, p.CreatedAt.Format("02 Jan 15:04"), p.Body)
}
