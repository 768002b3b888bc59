package handlers

import (
	"bytes"
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/Freeeeeet/tutor_scheduler/internal/model"
	"github.com/Freeeeeet/tutor_scheduler/internal/render"
	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"go.uber.org/zap"
)

func (h *Handlers) HandleCourses(ctx context.Context, b *bot.Bot, update *models.Update) {
	if _, ok := h.requireUser(ctx, b, update); !ok {
		return
	}
	chatID := update.Message.Chat.ID

	courses, err := h.enrollmentService.Courses(ctx)
	if err != nil {
		h.replyServiceError(ctx, b, chatID, "list courses", err)
		return
	}

	if len(courses) == 0 {
		h.sendMessage(ctx, b, chatID, "📚 No courses are open yet.")
		return
	}

	var sb strings.Builder
	sb.WriteString("📚 Courses\n")
	for _, c := range courses {
		fmt.Fprintf(&sb, "\n#%d %s %s\n", c.ID, c.Code, c.Name)

		classes, err := h.enrollmentService.CourseClasses(ctx, c.ID)
		if err != nil {
			h.replyServiceError(ctx, b, chatID, "list classes", err)
			return
		}
		for _, cl := range classes {
			sb.WriteString("   " + formatClass(cl) + "\n")
		}
	}
	sb.WriteString("\nJoin with /enroll <course_id>")

	h.sendMessage(ctx, b, chatID, sb.String())
}

func (h *Handlers) HandleEnroll(ctx context.Context, b *bot.Bot, update *models.Update) {
	user, ok := h.requireUser(ctx, b, update)
	if !ok {
		return
	}
	chatID := update.Message.Chat.ID

	args := commandArgs(update.Message.Text)
	courseID, valid := firstID(args)
	if !valid {
		h.sendError(ctx, b, chatID, "Usage: /enroll <course_id>")
		return
	}

	_, class, err := h.enrollmentService.AutoEnroll(ctx, user.ID, courseID)
	if err != nil {
		h.replyServiceError(ctx, b, chatID, "auto enroll", err)
		return
	}

	h.sendMessage(ctx, b, chatID, fmt.Sprintf(
		"✅ You joined class %s.\n\nSee its sessions with /class %d", class.Name, class.ID))
}

func (h *Handlers) HandleClass(ctx context.Context, b *bot.Bot, update *models.Update) {
	if _, ok := h.requireUser(ctx, b, update); !ok {
		return
	}
	chatID := update.Message.Chat.ID

	classID, valid := firstID(commandArgs(update.Message.Text))
	if !valid {
		h.sendError(ctx, b, chatID, "Usage: /class <class_id>")
		return
	}

	sessions, err := h.scheduleService.ClassSessions(ctx, classID)
	if err != nil {
		h.replyServiceError(ctx, b, chatID, "class sessions", err)
		return
	}

	h.sendMessage(ctx, b, chatID, formatSessions(
		fmt.Sprintf("🗓 Upcoming sessions of class #%d", classID), h.localize(sessions))+
		"\n\nBook with /book <session_id>")
}

func (h *Handlers) HandleBook(ctx context.Context, b *bot.Bot, update *models.Update) {
	user, ok := h.requireUser(ctx, b, update)
	if !ok {
		return
	}
	chatID := update.Message.Chat.ID

	sessionID, valid := firstID(commandArgs(update.Message.Text))
	if !valid {
		h.sendError(ctx, b, chatID, "Usage: /book <session_id>")
		return
	}

	booking, err := h.scheduleService.BookSession(ctx, user.ID, sessionID)
	if err != nil {
		h.replyServiceError(ctx, b, chatID, "book session", err)
		return
	}

	h.sendMessage(ctx, b, chatID, fmt.Sprintf(
		"✅ Booked!\n\n%s\n\nBooking #%d, cancel with /cancel %d",
		formatSession(h.localizeOne(booking.Session)), booking.ID, booking.ID))
}

func (h *Handlers) cancelBooking(ctx context.Context, b *bot.Bot, update *models.Update, arg string) {
	user, ok := h.requireUser(ctx, b, update)
	if !ok {
		return
	}
	chatID := update.Message.Chat.ID

	bookingID, valid := parseID(arg)
	if !valid {
		h.sendError(ctx, b, chatID, "Usage: /cancel <booking_id>")
		return
	}

	if err := h.scheduleService.CancelBooking(ctx, user.ID, bookingID); err != nil {
		h.replyServiceError(ctx, b, chatID, "cancel booking", err)
		return
	}

	h.sendMessage(ctx, b, chatID, fmt.Sprintf("✅ Booking #%d cancelled.", bookingID))
}

// HandleSessions lists the user's upcoming sessions: bookings, plus own
// sessions for tutors.
func (h *Handlers) HandleSessions(ctx context.Context, b *bot.Bot, update *models.Update) {
	user, ok := h.requireUser(ctx, b, update)
	if !ok {
		return
	}
	chatID := update.Message.Chat.ID

	from := time.Now()
	to := from.Add(SessionsHorizon)

	sessions, err := h.userSessions(ctx, user, from, to)
	if err != nil {
		h.replyServiceError(ctx, b, chatID, "list sessions", err)
		return
	}

	h.sendMessage(ctx, b, chatID, formatSessions("🗓 Your next two weeks", h.localize(sessions)))
}

func (h *Handlers) HandleWeek(ctx context.Context, b *bot.Bot, update *models.Update) {
	user, ok := h.requireUser(ctx, b, update)
	if !ok {
		return
	}
	chatID := update.Message.Chat.ID

	day := time.Now().In(h.location)
	if args := commandArgs(update.Message.Text); len(args) > 0 {
		parsed, err := time.ParseInLocation(DateLayout, args[0], h.location)
		if err != nil {
			h.sendError(ctx, b, chatID, "Usage: /week [YYYY-MM-DD]")
			return
		}
		day = parsed
	}

	start := render.WeekStart(day)
	sessions, err := h.userSessions(ctx, user, start, start.AddDate(0, 0, 7))
	if err != nil {
		h.replyServiceError(ctx, b, chatID, "week sessions", err)
		return
	}

	img, err := render.WeekImage(start, h.localize(sessions))
	if err != nil {
		h.logger.Error("Failed to render week", zap.Int64("user_id", user.ID), zap.Error(err))
		h.sendError(ctx, b, chatID, "❌ Could not draw your week.")
		return
	}

	_, err = b.SendPhoto(ctx, &bot.SendPhotoParams{
		ChatID: chatID,
		Photo: &models.InputFileUpload{
			Filename: "week.png",
			Data:     bytes.NewReader(img),
		},
		Caption: fmt.Sprintf("🗓 Week of %s, %d sessions", start.Format("02 Jan 2006"), len(sessions)),
	})
	if err != nil {
		h.logger.Error("Failed to send week image", zap.Int64("chat_id", chatID), zap.Error(err))
	}
}

func (h *Handlers) HandleNotifications(ctx context.Context, b *bot.Bot, update *models.Update) {
	user, ok := h.requireUser(ctx, b, update)
	if !ok {
		return
	}
	chatID := update.Message.Chat.ID

	unread, err := h.notificationService.Unread(ctx, user.ID)
	if err != nil {
		h.replyServiceError(ctx, b, chatID, "unread notifications", err)
		return
	}

	if len(unread) == 0 {
		h.sendMessage(ctx, b, chatID, "🔔 No new notifications.")
		return
	}

	var sb strings.Builder
	sb.WriteString("🔔 Notifications\n")
	for _, n := range unread {
		fmt.Fprintf(&sb, "\n%s %s", n.CreatedAt.In(h.location).Format("02 Jan 15:04"), n.Text)
	}
	h.sendMessage(ctx, b, chatID, sb.String())

	if _, err := h.notificationService.MarkAllRead(ctx, user.ID); err != nil {
		h.logger.Warn("Failed to mark notifications read", zap.Int64("user_id", user.ID), zap.Error(err))
	}
}

func (h *Handlers) userSessions(ctx context.Context, user *model.User, from, to time.Time) ([]*model.Session, error) {
	sessions, err := h.scheduleService.StudentSessions(ctx, user.ID, from, to)
	if err != nil {
		return nil, err
	}

	if user.IsTutor() {
		own, err := h.scheduleService.TutorSessions(ctx, user.ID, from, to)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, own...)
		sort.Slice(sessions, func(i, j int) bool {
			return sessions[i].StartTime.Before(sessions[j].StartTime)
		})
	}

	return sessions, nil
}

// localize converts session times to the bot's display zone.
func (h *Handlers) localize(sessions []*model.Session) []*model.Session {
	out := make([]*model.Session, 0, len(sessions))
	for _, s := range sessions {
		out = append(out, h.localizeOne(s))
	}
	return out
}

func (h *Handlers) localizeOne(s *model.Session) *model.Session {
	if s == nil {
		return nil
	}
	cp := *s
	cp.StartTime = s.StartTime.In(h.location)
	cp.EndTime = s.EndTime.In(h.location)
	return &cp
}

func firstID(args []string) (int64, bool) {
	if len(args) == 0 {
		return 0, false
	}
	return parseID(args[0])
}
