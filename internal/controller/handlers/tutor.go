package handlers

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

type newSessionArgs struct {
	classID  int64
	start    time.Time
	duration time.Duration
	capacity *int
	topic    string
}

var errNewSessionUsage = errors.New("usage: /newsession <class_id> <YYYY-MM-DD HH:MM> <minutes> [capacity|-] [topic]")

// parseNewSessionArgs reads "<class_id> <date> <time> <minutes> [capacity|-] [topic...]".
func parseNewSessionArgs(args []string, loc *time.Location) (newSessionArgs, error) {
	var out newSessionArgs
	if len(args) < 4 {
		return out, errNewSessionUsage
	}

	classID, ok := parseID(args[0])
	if !ok {
		return out, errNewSessionUsage
	}
	out.classID = classID

	start, err := time.ParseInLocation(DateTimeLayout, args[1]+" "+args[2], loc)
	if err != nil {
		return out, fmt.Errorf("start time must look like 2025-03-14 16:30: %w", errNewSessionUsage)
	}
	out.start = start

	minutes, err := strconv.Atoi(args[3])
	if err != nil || minutes < MinSessionMinutes || minutes > MaxSessionMinutes {
		return out, fmt.Errorf("duration must be %d-%d minutes: %w", MinSessionMinutes, MaxSessionMinutes, errNewSessionUsage)
	}
	out.duration = time.Duration(minutes) * time.Minute

	rest := args[4:]
	if len(rest) > 0 {
		capacity, isCapacity, err := parseCapacity(rest[0])
		if err != nil {
			return out, err
		}
		if isCapacity {
			out.capacity = capacity
			rest = rest[1:]
		}
	}

	out.topic = strings.Join(rest, " ")
	if n := len([]rune(out.topic)); n > TopicMaxLength {
		return out, fmt.Errorf("topic is longer than %d characters", TopicMaxLength)
	}

	return out, nil
}

// parseCapacity accepts "-" for unlimited or a positive number. Other words
// are not capacities and are reported with isCapacity=false.
func parseCapacity(s string) (capacity *int, isCapacity bool, err error) {
	if s == "-" {
		return nil, true, nil
	}
	n, convErr := strconv.Atoi(s)
	if convErr != nil {
		return nil, false, nil
	}
	if n <= 0 {
		return nil, true, errors.New("capacity must be a positive number or -")
	}
	return &n, true, nil
}

func (h *Handlers) HandleMyClasses(ctx context.Context, b *bot.Bot, update *models.Update) {
	tutor, ok := h.requireTutor(ctx, b, update)
	if !ok {
		return
	}
	chatID := update.Message.Chat.ID

	classes, err := h.enrollmentService.TutorClasses(ctx, tutor.ID)
	if err != nil {
		h.replyServiceError(ctx, b, chatID, "tutor classes", err)
		return
	}

	if len(classes) == 0 {
		h.sendMessage(ctx, b, chatID, "📝 You have no classes yet.\n\nOpen one with /newclass <course_id> <capacity|-> <name>")
		return
	}

	var sb strings.Builder
	sb.WriteString("📝 Your classes\n")
	for _, c := range classes {
		sb.WriteString("\n" + formatClass(c))
	}
	h.sendMessage(ctx, b, chatID, sb.String())
}

func (h *Handlers) HandleNewClass(ctx context.Context, b *bot.Bot, update *models.Update) {
	tutor, ok := h.requireTutor(ctx, b, update)
	if !ok {
		return
	}
	chatID := update.Message.Chat.ID

	const usage = "Usage: /newclass <course_id> <capacity|-> <name>"
	args := commandArgs(update.Message.Text)
	if len(args) < 3 {
		h.sendError(ctx, b, chatID, usage)
		return
	}

	courseID, valid := parseID(args[0])
	if !valid {
		h.sendError(ctx, b, chatID, usage)
		return
	}

	capacity, isCapacity, err := parseCapacity(args[1])
	if err != nil || !isCapacity {
		h.sendError(ctx, b, chatID, usage)
		return
	}

	class, err := h.enrollmentService.CreateClass(ctx, tutor.ID, courseID, commandRest(update.Message.Text, 2), capacity)
	if err != nil {
		h.replyServiceError(ctx, b, chatID, "create class", err)
		return
	}

	h.sendMessage(ctx, b, chatID, "✅ Class opened: "+formatClass(class))
}

func (h *Handlers) HandleNewSession(ctx context.Context, b *bot.Bot, update *models.Update) {
	tutor, ok := h.requireTutor(ctx, b, update)
	if !ok {
		return
	}
	chatID := update.Message.Chat.ID

	args, err := parseNewSessionArgs(commandArgs(update.Message.Text), h.location)
	if err != nil {
		h.sendError(ctx, b, chatID, "❌ "+err.Error())
		return
	}

	session, err := h.scheduleService.CreateSession(ctx, tutor.ID, args.classID, args.topic, args.start, args.duration, args.capacity)
	if err != nil {
		h.replyServiceError(ctx, b, chatID, "create session", err)
		return
	}

	h.sendMessage(ctx, b, chatID, "✅ Session scheduled:\n"+formatSession(h.localizeOne(session)))
}

func (h *Handlers) HandleDropSession(ctx context.Context, b *bot.Bot, update *models.Update) {
	tutor, ok := h.requireTutor(ctx, b, update)
	if !ok {
		return
	}
	chatID := update.Message.Chat.ID

	sessionID, valid := firstID(commandArgs(update.Message.Text))
	if !valid {
		h.sendError(ctx, b, chatID, "Usage: /dropsession <session_id>")
		return
	}

	if err := h.scheduleService.CancelSession(ctx, tutor.ID, sessionID); err != nil {
		h.replyServiceError(ctx, b, chatID, "cancel session", err)
		return
	}

	h.sendMessage(ctx, b, chatID, fmt.Sprintf("✅ Session #%d cancelled. Booked students were notified.", sessionID))
}
