package controller

import (
	"context"
	"strings"
	"time"

	"github.com/Freeeeeet/tutor_scheduler/internal/controller/handlers"
	"github.com/Freeeeeet/tutor_scheduler/internal/controller/state"
	"github.com/Freeeeeet/tutor_scheduler/internal/service"
	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"go.uber.org/zap"
)

// Services bundles what the bot commands call into.
type Services struct {
	Users         *service.UserService
	Schedule      *service.ScheduleService
	Enrollment    *service.EnrollmentService
	Forum         *service.ForumService
	Notifications *service.NotificationService
}

type BotController struct {
	bot          *bot.Bot
	handlers     *handlers.Handlers
	stateManager *state.Manager
	logger       *zap.Logger
}

func NewBotController(botInstance *bot.Bot, services Services, location *time.Location, logger *zap.Logger) *BotController {
	stateManager := state.NewManager(state.DefaultTTL)

	cmdHandlers := handlers.NewHandlers(
		services.Users,
		services.Schedule,
		services.Enrollment,
		services.Forum,
		services.Notifications,
		stateManager,
		location,
		logger,
	)

	return &BotController{
		bot:          botInstance,
		handlers:     cmdHandlers,
		stateManager: stateManager,
		logger:       logger,
	}
}

// Notify sends a plain message to a user's private chat.
func (c *BotController) Notify(ctx context.Context, telegramID int64, text string) error {
	_, err := c.bot.SendMessage(ctx, &bot.SendMessageParams{
		ChatID: telegramID,
		Text:   "🔔 " + text,
	})
	return err
}

func (c *BotController) RegisterHandlers(ctx context.Context) error {
	for cmd, h := range c.commandHandlers() {
		c.bot.RegisterHandlerMatchFunc(commandMatcher(cmd), h)
	}

	// dialog steps
	c.bot.RegisterHandlerMatchFunc(isDialogText, c.handlers.HandleTextMessage)

	return c.setCommands(ctx)
}

// commandHandlers maps every command to its handler. All of them go through
// commandMatcher so "/start@botname" works in group chats.
func (c *BotController) commandHandlers() map[string]bot.HandlerFunc {
	return map[string]bot.HandlerFunc{
		"/start":         c.handlers.HandleStart,
		"/help":          c.handlers.HandleHelp,
		"/becometutor":   c.handlers.HandleBecomeTutor,
		"/courses":       c.handlers.HandleCourses,
		"/myclasses":     c.handlers.HandleMyClasses,
		"/forum":         c.handlers.HandleForum,
		"/sessions":      c.handlers.HandleSessions,
		"/notifications": c.handlers.HandleNotifications,
		"/enroll":        c.handlers.HandleEnroll,
		"/class":         c.handlers.HandleClass,
		"/book":          c.handlers.HandleBook,
		"/cancel":        c.handlers.HandleCancel,
		"/week":          c.handlers.HandleWeek,
		"/thread":        c.handlers.HandleThread,
		"/post":          c.handlers.HandlePostStart,
		"/reply":         c.handlers.HandleReply,
		"/vote":          c.handlers.HandleVote,
		"/newclass":      c.handlers.HandleNewClass,
		"/newsession":    c.handlers.HandleNewSession,
		"/dropsession":   c.handlers.HandleDropSession,
		"/newcourse":     c.handlers.HandleNewCourse,
		"/users":         c.handlers.HandleUsers,
		"/setrole":       c.handlers.HandleSetRole,
		"/block":         c.handlers.HandleBlock,
		"/unblock":       c.handlers.HandleUnblock,
	}
}

// commandMatcher matches "/cmd", "/cmd args" and "/cmd@botname args",
// but not "/cmdother".
func commandMatcher(cmd string) bot.MatchFunc {
	return func(update *models.Update) bool {
		if update.Message == nil {
			return false
		}
		return commandName(update.Message.Text) == cmd
	}
}

func commandName(text string) string {
	word := text
	if i := strings.IndexAny(text, " \t\n"); i >= 0 {
		word = text[:i]
	}
	if i := strings.IndexByte(word, '@'); i >= 0 {
		word = word[:i]
	}
	return word
}

func isDialogText(update *models.Update) bool {
	return update.Message != nil &&
		update.Message.Text != "" &&
		!strings.HasPrefix(update.Message.Text, "/")
}

func (c *BotController) setCommands(ctx context.Context) error {
	commands := []models.BotCommand{
		{Command: "start", Description: "🚀 Start"},
		{Command: "help", Description: "❓ All commands"},
		{Command: "courses", Description: "📚 Courses and classes"},
		{Command: "sessions", Description: "🗓 My upcoming sessions"},
		{Command: "week", Description: "🖼 My week as a picture"},
		{Command: "forum", Description: "💬 Course forum"},
		{Command: "post", Description: "📝 Start a forum thread"},
		{Command: "notifications", Description: "🔔 Unread notifications"},
		{Command: "becometutor", Description: "🎓 Become a tutor"},
		{Command: "myclasses", Description: "📋 My classes (tutor)"},
	}

	_, err := c.bot.SetMyCommands(ctx, &bot.SetMyCommandsParams{
		Commands: commands,
	})
	if err != nil {
		c.logger.Error("Failed to set bot commands", zap.Error(err))
		return err
	}

	c.logger.Info("Bot commands menu set")
	return nil
}

// Start runs the update loop until ctx is done. Abandoned dialogs are
// swept in the background.
func (c *BotController) Start(ctx context.Context) {
	c.logger.Info("Starting bot")

	go func() {
		ticker := time.NewTicker(state.DefaultTTL)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if n := c.stateManager.Sweep(); n > 0 {
					c.logger.Debug("Expired dialogs removed", zap.Int("count", n))
				}
			case <-ctx.Done():
				return
			}
		}
	}()

	c.bot.Start(ctx)
}

// LoggingMiddleware logs every incoming message with its handling time.
func LoggingMiddleware(logger *zap.Logger) bot.Middleware {
	return func(next bot.HandlerFunc) bot.HandlerFunc {
		return func(ctx context.Context, b *bot.Bot, update *models.Update) {
			started := time.Now()
			next(ctx, b, update)

			if update.Message == nil || update.Message.From == nil {
				return
			}
			logger.Debug("Update handled",
				zap.Int64("update_id", update.ID),
				zap.Int64("telegram_id", update.Message.From.ID),
				zap.String("command", commandName(update.Message.Text)),
				zap.Duration("took", time.Since(started)),
			)
		}
	}
}
