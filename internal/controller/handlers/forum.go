package handlers

import (
	"context"
	"fmt"
	"strings"

	"github.com/Freeeeeet/tutor_scheduler/internal/controller/state"
	"github.com/Freeeeeet/tutor_scheduler/internal/model"
	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"go.uber.org/zap"
)

func (h *Handlers) HandleForum(ctx context.Context, b *bot.Bot, update *models.Update) {
	if _, ok := h.requireUser(ctx, b, update); !ok {
		return
	}
	chatID := update.Message.Chat.ID

	threads, err := h.forumService.Threads(ctx, ThreadListLimit)
	if err != nil {
		h.replyServiceError(ctx, b, chatID, "list threads", err)
		return
	}

	if len(threads) == 0 {
		h.sendMessage(ctx, b, chatID, "💬 The forum is empty. Start a thread with /post")
		return
	}

	var sb strings.Builder
	sb.WriteString("💬 Latest threads\n")
	for _, t := range threads {
		fmt.Fprintf(&sb, "\n#%d %s", t.ID, t.Title)
		if t.CourseID != nil {
			fmt.Fprintf(&sb, " [course %d]", *t.CourseID)
		}
	}
	sb.WriteString("\n\nRead one with /thread <id>")
	h.sendMessage(ctx, b, chatID, sb.String())
}

func (h *Handlers) HandleThread(ctx context.Context, b *bot.Bot, update *models.Update) {
	if _, ok := h.requireUser(ctx, b, update); !ok {
		return
	}
	chatID := update.Message.Chat.ID

	threadID, valid := firstID(commandArgs(update.Message.Text))
	if !valid {
		h.sendError(ctx, b, chatID, "Usage: /thread <id>")
		return
	}

	thread, err := h.forumService.Thread(ctx, threadID)
	if err != nil {
		h.replyServiceError(ctx, b, chatID, "get thread", err)
		return
	}

	posts, err := h.forumService.ThreadPosts(ctx, threadID)
	if err != nil {
		h.replyServiceError(ctx, b, chatID, "thread posts", err)
		return
	}

	h.sendMessage(ctx, b, chatID, formatThread(thread, posts))
}

func formatThread(thread *model.ForumThread, posts []*model.ForumPost) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "💬 #%d %s\n", thread.ID, thread.Title)
	for _, p := range posts {
		sb.WriteString("\n")
		sb.WriteString(formatPost(p))
		sb.WriteString("\n")
	}
	fmt.Fprintf(&sb, "\nReply: /reply %d <text>\nVote: /vote <post_id> up|down", thread.ID)
	return sb.String()
}

// HandlePostStart opens the two-step thread dialog: title, then body.
func (h *Handlers) HandlePostStart(ctx context.Context, b *bot.Bot, update *models.Update) {
	if _, ok := h.requireUser(ctx, b, update); !ok {
		return
	}
	chatID := update.Message.Chat.ID
	telegramID := update.Message.From.ID

	h.stateManager.ClearState(telegramID)

	if args := commandArgs(update.Message.Text); len(args) > 0 {
		courseID, valid := parseID(args[0])
		if !valid {
			h.sendError(ctx, b, chatID, "Usage: /post [course_id]")
			return
		}
		h.stateManager.SetData(telegramID, state.KeyCourseID, courseID)
	}

	h.stateManager.SetState(telegramID, state.StatePostTitle)

	h.sendMessage(ctx, b, chatID, "📝 New thread\n\nStep 1 of 2: send the title.\n\n/cancel to stop")
}

func (h *Handlers) handlePostTitleStep(ctx context.Context, b *bot.Bot, update *models.Update) {
	chatID := update.Message.Chat.ID
	telegramID := update.Message.From.ID
	title := strings.TrimSpace(update.Message.Text)

	if title == "" {
		h.sendError(ctx, b, chatID, "❌ The title cannot be empty. Try again:")
		return
	}
	if n := len([]rune(title)); n > TitleMaxLength {
		h.sendError(ctx, b, chatID, fmt.Sprintf("❌ The title is too long (maximum %d characters). Try again:", TitleMaxLength))
		return
	}

	h.stateManager.SetData(telegramID, state.KeyTitle, title)
	h.stateManager.SetState(telegramID, state.StatePostBody)

	h.sendMessage(ctx, b, chatID, fmt.Sprintf("✅ Title: %s\n\nStep 2 of 2: send the text of your post.\n\n/cancel to stop", title))
}

func (h *Handlers) handlePostBodyStep(ctx context.Context, b *bot.Bot, update *models.Update) {
	user, ok := h.requireUser(ctx, b, update)
	if !ok {
		h.stateManager.ClearState(update.Message.From.ID)
		return
	}
	chatID := update.Message.Chat.ID
	telegramID := update.Message.From.ID

	title := h.stateManager.GetString(telegramID, state.KeyTitle)
	var courseID *int64
	if v, found := h.stateManager.GetData(telegramID, state.KeyCourseID); found {
		if id, isID := v.(int64); isID {
			courseID = &id
		}
	}

	thread, _, err := h.forumService.CreateThread(ctx, user.ID, courseID, title, update.Message.Text)
	if err != nil {
		// stay on the body step so the user can fix the text
		h.replyServiceError(ctx, b, chatID, "create thread", err)
		return
	}

	h.stateManager.ClearState(telegramID)

	h.logger.Info("Thread posted from bot",
		zap.Int64("telegram_id", telegramID),
		zap.Int64("thread_id", thread.ID))

	h.sendMessage(ctx, b, chatID, fmt.Sprintf("✅ Thread #%d posted.\n\nOpen it with /thread %d", thread.ID, thread.ID))
}

func (h *Handlers) HandleReply(ctx context.Context, b *bot.Bot, update *models.Update) {
	user, ok := h.requireUser(ctx, b, update)
	if !ok {
		return
	}
	chatID := update.Message.Chat.ID

	threadID, valid := firstID(commandArgs(update.Message.Text))
	body := commandRest(update.Message.Text, 1)
	if !valid || body == "" {
		h.sendError(ctx, b, chatID, "Usage: /reply <thread_id> <text>")
		return
	}

	post, err := h.forumService.Reply(ctx, user.ID, threadID, body)
	if err != nil {
		h.replyServiceError(ctx, b, chatID, "reply", err)
		return
	}

	h.sendMessage(ctx, b, chatID, fmt.Sprintf("✅ Reply #%d posted.", post.ID))
}

func (h *Handlers) HandleVote(ctx context.Context, b *bot.Bot, update *models.Update) {
	user, ok := h.requireUser(ctx, b, update)
	if !ok {
		return
	}
	chatID := update.Message.Chat.ID

	args := commandArgs(update.Message.Text)
	postID, valid := firstID(args)
	if !valid || len(args) < 2 {
		h.sendError(ctx, b, chatID, "Usage: /vote <post_id> <up|down>")
		return
	}

	value, valid := parseVote(args[1])
	if !valid {
		h.sendError(ctx, b, chatID, "Usage: /vote <post_id> <up|down>")
		return
	}

	score, err := h.forumService.Vote(ctx, user.ID, postID, value)
	if err != nil {
		h.replyServiceError(ctx, b, chatID, "vote", err)
		return
	}

	h.sendMessage(ctx, b, chatID, fmt.Sprintf("⭐ Post #%d now has score %d.", postID, score))
}

func parseVote(s string) (int, bool) {
	switch strings.ToLower(s) {
	case "up", "+", "+1", "👍":
		return model.VoteUp, true
	case "down", "-", "-1", "👎":
		return model.VoteDown, true
	}
	return 0, false
}
