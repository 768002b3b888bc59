package controller

import (
	"testing"

	"github.com/go-telegram/bot/models"

	"github.com/Freeeeeet/tutor_scheduler/internal/controller/handlers"
)

func TestCommandName(t *testing.T) {
	tests := map[string]string{
		"/book 12":           "/book",
		"/book@tutor_bot 12": "/book",
		"/cancel":            "/cancel",
		"/reply 3 hi\nthere": "/reply",
		"hello":              "hello",
	}
	for in, want := range tests {
		if got := commandName(in); got != want {
			t.Errorf("commandName(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestCommandMatcher(t *testing.T) {
	match := commandMatcher("/block")

	tests := []struct {
		text string
		want bool
	}{
		{"/block 42", true},
		{"/block", true},
		{"/blocked 42", false},
		{"/unblock 42", false},
		{"block 42", false},
	}
	for _, tt := range tests {
		update := &models.Update{Message: &models.Message{Text: tt.text}}
		if got := match(update); got != tt.want {
			t.Errorf("match(%q) = %v, want %v", tt.text, got, tt.want)
		}
	}

	if match(&models.Update{}) {
		t.Error("matched update without message")
	}
}

func TestCommandHandlers_MatchBotSuffix(t *testing.T) {
	c := &BotController{handlers: &handlers.Handlers{}}
	registered := c.commandHandlers()

	for _, cmd := range []string{"/start", "/help", "/courses", "/sessions", "/notifications", "/book"} {
		if _, ok := registered[cmd]; !ok {
			t.Errorf("%s is not registered", cmd)
		}
	}

	for cmd := range registered {
		match := commandMatcher(cmd)
		for _, text := range []string{cmd, cmd + "@tutor_bot", cmd + "@tutor_bot 7"} {
			if !match(&models.Update{Message: &models.Message{Text: text}}) {
				t.Errorf("%s does not match %q", cmd, text)
			}
		}
	}
}

func TestIsDialogText(t *testing.T) {
	if !isDialogText(&models.Update{Message: &models.Message{Text: "My title"}}) {
		t.Error("plain text not routed to dialog")
	}
	if isDialogText(&models.Update{Message: &models.Message{Text: "/help"}}) {
		t.Error("command routed to dialog")
	}
	if isDialogText(&models.Update{Message: &models.Message{}}) {
		t.Error("empty message routed to dialog")
	}
}
