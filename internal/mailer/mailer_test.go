package mailer

import (
	"context"
	"strings"
	"testing"
	"time"

	"watchtower/internal/config"
)

func TestNewMailerDisabledWithoutHost(t *testing.T) {
	m, err := NewMailer(config.Config{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if m.Enabled() {
		t.Fatal("expected mailer to be disabled without SMTP host")
	}
	if err := m.SendAlert(context.Background(), "ops@example.com", "https://img", time.Now()); err != nil {
		t.Fatalf("disabled mailer must swallow sends, got %v", err)
	}
}

func TestNewMailerRequiresSender(t *testing.T) {
	_, err := NewMailer(config.Config{SMTPHost: "smtp.example.com", SMTPPort: 587})
	if err == nil {
		t.Fatal("expected error when neither SMTP_FROM nor SMTP_USERNAME is set")
	}
}

func TestAlertBodyContainsImageURLAndTimestamp(t *testing.T) {
	capturedAt := time.Date(2025, 6, 1, 12, 30, 0, 0, time.UTC)
	body := alertBody("https://blob.example.com/events/1.jpg", capturedAt)

	if !strings.Contains(body, "https://blob.example.com/events/1.jpg") {
		t.Fatal("expected body to embed the image URL")
	}
	if !strings.Contains(body, capturedAt.Format(time.RFC1123)) {
		t.Fatal("expected body to embed the capture timestamp")
	}
	if !strings.Contains(body, "Motion Detected") {
		t.Fatal("expected alert headline")
	}
}
