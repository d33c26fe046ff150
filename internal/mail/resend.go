// Package mail relays application email through the Resend HTTP API.
package mail

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"html"
	"io"
	"net/http"
	"time"
)

const resendEndpoint = "https://api.resend.com/emails"

// Sender posts emails to Resend.
type Sender struct {
	apiKey     string
	fromEmail  string
	httpClient *http.Client
}

// NewSender builds a sender. Returns nil when the API key is missing; the
// handlers then report mail features unavailable.
func NewSender(apiKey, fromEmail string) *Sender {
	if apiKey == "" {
		return nil
	}
	if fromEmail == "" {
		fromEmail = "Salin <noreply@salinmt.com>"
	}
	return &Sender{
		apiKey:    apiKey,
		fromEmail: fromEmail,
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

type message struct {
	From    string `json:"from"`
	To      string `json:"to"`
	ReplyTo string `json:"reply_to,omitempty"`
	Subject string `json:"subject"`
	HTML    string `json:"html"`
}

func (s *Sender) send(ctx context.Context, m message) error {
	body, err := json.Marshal(m)
	if err != nil {
		return fmt.Errorf("encoding message: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, resendEndpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+s.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("posting to resend: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("resend returned %d: %s", resp.StatusCode, detail)
	}
	return nil
}

// Feedback is a user-submitted feedback message.
type Feedback struct {
	Type      string
	Message   string
	UserID    string
	UserEmail string
	ReplyTo   string
}

var feedbackEmoji = map[string]string{
	"bug":         "🐛",
	"feature":     "💡",
	"improvement": "✨",
	"other":       "💬",
}

// SendFeedback relays a feedback message to the configured inbox.
func (s *Sender) SendFeedback(ctx context.Context, to string, f Feedback) error {
	emoji, ok := feedbackEmoji[f.Type]
	if !ok {
		emoji = "📝"
	}

	var body bytes.Buffer
	fmt.Fprintf(&body, "<h2>%s New %s feedback</h2>", emoji, f.Type)
	fmt.Fprintf(&body, "<p style=\"white-space: pre-wrap;\">%s</p>", html.EscapeString(f.Message))
	fmt.Fprintf(&body, "<hr><p><strong>From:</strong> %s<br><strong>User ID:</strong> %s<br><strong>Submitted:</strong> %s</p>",
		html.EscapeString(f.UserEmail), html.EscapeString(f.UserID), time.Now().Format(time.RFC1123))

	err := s.send(ctx, message{
		From:    s.fromEmail,
		To:      to,
		ReplyTo: f.ReplyTo,
		Subject: fmt.Sprintf("%s New %s feedback from Salin", emoji, f.Type),
		HTML:    body.String(),
	})
	if err != nil {
		return fmt.Errorf("SendFeedback: %w", err)
	}
	return nil
}

// SendPasswordReset mails a reset link to the user.
func (s *Sender) SendPasswordReset(ctx context.Context, to, resetURL string) error {
	var body bytes.Buffer
	body.WriteString("<h2>Reset your Salin password</h2>")
	fmt.Fprintf(&body, "<p>Follow this link to choose a new password. It expires in one hour.</p><p><a href=%q>%s</a></p>", resetURL, html.EscapeString(resetURL))
	body.WriteString("<p>If you did not request this, you can ignore this email.</p>")

	err := s.send(ctx, message{
		From:    s.fromEmail,
		To:      to,
		Subject: "Reset your Salin password",
		HTML:    body.String(),
	})
	if err != nil {
		return fmt.Errorf("SendPasswordReset: %w", err)
	}
	return nil
}
