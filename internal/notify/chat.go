package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

const chatTimeout = 10 * time.Second

// ChatNotifier posts messages to a preconfigured chat webhook.
type ChatNotifier struct {
	webhookURL string
	username   string
	client     *http.Client
}

// NewChatNotifier creates a notifier posting as username to webhookURL.
func NewChatNotifier(webhookURL, username string) *ChatNotifier {
	return &ChatNotifier{
		webhookURL: webhookURL,
		username:   username,
		client:     &http.Client{Timeout: chatTimeout},
	}
}

type chatMessage struct {
	Username string `json:"username"`
	Text     string `json:"text"`
}

// Send posts text to the chat webhook. Nothing is consumed from the
// response beyond the status code.
func (c *ChatNotifier) Send(ctx context.Context, text string) error {
	payload, err := json.Marshal(chatMessage{Username: c.username, Text: text})
	if err != nil {
		return fmt.Errorf("failed to encode chat message: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.webhookURL, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to build chat request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send chat message: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("chat webhook rejected message: %s", resp.Status)
	}
	return nil
}
