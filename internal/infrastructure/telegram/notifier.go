package telegram

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"SynthForge/internal/domain"
	"SynthForge/internal/ports"
)

// Notifier posts batch summaries to a Telegram chat via the bot API.
type Notifier struct {
	botToken string
	chatID   string
	client   *http.Client
}

var _ ports.Notifier = (*Notifier)(nil)

// NewNotifier registers bot token and chat identifier.
func NewNotifier(botToken, chatID string) *Notifier {
	return &Notifier{
		botToken: botToken,
		chatID:   chatID,
		client:   &http.Client{Timeout: 5 * time.Second},
	}
}

// PublishSummary posts a Markdown report of the batch run.
func (n *Notifier) PublishSummary(ctx context.Context, summary domain.ProgressSummary) error {
	if n.botToken == "" || n.chatID == "" || n.client == nil {
		return fmt.Errorf("telegram notifier misconfigured")
	}

	endpoint := fmt.Sprintf("https://api.telegram.org/bot%s/sendMessage", n.botToken)
	form := url.Values{}
	form.Set("chat_id", n.chatID)
	form.Set("text", formatSummary(summary))
	form.Set("parse_mode", "Markdown")

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("telegram error: %s", resp.Status)
	}

	return nil
}

func formatSummary(summary domain.ProgressSummary) string {
	return fmt.Sprintf(
		"*Batch %s*\nTotal: %d\nResearched: %d\nGenerated: %d\nReviewed: %d\nApproved: %d\nFailed: %d\nCompletion: %.1f%%",
		summary.BatchID,
		summary.Total,
		summary.Stages.Researched,
		summary.Stages.Generated,
		summary.Stages.Reviewed,
		summary.Stages.Approved,
		summary.Stages.Failed,
		summary.CompletionPercentage(),
	)
}
