package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"movieflix/models"
)

// ActivationNotifier is told about every activated subscription.
type ActivationNotifier interface {
	SubscriptionActivated(sub models.Subscription)
}

// SlackNotifier posts to an incoming webhook. An empty URL disables it.
type SlackNotifier struct {
	webhookURL string
	client     *http.Client
	log        *zap.Logger
}

func NewSlackNotifier(webhookURL string, log *zap.Logger) *SlackNotifier {
	if log == nil {
		log = zap.NewNop()
	}
	return &SlackNotifier{
		webhookURL: webhookURL,
		client:     &http.Client{Timeout: 10 * time.Second},
		log:        log,
	}
}

// SubscriptionActivated sends the notification in the background.
func (n *SlackNotifier) SubscriptionActivated(sub models.Subscription) {
	if n == nil || n.webhookURL == "" {
		return
	}
	text := fmt.Sprintf("New subscription\n\nUser: %d\nPlan: %s\nAmount: %d\nValid until: %s\nPayment: %s",
		sub.UserID, sub.PlanType, sub.Amount, sub.EndDate.Format(time.RFC3339), sub.PaymentID)

	go func() {
		defer func() {
			if r := recover(); r != nil {
				n.log.Error("slack panic recovered", zap.Any("panic", r))
			}
		}()
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := n.Send(ctx, text); err != nil {
			n.log.Warn("slack notification failed", zap.Error(err))
		}
	}()
}

func (n *SlackNotifier) Send(ctx context.Context, text string) error {
	payload, err := json.Marshal(map[string]string{"text": text})
	if err != nil {
		return fmt.Errorf("marshal slack payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.webhookURL, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build slack request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("send slack request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return fmt.Errorf("slack api error: status %d", resp.StatusCode)
	}
	return nil
}
