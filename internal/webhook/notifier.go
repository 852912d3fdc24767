package webhook

import (
	"encoding/json"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"go.uber.org/zap"
)

// Notifier pushes marketplace events to the configured downstream
// webhook. Delivery is retried with backoff; a notifier without a URL
// swallows everything.
type Notifier interface {
	Notify(eventType string, payload interface{}) error
}

type notifier struct {
	client *retryablehttp.Client
	url    string
}

type envelope struct {
	Type      string      `json:"type"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

func NewNotifier(url string, retries int) Notifier {
	client := retryablehttp.NewClient()
	client.RetryMax = retries
	client.Logger = nil

	return notifier{client: client, url: url}
}

func (n notifier) Notify(eventType string, payload interface{}) error {
	if n.url == "" {
		return nil
	}

	body, err := json.Marshal(envelope{
		Type:      eventType,
		Timestamp: time.Now().UTC(),
		Payload:   payload,
	})
	if err != nil {
		return err
	}

	resp, err := n.client.Post(n.url, "application/json", body)
	if err != nil {
		zap.L().With(zap.Error(err), zap.String("type", eventType)).Error("Webhook: Failed to deliver event")
		return err
	}
	defer resp.Body.Close()

	zap.L().With(
		zap.String("type", eventType),
		zap.Int("status", resp.StatusCode),
	).Debug("Webhook: Event delivered")

	return nil
}
