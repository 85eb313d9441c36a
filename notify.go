// FILE: notify.go
// Package main – Notification Transport (C9, collaborator): formats and
// delivers alert messages, retried independently of the monitor loop
// (§4.9/§7). slackNotifier is grounded on the teacher's trader.go
// postSlack helper; telegramNotifier mirrors crypto_realtime_monitor.py's
// send_alert Bot API call.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/sony/gobreaker"
)

// Notifier delivers a pre-formatted AlertMessage to an operator channel.
type Notifier interface {
	Notify(ctx context.Context, msg AlertMessage) error
}

// slackNotifier POSTs a Slack incoming-webhook payload, the same shape as
// the teacher's postSlack: {"text": "..."} with a bounded-timeout client.
type slackNotifier struct {
	webhookURL string
	hc         *http.Client
}

func newSlackNotifier(webhookURL string) *slackNotifier {
	return &slackNotifier{webhookURL: webhookURL, hc: &http.Client{Timeout: 3 * time.Second}}
}

func (n *slackNotifier) Notify(ctx context.Context, msg AlertMessage) error {
	if n.webhookURL == "" {
		return nil
	}
	body, err := json.Marshal(map[string]string{"text": msg.Format()})
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.webhookURL, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := n.hc.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("slack webhook returned status %d", resp.StatusCode)
	}
	return nil
}

// telegramNotifier calls the Bot API's sendMessage endpoint, mirroring
// crypto_realtime_monitor.py's send_alert/send_buy_execution_alert.
type telegramNotifier struct {
	botToken string
	chatID   string
	hc       *http.Client
}

func newTelegramNotifier(botToken, chatID string) *telegramNotifier {
	return &telegramNotifier{botToken: botToken, chatID: chatID, hc: &http.Client{Timeout: 5 * time.Second}}
}

func (n *telegramNotifier) Notify(ctx context.Context, msg AlertMessage) error {
	if n.botToken == "" || n.chatID == "" {
		return nil
	}
	endpoint := fmt.Sprintf("https://api.telegram.org/bot%s/sendMessage", n.botToken)
	form := url.Values{}
	form.Set("chat_id", n.chatID)
	form.Set("text", msg.Format())

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewBufferString(form.Encode()))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	resp, err := n.hc.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("telegram sendMessage returned status %d", resp.StatusCode)
	}
	return nil
}

// retryingNotifier wraps an inner Notifier with a circuit breaker and
// bounded backoff so a failing transport never blocks the monitor loop
// (§7: "Failures to deliver are logged and retried independently; they
// never block the monitor loop").
type retryingNotifier struct {
	name    string
	inner   Notifier
	breaker *gobreaker.CircuitBreaker
}

func newRetryingNotifier(name string, inner Notifier) *retryingNotifier {
	st := gobreaker.Settings{
		Name:    name,
		Timeout: 60 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 3
		},
	}
	return &retryingNotifier{name: name, inner: inner, breaker: gobreaker.NewCircuitBreaker(st)}
}

func (n *retryingNotifier) Notify(ctx context.Context, msg AlertMessage) error {
	if msg.CorrelationID == "" {
		msg.CorrelationID = uuid.New().String()
	}

	const maxAttempts = 3
	backoff := 500 * time.Millisecond

	var lastErr error
	for attempt := 0; attempt < maxAttempts; attempt++ {
		_, err := n.breaker.Execute(func() (interface{}, error) {
			return nil, n.inner.Notify(ctx, msg)
		})
		if err == nil {
			metricAlertsSent.WithLabelValues(n.name).Inc()
			return nil
		}
		lastErr = err
		log.Warn().Str("transport", n.name).Str("correlation_id", msg.CorrelationID).Err(err).
			Int("attempt", attempt+1).Msg("alert delivery failed, retrying")
		if !sleepBackoff(ctx, backoff) {
			break
		}
		backoff *= 2
	}

	metricAlertFailures.WithLabelValues(n.name).Inc()
	log.Error().Str("transport", n.name).Str("correlation_id", msg.CorrelationID).Err(lastErr).
		Msg("alert delivery exhausted retries")
	return lastErr
}
