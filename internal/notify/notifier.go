package notify

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/nats-io/nats.go"
	"go.uber.org/zap"

	"github.com/pulseboard/alert-intel/internal/model"
)

const urgentSubject = "alerts.notify.urgent"

// Channel delivers an alert notification to one destination
type Channel interface {
	Send(ctx context.Context, alert *model.Alert) error
}

// LogChannel writes notifications to the structured log. Useful as a
// default and in development.
type LogChannel struct {
	Logger *zap.Logger
}

// Send implements Channel
func (c *LogChannel) Send(ctx context.Context, alert *model.Alert) error {
	c.Logger.Warn("Urgent alert",
		zap.String("alert_id", alert.ID),
		zap.String("title", alert.Title),
		zap.String("campaign_id", alert.CampaignID),
		zap.Int("severity", alert.Severity))
	return nil
}

// StreamChannel publishes notifications to JetStream for downstream
// consumers (pagers, chat bridges)
type StreamChannel struct {
	JS nats.JetStreamContext
}

// Send implements Channel
func (c *StreamChannel) Send(ctx context.Context, alert *model.Alert) error {
	data, err := json.Marshal(alert)
	if err != nil {
		return fmt.Errorf("failed to marshal alert: %w", err)
	}
	if _, err := c.JS.Publish(urgentSubject, data); err != nil {
		return fmt.Errorf("failed to publish notification: %w", err)
	}
	return nil
}

// Notifier fans urgent alerts out to the registered channels after a
// pipeline run. A failing channel does not block the others.
type Notifier struct {
	logger   *zap.Logger
	channels map[string]Channel
}

// NewNotifier creates an empty notifier
func NewNotifier(logger *zap.Logger) *Notifier {
	return &Notifier{
		logger:   logger.Named("notifier"),
		channels: make(map[string]Channel),
	}
}

// RegisterChannel adds a named delivery channel
func (n *Notifier) RegisterChannel(name string, ch Channel) {
	n.channels[name] = ch
}

// NotifyUrgent sends every urgent-priority, active alert through every
// channel
func (n *Notifier) NotifyUrgent(ctx context.Context, alerts []*model.Alert) {
	for _, a := range alerts {
		if a.Priority != model.AlertPriorityUrgent || a.Status != model.AlertStatusActive {
			continue
		}
		for name, ch := range n.channels {
			if err := ch.Send(ctx, a); err != nil {
				n.logger.Error("Failed to send notification",
					zap.String("channel", name),
					zap.String("alert_id", a.ID),
					zap.Error(err))
			}
		}
	}
}
