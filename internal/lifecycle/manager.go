package lifecycle

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"go.uber.org/zap"

	"github.com/pulseboard/alert-intel/internal/model"
)

// Action is an external status transition request
type Action string

const (
	ActionAcknowledge Action = "acknowledge"
	ActionResolve     Action = "resolve"
	ActionDismiss     Action = "dismiss"
)

const actionSubjectPrefix = "alerts.action."

// StatusSink receives status changes for persistence. Satisfied by the
// alert log storage; optional.
type StatusSink interface {
	UpdateStatus(ctx context.Context, alertID string, status model.AlertStatus) error
}

// Manager tracks per-alert lifecycle status across pipeline runs.
// Alert ids are condition-stable, so a recurring condition keeps the
// status its earlier instances earned. The status map is only written
// here, never by the detection path, so runs and actions do not
// contend.
type Manager struct {
	logger   *zap.Logger
	mu       sync.RWMutex
	statuses map[string]model.AlertStatus
	manual   map[string]*model.Alert
	sink     StatusSink
	sub      *nats.Subscription
}

// NewManager creates a lifecycle manager. sink may be nil.
func NewManager(logger *zap.Logger, sink StatusSink) *Manager {
	return &Manager{
		logger:   logger.Named("lifecycle"),
		statuses: make(map[string]model.AlertStatus),
		manual:   make(map[string]*model.Alert),
		sink:     sink,
	}
}

// Track registers freshly generated alerts and overlays any status
// carried forward from earlier cycles. Unknown alerts start active.
func (m *Manager) Track(alerts []*model.Alert) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, a := range alerts {
		if status, ok := m.statuses[a.ID]; ok {
			a.Status = status
		} else {
			a.Status = model.AlertStatusActive
			m.statuses[a.ID] = model.AlertStatusActive
		}
	}
}

// Apply performs one lifecycle transition. It returns ErrUnknownAlert
// for ids never tracked and ErrInvalidTransition when the action is not
// legal from the current status; it never silently no-ops.
func (m *Manager) Apply(ctx context.Context, alertID string, action Action) error {
	m.mu.Lock()
	current, ok := m.statuses[alertID]
	if !ok {
		m.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrUnknownAlert, alertID)
	}

	next, err := transition(current, action)
	if err != nil {
		m.mu.Unlock()
		return err
	}

	m.statuses[alertID] = next
	m.mu.Unlock()

	m.logger.Info("Alert status changed",
		zap.String("alert_id", alertID),
		zap.String("from", string(current)),
		zap.String("to", string(next)),
		zap.String("action", string(action)))

	if m.sink != nil {
		if err := m.sink.UpdateStatus(ctx, alertID, next); err != nil {
			m.logger.Error("Failed to persist status change",
				zap.String("alert_id", alertID),
				zap.Error(err))
		}
	}
	return nil
}

// transition validates one step of the state machine
func transition(current model.AlertStatus, action Action) (model.AlertStatus, error) {
	switch action {
	case ActionAcknowledge:
		if current == model.AlertStatusActive {
			return model.AlertStatusAcknowledged, nil
		}
	case ActionResolve:
		if current == model.AlertStatusActive || current == model.AlertStatusAcknowledged {
			return model.AlertStatusResolved, nil
		}
	case ActionDismiss:
		if !current.Terminal() {
			return model.AlertStatusDismissed, nil
		}
	default:
		return current, fmt.Errorf("%w: %s", ErrUnknownAction, action)
	}
	return current, fmt.Errorf("%w: cannot %s from %s", ErrInvalidTransition, action, current)
}

// Status returns the tracked status for an alert id
func (m *Manager) Status(alertID string) (model.AlertStatus, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	status, ok := m.statuses[alertID]
	return status, ok
}

// AddManual registers a manually entered alert so it participates in
// prioritization and lifecycle alongside detector output
func (m *Manager) AddManual(alert *model.Alert) error {
	if alert.ID == "" {
		alert.ID = uuid.New().String()
	}
	alert.SourceGenerated = false
	if alert.Status == "" {
		alert.Status = model.AlertStatusActive
	}
	if alert.Timestamp.IsZero() {
		alert.Timestamp = time.Now()
	}
	if err := alert.Validate(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.manual[alert.ID] = alert
	m.statuses[alert.ID] = alert.Status
	return nil
}

// ManualAlerts returns a copy of each manually entered alert, so every
// cycle owns its instances and status transitions never write into an
// already published slice. Track overlays the current status. Order is
// not significant; callers prioritize the combined list anyway.
func (m *Manager) ManualAlerts() []*model.Alert {
	m.mu.RLock()
	defer m.mu.RUnlock()

	alerts := make([]*model.Alert, 0, len(m.manual))
	for _, a := range m.manual {
		cp := *a
		alerts = append(alerts, &cp)
	}
	return alerts
}

// SubscribeActions wires alerts.action.<action> commands to Apply
func (m *Manager) SubscribeActions(ctx context.Context, js nats.JetStreamContext) error {
	sub, err := js.Subscribe(actionSubjectPrefix+"*", func(msg *nats.Msg) {
		var cmd struct {
			AlertID string `json:"alert_id"`
		}
		if err := json.Unmarshal(msg.Data, &cmd); err != nil {
			m.logger.Error("Failed to unmarshal action command", zap.Error(err))
			return
		}

		action := Action(msg.Subject[len(actionSubjectPrefix):])
		if err := m.Apply(ctx, cmd.AlertID, action); err != nil {
			m.logger.Error("Failed to apply action",
				zap.String("alert_id", cmd.AlertID),
				zap.String("action", string(action)),
				zap.Error(err))
		}
	})
	if err != nil {
		return fmt.Errorf("failed to subscribe to action commands: %w", err)
	}
	m.sub = sub
	return nil
}

// Stop releases the action subscription
func (m *Manager) Stop() {
	if m.sub != nil {
		m.sub.Unsubscribe()
	}
}
