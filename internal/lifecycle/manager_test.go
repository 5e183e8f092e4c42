package lifecycle

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/pulseboard/alert-intel/internal/model"
)

func trackedAlert(id string) *model.Alert {
	return &model.Alert{
		ID:              id,
		Title:           "test condition",
		Kind:            model.AlertKindWarning,
		Priority:        model.AlertPriorityHigh,
		Category:        model.AlertCategoryBudget,
		Severity:        50,
		Confidence:      80,
		Timestamp:       time.Now(),
		SourceGenerated: true,
	}
}

func newTestManager(t *testing.T) *Manager {
	t.Helper()
	logger, _ := zap.NewDevelopment()
	return NewManager(logger, nil)
}

func TestManager_FullLifecycle(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()

	a := trackedAlert("budget-depletion:camp-1")
	m.Track([]*model.Alert{a})
	require.Equal(t, model.AlertStatusActive, a.Status)

	require.NoError(t, m.Apply(ctx, a.ID, ActionAcknowledge))
	status, ok := m.Status(a.ID)
	require.True(t, ok)
	require.Equal(t, model.AlertStatusAcknowledged, status)

	require.NoError(t, m.Apply(ctx, a.ID, ActionResolve))
	status, _ = m.Status(a.ID)
	require.Equal(t, model.AlertStatusResolved, status)

	err := m.Apply(ctx, a.ID, ActionAcknowledge)
	require.ErrorIs(t, err, ErrInvalidTransition)
}

func TestManager_UnknownAlert(t *testing.T) {
	m := newTestManager(t)
	err := m.Apply(context.Background(), "no-such-alert", ActionAcknowledge)
	require.ErrorIs(t, err, ErrUnknownAlert)
}

func TestManager_UnknownAction(t *testing.T) {
	m := newTestManager(t)
	m.Track([]*model.Alert{trackedAlert("a")})
	err := m.Apply(context.Background(), "a", Action("escalate"))
	require.ErrorIs(t, err, ErrUnknownAction)
}

func TestManager_DismissFromAcknowledged(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()

	m.Track([]*model.Alert{trackedAlert("a")})
	require.NoError(t, m.Apply(ctx, "a", ActionAcknowledge))
	require.NoError(t, m.Apply(ctx, "a", ActionDismiss))

	status, _ := m.Status("a")
	require.Equal(t, model.AlertStatusDismissed, status)
}

func TestManager_TerminalRejectsEverything(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()

	m.Track([]*model.Alert{trackedAlert("a")})
	require.NoError(t, m.Apply(ctx, "a", ActionDismiss))

	for _, action := range []Action{ActionAcknowledge, ActionResolve, ActionDismiss} {
		require.ErrorIs(t, m.Apply(ctx, "a", action), ErrInvalidTransition)
	}
}

func TestManager_StatusCarriesAcrossTrack(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()

	first := trackedAlert("ctr-drop:camp-1")
	m.Track([]*model.Alert{first})
	require.NoError(t, m.Apply(ctx, first.ID, ActionAcknowledge))

	// The condition regenerates under the same id on the next cycle
	second := trackedAlert("ctr-drop:camp-1")
	m.Track([]*model.Alert{second})
	require.Equal(t, model.AlertStatusAcknowledged, second.Status)
}

func TestManager_AddManual(t *testing.T) {
	m := newTestManager(t)

	manual := &model.Alert{
		Title:    "Creative refresh requested",
		Kind:     model.AlertKindInfo,
		Priority: model.AlertPriorityLow,
		Category: model.AlertCategoryCampaign,
	}
	require.NoError(t, m.AddManual(manual))
	require.NotEmpty(t, manual.ID)
	require.False(t, manual.SourceGenerated)
	require.Equal(t, model.AlertStatusActive, manual.Status)

	alerts := m.ManualAlerts()
	require.Len(t, alerts, 1)
	require.Equal(t, manual.ID, alerts[0].ID)

	// Manual alerts walk the same state machine
	require.NoError(t, m.Apply(context.Background(), manual.ID, ActionResolve))
	status, ok := m.Status(manual.ID)
	require.True(t, ok)
	require.Equal(t, model.AlertStatusResolved, status)
}

func TestManager_ManualAlertsAreCopies(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()

	manual := &model.Alert{
		Title:    "Landing page swap",
		Kind:     model.AlertKindInfo,
		Priority: model.AlertPriorityLow,
		Category: model.AlertCategoryCampaign,
	}
	require.NoError(t, m.AddManual(manual))

	first := m.ManualAlerts()
	require.Len(t, first, 1)
	require.NotSame(t, manual, first[0])
	m.Track(first)

	// A transition must not reach into alerts handed out earlier;
	// only the status map changes until the next Track overlay.
	require.NoError(t, m.Apply(ctx, manual.ID, ActionAcknowledge))
	require.Equal(t, model.AlertStatusActive, first[0].Status)

	second := m.ManualAlerts()
	m.Track(second)
	require.Equal(t, model.AlertStatusAcknowledged, second[0].Status)
}

func TestManager_AddManualValidates(t *testing.T) {
	m := newTestManager(t)
	err := m.AddManual(&model.Alert{
		Title:    "bad severity",
		Kind:     model.AlertKindInfo,
		Priority: model.AlertPriorityLow,
		Category: model.AlertCategoryCampaign,
		Severity: 150,
	})
	require.Error(t, err)

	// A category-less alert must be rejected before it can reach
	// clustering, where metadata derivation assumes a real category
	err = m.AddManual(&model.Alert{
		Title:    "no category",
		Kind:     model.AlertKindInfo,
		Priority: model.AlertPriorityLow,
	})
	require.Error(t, err)
	require.Empty(t, m.ManualAlerts())
}

type recordingSink struct {
	alertID string
	status  model.AlertStatus
}

func (s *recordingSink) UpdateStatus(ctx context.Context, alertID string, status model.AlertStatus) error {
	s.alertID = alertID
	s.status = status
	return nil
}

func TestManager_PersistsThroughSink(t *testing.T) {
	logger, _ := zap.NewDevelopment()
	sink := &recordingSink{}
	m := NewManager(logger, sink)

	m.Track([]*model.Alert{trackedAlert("a")})
	require.NoError(t, m.Apply(context.Background(), "a", ActionAcknowledge))

	require.Equal(t, "a", sink.alertID)
	require.Equal(t, model.AlertStatusAcknowledged, sink.status)
}
