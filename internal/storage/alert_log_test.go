package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/pulseboard/alert-intel/internal/model"
)

func newTestLog(t *testing.T) *SQLiteAlertLog {
	t.Helper()
	logger, _ := zap.NewDevelopment()
	store, err := NewSQLiteAlertLog(logger, filepath.Join(t.TempDir(), "alert_log.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func logAlert(id, campaignID string, severity int) *model.Alert {
	return &model.Alert{
		ID:              id,
		Title:           "test condition",
		Kind:            model.AlertKindWarning,
		Priority:        model.AlertPriorityHigh,
		Category:        model.AlertCategoryBudget,
		CampaignID:      campaignID,
		Timestamp:       time.Now(),
		Severity:        severity,
		Confidence:      80,
		SourceGenerated: true,
		Status:          model.AlertStatusActive,
	}
}

func TestAlertLog_StoreAndGet(t *testing.T) {
	store := newTestLog(t)
	ctx := context.Background()

	a := logAlert("budget-depletion:camp-1", "camp-1", 80)
	require.NoError(t, store.StoreRun(ctx, "run-1", []*model.Alert{a}))

	got, err := store.Get(ctx, a.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	require.Equal(t, a.ID, got.ID)
	require.Equal(t, a.Title, got.Title)
	require.Equal(t, a.Severity, got.Severity)
	require.Equal(t, model.AlertStatusActive, got.Status)
}

func TestAlertLog_GetMissing(t *testing.T) {
	store := newTestLog(t)

	got, err := store.Get(context.Background(), "no-such-alert")
	require.NoError(t, err)
	require.Nil(t, got)
}

func TestAlertLog_RecurringConditionUpserts(t *testing.T) {
	store := newTestLog(t)
	ctx := context.Background()

	require.NoError(t, store.StoreRun(ctx, "run-1", []*model.Alert{logAlert("ctr-drop:camp-1", "camp-1", 70)}))
	require.NoError(t, store.StoreRun(ctx, "run-2", []*model.Alert{logAlert("ctr-drop:camp-1", "camp-1", 85)}))

	alerts, err := store.ListByCampaign(ctx, "camp-1", 0, 10)
	require.NoError(t, err)
	require.Len(t, alerts, 1, "same condition must update its row, not duplicate")
	require.Equal(t, 85, alerts[0].Severity)
}

func TestAlertLog_UpdateStatus(t *testing.T) {
	store := newTestLog(t)
	ctx := context.Background()

	a := logAlert("api-latency", "", 60)
	require.NoError(t, store.StoreRun(ctx, "run-1", []*model.Alert{a}))

	require.NoError(t, store.UpdateStatus(ctx, a.ID, model.AlertStatusAcknowledged))

	got, err := store.Get(ctx, a.ID)
	require.NoError(t, err)
	require.Equal(t, model.AlertStatusAcknowledged, got.Status)
}

func TestAlertLog_UpdateStatusMissing(t *testing.T) {
	store := newTestLog(t)
	err := store.UpdateStatus(context.Background(), "no-such-alert", model.AlertStatusResolved)
	require.Error(t, err)
	require.Contains(t, err.Error(), "not found")
}

func TestAlertLog_ListByStatus(t *testing.T) {
	store := newTestLog(t)
	ctx := context.Background()

	a := logAlert("a", "camp-1", 50)
	b := logAlert("b", "camp-2", 60)
	c := logAlert("c", "camp-3", 70)
	require.NoError(t, store.StoreRun(ctx, "run-1", []*model.Alert{a, b, c}))
	require.NoError(t, store.UpdateStatus(ctx, "b", model.AlertStatusResolved))

	active, err := store.ListByStatus(ctx, model.AlertStatusActive, 0, 10)
	require.NoError(t, err)
	require.Len(t, active, 2)
	for _, got := range active {
		require.Equal(t, model.AlertStatusActive, got.Status)
	}

	resolved, err := store.ListByStatus(ctx, model.AlertStatusResolved, 0, 10)
	require.NoError(t, err)
	require.Len(t, resolved, 1)
	require.Equal(t, "b", resolved[0].ID)
}

func TestAlertLog_ListPagination(t *testing.T) {
	store := newTestLog(t)
	ctx := context.Background()

	var alerts []*model.Alert
	for _, id := range []string{"a", "b", "c"} {
		alerts = append(alerts, logAlert(id, "camp-1", 50))
	}
	require.NoError(t, store.StoreRun(ctx, "run-1", alerts))

	page, err := store.ListByCampaign(ctx, "camp-1", 0, 2)
	require.NoError(t, err)
	require.Len(t, page, 2)

	page, err = store.ListByCampaign(ctx, "camp-1", 2, 2)
	require.NoError(t, err)
	require.Len(t, page, 1)
}

func TestAlertLog_DeleteBefore(t *testing.T) {
	store := newTestLog(t)
	ctx := context.Background()

	require.NoError(t, store.StoreRun(ctx, "run-1", []*model.Alert{logAlert("a", "camp-1", 50)}))

	// Nothing was last seen before an hour ago
	require.NoError(t, store.DeleteBefore(ctx, time.Now().Add(-time.Hour)))
	got, err := store.Get(ctx, "a")
	require.NoError(t, err)
	require.NotNil(t, got)

	// Everything was last seen before an hour from now
	require.NoError(t, store.DeleteBefore(ctx, time.Now().Add(time.Hour)))
	got, err = store.Get(ctx, "a")
	require.NoError(t, err)
	require.Nil(t, got)
}
