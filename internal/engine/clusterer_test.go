package engine

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/pulseboard/alert-intel/internal/model"
)

func clusterAlert(id string, priority model.AlertPriority, category model.AlertCategory, platform, campaign string, kind model.AlertKind, severity int, ts time.Time, tags ...string) *model.Alert {
	return &model.Alert{
		ID:              id,
		Priority:        priority,
		Category:        category,
		Platform:        platform,
		CampaignID:      campaign,
		Kind:            kind,
		Severity:        severity,
		Confidence:      80,
		Timestamp:       ts,
		SourceGenerated: true,
		Status:          model.AlertStatusActive,
		Metadata:        model.AlertMetadata{PatternTags: tags},
	}
}

func clusterFixture() []*model.Alert {
	ts := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	// a and b agree on category, platform, campaign and tags (0.85);
	// c shares only category and kind with them (0.45); d is system-only.
	return Prioritize([]*model.Alert{
		clusterAlert("a", model.AlertPriorityUrgent, model.AlertCategoryPerformance, "google", "camp-1", model.AlertKindCritical, 90, ts, "performance_decline"),
		clusterAlert("b", model.AlertPriorityHigh, model.AlertCategoryPerformance, "google", "camp-1", model.AlertKindWarning, 75, ts.Add(-time.Hour), "performance_decline"),
		clusterAlert("c", model.AlertPriorityHigh, model.AlertCategoryPerformance, "meta", "camp-2", model.AlertKindCritical, 80, ts, "revenue_decline"),
		clusterAlert("d", model.AlertPriorityMedium, model.AlertCategorySystem, "", "", model.AlertKindWarning, 60, ts, "system_degradation"),
	})
}

func TestBuildClusters_Partition(t *testing.T) {
	alerts := clusterFixture()
	clusters := BuildClusters(alerts)

	seen := make(map[string]int)
	for _, c := range clusters {
		require.NotEmpty(t, c.Alerts)
		for _, a := range c.Alerts {
			seen[a.ID]++
		}
	}

	require.Len(t, seen, len(alerts))
	for _, a := range alerts {
		require.Equal(t, 1, seen[a.ID], "alert %s must be in exactly one cluster", a.ID)
	}
}

func TestBuildClusters_Membership(t *testing.T) {
	clusters := BuildClusters(clusterFixture())

	var grouped *model.Cluster
	for _, c := range clusters {
		if c.Size() > 1 {
			require.Nil(t, grouped, "expected a single multi-member cluster")
			grouped = c
		}
	}
	require.NotNil(t, grouped)
	require.Equal(t, 2, grouped.Size())
	require.Equal(t, "a", grouped.Alerts[0].ID)
	require.Equal(t, "b", grouped.Alerts[1].ID)

	require.Equal(t, model.AlertPriorityUrgent, grouped.Priority)
	require.Equal(t, model.AlertCategoryPerformance, grouped.Category)
	require.Equal(t, 165, grouped.TotalSeverity)
	require.Equal(t, []string{"camp-1"}, grouped.AffectedCampaigns)
}

func TestBuildClusters_ClusterRefs(t *testing.T) {
	clusters := BuildClusters(clusterFixture())

	for _, c := range clusters {
		for _, a := range c.Alerts {
			require.NotNil(t, a.Cluster)
			require.Equal(t, c.ID, a.Cluster.ClusterID)
			require.Equal(t, c.Size(), a.Cluster.ClusterSize)
			require.Greater(t, a.Cluster.Similarity, ClusterThreshold)
		}
	}
}

func TestBuildClusters_PatternMetadata(t *testing.T) {
	clusters := BuildClusters(clusterFixture())

	var grouped *model.Cluster
	for _, c := range clusters {
		if c.Size() > 1 {
			grouped = c
		}
	}
	require.NotNil(t, grouped)

	require.Equal(t, model.PatternPerformanceDecline, grouped.Pattern.Type)
	// Members span one hour, well under a day
	require.Equal(t, model.FrequencyHigh, grouped.Pattern.Frequency)
	require.Equal(t, 80, grouped.Pattern.Confidence)
	// All members are detector-generated, none predictive
	require.Equal(t, 80, grouped.Pattern.Predictability)
}

func TestBuildClusters_PatternTagTable(t *testing.T) {
	ts := time.Now()
	alerts := []*model.Alert{
		clusterAlert("x", model.AlertPriorityHigh, model.AlertCategoryAnomaly, "", "", model.AlertKindWarning, 50, ts, "something_unmapped"),
	}
	clusters := BuildClusters(alerts)
	require.Len(t, clusters, 1)
	require.Equal(t, model.PatternAnomalySpike, clusters[0].Pattern.Type)
}

func TestBuildClusters_Ordering(t *testing.T) {
	clusters := BuildClusters(clusterFixture())

	for i := 0; i < len(clusters)-1; i++ {
		x, y := clusters[i], clusters[i+1]
		require.GreaterOrEqual(t, x.Priority.Weight(), y.Priority.Weight())
		if x.Priority.Weight() == y.Priority.Weight() {
			require.GreaterOrEqual(t, clusterRank(x), clusterRank(y))
		}
	}
}

func TestBuildClusters_Deterministic(t *testing.T) {
	first := BuildClusters(clusterFixture())
	second := BuildClusters(clusterFixture())

	require.Len(t, second, len(first))
	for i := range first {
		require.Equal(t, first[i].Size(), second[i].Size())
		for j := range first[i].Alerts {
			require.Equal(t, first[i].Alerts[j].ID, second[i].Alerts[j].ID)
		}
	}
}

func TestBuildClusters_EmptyInput(t *testing.T) {
	require.Empty(t, BuildClusters(nil))
}
