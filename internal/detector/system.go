package detector

import (
	"context"
	"fmt"

	"github.com/pulseboard/alert-intel/internal/model"
)

// SystemHealthMonitor watches platform-level telemetry for degraded
// service conditions
type SystemHealthMonitor struct {
	cfg Config
}

// Name implements Detector
func (d *SystemHealthMonitor) Name() string { return "system-health" }

// Detect implements Detector
func (d *SystemHealthMonitor) Detect(ctx context.Context, snap *model.Snapshot) ([]*model.Alert, error) {
	var alerts []*model.Alert

	if snap.System.APILatencyMS > d.cfg.LatencyThresholdMS {
		alerts = append(alerts, &model.Alert{
			ID:              conditionID("api-latency", ""),
			Title:           "Elevated API latency",
			Message:         fmt.Sprintf("API latency %.0fms exceeds the %.0fms threshold", snap.System.APILatencyMS, d.cfg.LatencyThresholdMS),
			Kind:            model.AlertKindWarning,
			Priority:        model.AlertPriorityMedium,
			Category:        model.AlertCategorySystem,
			Timestamp:       snap.Timestamp,
			Severity:        60,
			Confidence:      88,
			SourceGenerated: true,
			Status:          model.AlertStatusActive,
			Metadata: model.AlertMetadata{
				Source:          d.Name(),
				AffectedMetrics: []string{"api_latency_ms"},
				EstimatedImpact: "delayed metric updates and slower dashboard loads",
				RecommendedActions: []string{
					"Check upstream API status",
					"Reduce polling frequency until latency recovers",
				},
				PatternTags: []string{"system_degradation"},
			},
		})
	}

	return alerts, nil
}
