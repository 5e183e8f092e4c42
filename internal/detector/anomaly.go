package detector

import (
	"context"
	"fmt"

	"github.com/pulseboard/alert-intel/internal/model"
)

// AnomalyDetector flags campaigns whose CTR or ROAS has fallen well
// below its reference value
type AnomalyDetector struct {
	cfg Config
}

// Name implements Detector
func (d *AnomalyDetector) Name() string { return "anomaly" }

// Detect implements Detector
func (d *AnomalyDetector) Detect(ctx context.Context, snap *model.Snapshot) ([]*model.Alert, error) {
	var alerts []*model.Alert

	for i := range snap.Campaigns {
		c := &snap.Campaigns[i]

		if c.HistoricalCTR > 0 && c.CTR < d.cfg.CTRDropRatio*c.HistoricalCTR {
			alerts = append(alerts, &model.Alert{
				ID:       conditionID("ctr-drop", c.CampaignID),
				Title:    fmt.Sprintf("CTR drop on %s", c.Name),
				Message:  fmt.Sprintf("CTR %.3f%% is below %.0f%% of the historical %.3f%%", c.CTR*100, d.cfg.CTRDropRatio*100, c.HistoricalCTR*100),
				Kind:     model.AlertKindWarning,
				Priority: model.AlertPriorityHigh,
				Category: model.AlertCategoryPerformance,
				Platform: c.Platform, CampaignID: c.CampaignID,
				Timestamp:       snap.Timestamp,
				Severity:        75,
				Confidence:      85,
				SourceGenerated: true,
				Status:          model.AlertStatusActive,
				Metadata: model.AlertMetadata{
					Source:          d.Name(),
					AffectedMetrics: []string{"ctr"},
					EstimatedImpact: "reduced traffic and conversion volume",
					RecommendedActions: []string{
						"Review recent creative changes",
						"Check audience targeting overlap",
					},
					PatternTags: []string{"performance_decline"},
				},
			})
		}

		if c.TargetROAS > 0 && c.ROAS < d.cfg.ROASCriticalRatio*c.TargetROAS {
			alerts = append(alerts, &model.Alert{
				ID:       conditionID("roas-drop", c.CampaignID),
				Title:    fmt.Sprintf("ROAS below target on %s", c.Name),
				Message:  fmt.Sprintf("ROAS %.2f is below %.0f%% of target %.2f", c.ROAS, d.cfg.ROASCriticalRatio*100, c.TargetROAS),
				Kind:     model.AlertKindCritical,
				Priority: model.AlertPriorityUrgent,
				Category: model.AlertCategoryPerformance,
				Platform: c.Platform, CampaignID: c.CampaignID,
				Timestamp:       snap.Timestamp,
				Severity:        90,
				Confidence:      92,
				SourceGenerated: true,
				Status:          model.AlertStatusActive,
				Metadata: model.AlertMetadata{
					Source:          d.Name(),
					AffectedMetrics: []string{"roas"},
					EstimatedImpact: "spend is not returning at the expected rate",
					RecommendedActions: []string{
						"Pause lowest performing ad sets",
						"Reallocate budget to converting segments",
					},
					PatternTags: []string{"revenue_decline"},
				},
			})
		}
	}

	return alerts, nil
}
