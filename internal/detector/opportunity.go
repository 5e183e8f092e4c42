package detector

import (
	"context"
	"fmt"

	"github.com/pulseboard/alert-intel/internal/model"
)

// OpportunityIdentifier flags campaigns that outperform their target
// with budget headroom left to scale into
type OpportunityIdentifier struct {
	cfg Config
}

// Name implements Detector
func (d *OpportunityIdentifier) Name() string { return "opportunity" }

// Detect implements Detector
func (d *OpportunityIdentifier) Detect(ctx context.Context, snap *model.Snapshot) ([]*model.Alert, error) {
	var alerts []*model.Alert

	for i := range snap.Campaigns {
		c := &snap.Campaigns[i]
		if c.TargetROAS <= 0 {
			continue
		}
		if c.ROAS <= d.cfg.ROASOpportunityRatio*c.TargetROAS {
			continue
		}
		if c.BudgetUtilization() >= d.cfg.BudgetUtilizationCap {
			continue
		}

		alerts = append(alerts, &model.Alert{
			ID:       conditionID("scaling-opportunity", c.CampaignID),
			Title:    fmt.Sprintf("Scaling opportunity on %s", c.Name),
			Message:  fmt.Sprintf("ROAS %.2f exceeds %.1fx target with %.0f%% of budget unspent", c.ROAS, d.cfg.ROASOpportunityRatio, (1-c.BudgetUtilization())*100),
			Kind:     model.AlertKindSuccess,
			Priority: model.AlertPriorityMedium,
			Category: model.AlertCategoryOpportunity,
			Platform: c.Platform, CampaignID: c.CampaignID,
			Timestamp:       snap.Timestamp,
			Severity:        30,
			Confidence:      80,
			SourceGenerated: true,
			Status:          model.AlertStatusActive,
			Metadata: model.AlertMetadata{
				Source:          d.Name(),
				AffectedMetrics: []string{"roas", "budget"},
				EstimatedImpact: "additional return available at current efficiency",
				RecommendedActions: []string{
					"Raise the daily budget incrementally",
					"Duplicate top ad sets into new audiences",
				},
				PatternTags: []string{"high_performance"},
			},
		})
	}

	return alerts, nil
}
