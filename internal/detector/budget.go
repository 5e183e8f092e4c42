package detector

import (
	"context"
	"fmt"

	"github.com/pulseboard/alert-intel/internal/model"
)

// BudgetDepletionPredictor projects the remaining runway of each
// campaign budget from its current daily spend
type BudgetDepletionPredictor struct {
	cfg Config
}

// Name implements Detector
func (d *BudgetDepletionPredictor) Name() string { return "budget-depletion" }

// Detect implements Detector
func (d *BudgetDepletionPredictor) Detect(ctx context.Context, snap *model.Snapshot) ([]*model.Alert, error) {
	var alerts []*model.Alert

	for i := range snap.Campaigns {
		c := &snap.Campaigns[i]
		if c.DailySpend <= 0 {
			continue
		}

		daysRemaining := (c.Budget - c.Spend) / c.DailySpend
		if daysRemaining <= 0 || daysRemaining >= d.cfg.BudgetDepletionDays {
			continue
		}

		// Strictly under one day is urgent; exactly one day is not.
		urgent := daysRemaining < 1

		priority := model.AlertPriorityHigh
		kind := model.AlertKindWarning
		severity := 80
		if urgent {
			priority = model.AlertPriorityUrgent
			kind = model.AlertKindCritical
			severity = 95
		}

		actionWindow := daysRemaining * 24
		if actionWindow < 1 {
			actionWindow = 1
		}

		alerts = append(alerts, &model.Alert{
			ID:       conditionID("budget-depletion", c.CampaignID),
			Title:    fmt.Sprintf("Budget depleting on %s", c.Name),
			Message:  fmt.Sprintf("Budget will be exhausted in %.1f days at the current daily spend of %.2f", daysRemaining, c.DailySpend),
			Kind:     kind,
			Priority: priority,
			Category: model.AlertCategoryBudget,
			Platform: c.Platform, CampaignID: c.CampaignID,
			Timestamp:       snap.Timestamp,
			Severity:        severity,
			Confidence:      90,
			SourceGenerated: true,
			Status:          model.AlertStatusActive,
			Metadata: model.AlertMetadata{
				Source:          d.Name(),
				AffectedMetrics: []string{"budget", "daily_spend"},
				EstimatedImpact: "campaign delivery stops once the budget is exhausted",
				RecommendedActions: []string{
					"Increase the campaign budget",
					"Reduce daily spend caps",
				},
				PatternTags: []string{"budget_depletion"},
			},
			Prediction: &model.Prediction{
				Likelihood:        95,
				Timeframe:         fmt.Sprintf("%.1f days", daysRemaining),
				Preventable:       true,
				ActionWindowHours: actionWindow,
			},
		})
	}

	return alerts, nil
}
