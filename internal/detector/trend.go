package detector

import (
	"context"
	"fmt"
	"math"

	"github.com/pulseboard/alert-intel/internal/model"
)

// TrendDirection labels the direction of a classified trend
type TrendDirection string

const (
	TrendDeclining TrendDirection = "declining"
	TrendImproving TrendDirection = "improving"
	TrendStable    TrendDirection = "stable"
)

// TrendResult is the output of the trend classifier
type TrendResult struct {
	Direction  TrendDirection
	Confidence float64
	Slope      float64
}

// relative slope below which a series counts as moving at all
const trendSlopeEpsilon = 0.03

// ClassifyTrend fits a least-squares line through the ROAS series and
// labels its direction. Confidence is the fraction of consecutive
// deltas that agree with the fitted direction, so a monotonic series
// scores 1.0 and a noisy one scores near 0.5.
func ClassifyTrend(points []model.TrendPoint, minPoints int) TrendResult {
	if len(points) < minPoints {
		return TrendResult{Direction: TrendStable}
	}

	n := float64(len(points))
	var sumX, sumY, sumXY, sumXX float64
	for i, p := range points {
		x := float64(i)
		sumX += x
		sumY += p.ROAS
		sumXY += x * p.ROAS
		sumXX += x * x
	}

	denom := n*sumXX - sumX*sumX
	if denom == 0 {
		return TrendResult{Direction: TrendStable}
	}
	slope := (n*sumXY - sumX*sumY) / denom

	mean := sumY / n
	if mean == 0 {
		return TrendResult{Direction: TrendStable}
	}
	relative := slope / math.Abs(mean)

	direction := TrendStable
	switch {
	case relative < -trendSlopeEpsilon:
		direction = TrendDeclining
	case relative > trendSlopeEpsilon:
		direction = TrendImproving
	}
	if direction == TrendStable {
		return TrendResult{Direction: TrendStable, Slope: slope}
	}

	agree := 0
	for i := 1; i < len(points); i++ {
		delta := points[i].ROAS - points[i-1].ROAS
		if (direction == TrendDeclining && delta < 0) || (direction == TrendImproving && delta > 0) {
			agree++
		}
	}
	confidence := float64(agree) / (n - 1)

	return TrendResult{Direction: direction, Confidence: confidence, Slope: slope}
}

// TrendDetector classifies each campaign's recent history and emits a
// predictive alert for confidently declining campaigns
type TrendDetector struct {
	cfg Config
}

// Name implements Detector
func (d *TrendDetector) Name() string { return "trend" }

// Detect implements Detector
func (d *TrendDetector) Detect(ctx context.Context, snap *model.Snapshot) ([]*model.Alert, error) {
	var alerts []*model.Alert

	for i := range snap.Campaigns {
		c := &snap.Campaigns[i]
		result := ClassifyTrend(c.History, d.cfg.TrendMinPoints)
		if result.Direction != TrendDeclining || result.Confidence <= d.cfg.TrendMinConfidence {
			continue
		}

		confidence := int(math.Round(result.Confidence * 100))
		alerts = append(alerts, &model.Alert{
			ID:       conditionID("trend-decline", c.CampaignID),
			Title:    fmt.Sprintf("Declining trend on %s", c.Name),
			Message:  fmt.Sprintf("ROAS has trended down over the last %d observations", len(c.History)),
			Kind:     model.AlertKindPredictive,
			Priority: model.AlertPriorityHigh,
			Category: model.AlertCategoryPerformance,
			Platform: c.Platform, CampaignID: c.CampaignID,
			Timestamp:       snap.Timestamp,
			Severity:        65,
			Confidence:      confidence,
			SourceGenerated: true,
			Status:          model.AlertStatusActive,
			Metadata: model.AlertMetadata{
				Source:          d.Name(),
				AffectedMetrics: []string{"roas"},
				EstimatedImpact: "performance will keep degrading if the trend holds",
				RecommendedActions: []string{
					"Refresh creatives before fatigue compounds",
					"Review bid strategy against recent auction changes",
				},
				PatternTags: []string{"performance_decline"},
				TrendTags:   []string{string(result.Direction)},
			},
			Prediction: &model.Prediction{
				Likelihood:        confidence,
				Timeframe:         "next 7 days",
				Preventable:       true,
				ActionWindowHours: 48,
			},
		})
	}

	return alerts, nil
}
