package model

import "time"

// InsightKind represents the analysis that produced an insight
type InsightKind string

const (
	InsightKindPattern        InsightKind = "pattern"
	InsightKindRecommendation InsightKind = "recommendation"
	InsightKindPrediction     InsightKind = "prediction"
	InsightKindOptimization   InsightKind = "optimization"
)

// Impact represents the expected business impact of acting on an insight
type Impact string

const (
	ImpactHigh   Impact = "high"
	ImpactMedium Impact = "medium"
	ImpactLow    Impact = "low"
)

// Weight returns the integer weight used for ordering insights
func (i Impact) Weight() int {
	switch i {
	case ImpactHigh:
		return 3
	case ImpactMedium:
		return 2
	case ImpactLow:
		return 1
	}
	return 0
}

// Insight is a derived, read-only observation synthesized from one or
// more alerts and clusters within a single pipeline run
type Insight struct {
	ID               string      `json:"id"`
	Kind             InsightKind `json:"kind"`
	Title            string      `json:"title"`
	Description      string      `json:"description"`
	Confidence       int         `json:"confidence"`
	Impact           Impact      `json:"impact"`
	Actionable       bool        `json:"actionable"`
	RelatedAlertIDs  []string    `json:"related_alert_ids,omitempty"`
	SuggestedActions []string    `json:"suggested_actions,omitempty"`
	CreatedAt        time.Time   `json:"created_at"`
}

// Score returns the ordering key: confidence weighted by impact
func (i *Insight) Score() int {
	return i.Confidence * i.Impact.Weight()
}
