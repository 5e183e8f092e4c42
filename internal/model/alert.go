package model

import (
	"fmt"
	"time"
)

// AlertKind represents the display class of an alert
type AlertKind string

const (
	AlertKindCritical   AlertKind = "critical"
	AlertKindWarning    AlertKind = "warning"
	AlertKindInfo       AlertKind = "info"
	AlertKindSuccess    AlertKind = "success"
	AlertKindPredictive AlertKind = "predictive"
)

// AlertPriority represents the urgency of an alert
type AlertPriority string

const (
	AlertPriorityUrgent AlertPriority = "urgent"
	AlertPriorityHigh   AlertPriority = "high"
	AlertPriorityMedium AlertPriority = "medium"
	AlertPriorityLow    AlertPriority = "low"
)

// Weight returns the integer weight used for total-ordering priorities
func (p AlertPriority) Weight() int {
	switch p {
	case AlertPriorityUrgent:
		return 4
	case AlertPriorityHigh:
		return 3
	case AlertPriorityMedium:
		return 2
	case AlertPriorityLow:
		return 1
	}
	return 0
}

// AlertCategory represents the domain area an alert belongs to
type AlertCategory string

const (
	AlertCategoryPerformance AlertCategory = "performance"
	AlertCategoryBudget      AlertCategory = "budget"
	AlertCategoryCampaign    AlertCategory = "campaign"
	AlertCategorySystem      AlertCategory = "system"
	AlertCategoryOpportunity AlertCategory = "opportunity"
	AlertCategoryAnomaly     AlertCategory = "anomaly"
)

// AlertStatus represents the lifecycle state of an alert
type AlertStatus string

const (
	AlertStatusActive       AlertStatus = "active"
	AlertStatusAcknowledged AlertStatus = "acknowledged"
	AlertStatusResolved     AlertStatus = "resolved"
	AlertStatusDismissed    AlertStatus = "dismissed"
)

// Terminal reports whether the status admits no further transitions
func (s AlertStatus) Terminal() bool {
	return s == AlertStatusResolved || s == AlertStatusDismissed
}

// AlertMetadata carries explanatory detail attached by detectors
type AlertMetadata struct {
	Source             string   `json:"source,omitempty"`
	AffectedMetrics    []string `json:"affected_metrics,omitempty"`
	EstimatedImpact    string   `json:"estimated_impact,omitempty"`
	RecommendedActions []string `json:"recommended_actions,omitempty"`
	RelatedAlertIDs    []string `json:"related_alert_ids,omitempty"`
	PatternTags        []string `json:"pattern_tags,omitempty"`
	TrendTags          []string `json:"trend_tags,omitempty"`
}

// ClusterRef records an alert's membership in a cluster. It is
// populated only after clustering.
type ClusterRef struct {
	ClusterID   string  `json:"cluster_id"`
	ClusterSize int     `json:"cluster_size"`
	Similarity  float64 `json:"similarity"`
}

// Prediction describes a forecasted condition attached to an alert
type Prediction struct {
	Likelihood        int     `json:"likelihood"`
	Timeframe         string  `json:"timeframe"`
	Preventable       bool    `json:"preventable"`
	ActionWindowHours float64 `json:"action_window_hours"`
}

// Alert represents a single detected condition
type Alert struct {
	ID              string        `json:"id"`
	Title           string        `json:"title"`
	Message         string        `json:"message"`
	Kind            AlertKind     `json:"kind"`
	Priority        AlertPriority `json:"priority"`
	Category        AlertCategory `json:"category"`
	Platform        string        `json:"platform,omitempty"`
	CampaignID      string        `json:"campaign_id,omitempty"`
	Timestamp       time.Time     `json:"timestamp"`
	Severity        int           `json:"severity"`
	Confidence      int           `json:"confidence"`
	SourceGenerated bool          `json:"source_generated"`
	Status          AlertStatus   `json:"status"`
	Metadata        AlertMetadata `json:"metadata"`
	Cluster         *ClusterRef   `json:"cluster,omitempty"`
	Prediction      *Prediction   `json:"prediction,omitempty"`
}

// Validate checks the numeric bounds and enum fields of an alert.
// A detector producing an invalid alert counts as a failed detector.
func (a *Alert) Validate() error {
	if a.ID == "" {
		return fmt.Errorf("alert has empty id")
	}
	if a.Severity < 0 || a.Severity > 100 {
		return fmt.Errorf("alert %s: severity %d out of range [0,100]", a.ID, a.Severity)
	}
	if a.Confidence < 0 || a.Confidence > 100 {
		return fmt.Errorf("alert %s: confidence %d out of range [0,100]", a.ID, a.Confidence)
	}
	if a.Priority.Weight() == 0 {
		return fmt.Errorf("alert %s: unknown priority %q", a.ID, a.Priority)
	}
	switch a.Kind {
	case AlertKindCritical, AlertKindWarning, AlertKindInfo, AlertKindSuccess, AlertKindPredictive:
	default:
		return fmt.Errorf("alert %s: unknown kind %q", a.ID, a.Kind)
	}
	switch a.Category {
	case AlertCategoryPerformance, AlertCategoryBudget, AlertCategoryCampaign,
		AlertCategorySystem, AlertCategoryOpportunity, AlertCategoryAnomaly:
	default:
		return fmt.Errorf("alert %s: unknown category %q", a.ID, a.Category)
	}
	if a.Prediction != nil {
		if a.Prediction.Likelihood < 0 || a.Prediction.Likelihood > 100 {
			return fmt.Errorf("alert %s: prediction likelihood %d out of range [0,100]", a.ID, a.Prediction.Likelihood)
		}
	}
	return nil
}

// Urgency returns the confidence-weighted severity used as the
// secondary prioritization key
func (a *Alert) Urgency() float64 {
	return float64(a.Confidence) * float64(a.Severity) / 100.0
}
