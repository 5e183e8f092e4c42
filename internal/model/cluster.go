package model

// PatternType classifies the recurring condition behind a cluster
type PatternType string

const (
	PatternBudgetDepletion    PatternType = "budget_depletion"
	PatternPerformanceDecline PatternType = "performance_decline"
	PatternAnomalySpike       PatternType = "anomaly_spike"
	PatternSystemIssue        PatternType = "system_issue"
	PatternOpportunity        PatternType = "opportunity"
)

// PatternFrequency buckets how often a cluster's condition recurs
type PatternFrequency string

const (
	FrequencyHigh    PatternFrequency = "high"
	FrequencyWeekly  PatternFrequency = "weekly"
	FrequencyMonthly PatternFrequency = "monthly"
)

// ClusterPattern summarizes the shared condition of a cluster's members
type ClusterPattern struct {
	Type           PatternType      `json:"type"`
	Confidence     int              `json:"confidence"`
	Frequency      PatternFrequency `json:"frequency"`
	Predictability int              `json:"predictability"`
}

// Cluster groups alerts judged similar enough to present as one unit.
// Membership is a partition: every alert belongs to exactly one cluster,
// and singleton clusters are valid.
type Cluster struct {
	ID                string         `json:"id"`
	Name              string         `json:"name"`
	Description       string         `json:"description"`
	Alerts            []*Alert       `json:"alerts"`
	Priority          AlertPriority  `json:"priority"`
	Category          AlertCategory  `json:"category"`
	TotalSeverity     int            `json:"total_severity"`
	AffectedCampaigns []string       `json:"affected_campaigns"`
	Pattern           ClusterPattern `json:"pattern"`
}

// Size returns the number of member alerts
func (c *Cluster) Size() int {
	return len(c.Alerts)
}
