package model

import "time"

// TrendPoint is one observation in a campaign's recent history
type TrendPoint struct {
	Date  time.Time `json:"date"`
	CTR   float64   `json:"ctr"`
	ROAS  float64   `json:"roas"`
	Spend float64   `json:"spend"`
}

// CampaignMetrics holds the current telemetry for one campaign
type CampaignMetrics struct {
	CampaignID    string       `json:"campaign_id"`
	Name          string       `json:"name"`
	Platform      string       `json:"platform,omitempty"`
	CTR           float64      `json:"ctr"`
	HistoricalCTR float64      `json:"historical_ctr"`
	ROAS          float64      `json:"roas"`
	TargetROAS    float64      `json:"target_roas"`
	Spend         float64      `json:"spend"`
	Budget        float64      `json:"budget"`
	DailySpend    float64      `json:"daily_spend"`
	History       []TrendPoint `json:"history,omitempty"`
}

// BudgetUtilization returns spend as a fraction of budget, or 0 when
// no budget is set
func (c *CampaignMetrics) BudgetUtilization() float64 {
	if c.Budget <= 0 {
		return 0
	}
	return c.Spend / c.Budget
}

// SystemMetrics holds platform-level health telemetry
type SystemMetrics struct {
	APILatencyMS float64 `json:"api_latency_ms"`
	CPUUsage     float64 `json:"cpu_usage"`
	MemoryUsage  float64 `json:"memory_usage"`
	ErrorRate    float64 `json:"error_rate"`
}

// Snapshot is one consistent, immutable view of all telemetry consumed
// by a single pipeline run. Detectors must not mutate it.
type Snapshot struct {
	Timestamp time.Time         `json:"timestamp"`
	Campaigns []CampaignMetrics `json:"campaigns"`
	System    SystemMetrics     `json:"system"`
}
