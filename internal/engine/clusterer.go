package engine

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/pulseboard/alert-intel/internal/model"
)

// ClusterThreshold is the minimum similarity for two alerts to share a
// cluster
const ClusterThreshold = 0.70

// patternTagTable maps detector pattern tags to cluster pattern types.
// Tags with no entry fall back to anomaly_spike.
var patternTagTable = map[string]model.PatternType{
	"performance_decline": model.PatternPerformanceDecline,
	"budget_depletion":    model.PatternBudgetDepletion,
	"revenue_decline":     model.PatternPerformanceDecline,
	"system_degradation":  model.PatternSystemIssue,
	"high_performance":    model.PatternOpportunity,
}

// BuildClusters partitions the alerts into clusters of related alerts.
// The pass is greedy and order-dependent: the input must be in
// prioritized order, and each alert seeds a cluster from the still
// unclaimed alerts similar to it. Every alert ends up in exactly one
// cluster; leftovers become singletons.
func BuildClusters(alerts []*model.Alert) []*model.Cluster {
	claimed := make(map[string]bool, len(alerts))
	var clusters []*model.Cluster

	for _, seed := range alerts {
		if claimed[seed.ID] {
			continue
		}

		members := []*model.Alert{seed}
		scores := []float64{1.0}
		for _, other := range alerts {
			if other.ID == seed.ID || claimed[other.ID] {
				continue
			}
			if s := Similarity(seed, other); s > ClusterThreshold {
				members = append(members, other)
				scores = append(scores, s)
			}
		}

		if len(members) > 1 {
			clusters = append(clusters, newCluster(members, scores))
			for _, m := range members {
				claimed[m.ID] = true
			}
		}
	}

	for _, a := range alerts {
		if !claimed[a.ID] {
			clusters = append(clusters, newCluster([]*model.Alert{a}, []float64{1.0}))
		}
	}

	sort.SliceStable(clusters, func(i, j int) bool {
		a, b := clusters[i], clusters[j]
		if wa, wb := a.Priority.Weight(), b.Priority.Weight(); wa != wb {
			return wa > wb
		}
		return clusterRank(a) > clusterRank(b)
	})

	return clusters
}

// clusterRank is the tie-break key: total severity scaled by the log of
// the cluster size
func clusterRank(c *model.Cluster) float64 {
	return float64(c.TotalSeverity) * math.Log(float64(c.Size())+1)
}

// newCluster builds a cluster and its derived metadata from an ordered
// member set and each member's similarity to the seed
func newCluster(members []*model.Alert, scores []float64) *model.Cluster {
	c := &model.Cluster{
		ID:     uuid.New().String(),
		Alerts: members,
	}

	for i, m := range members {
		m.Cluster = &model.ClusterRef{
			ClusterID:   c.ID,
			ClusterSize: len(members),
			Similarity:  scores[i],
		}
		c.TotalSeverity += m.Severity
		if m.Priority.Weight() > c.Priority.Weight() {
			c.Priority = m.Priority
		}
	}

	c.Category = dominantCategory(members)
	c.AffectedCampaigns = distinctCampaigns(members)
	c.Pattern = derivePattern(members)

	platform := dominantPlatform(members)
	c.Name = clusterName(c.Category, platform, len(members))
	if platform != "" {
		c.Description = fmt.Sprintf("%d related %s alerts on %s", len(members), c.Category, platform)
	} else {
		c.Description = fmt.Sprintf("%d related %s alerts", len(members), c.Category)
	}

	return c
}

func clusterName(category model.AlertCategory, platform string, size int) string {
	label := strings.ToUpper(string(category)[:1]) + string(category)[1:]
	if size == 1 {
		if platform != "" {
			return fmt.Sprintf("%s alert (%s)", label, platform)
		}
		return fmt.Sprintf("%s alert", label)
	}
	if platform != "" {
		return fmt.Sprintf("%s alerts (%s)", label, platform)
	}
	return fmt.Sprintf("%s alerts", label)
}

// dominantCategory returns the most frequent category among members,
// first-seen order breaking ties
func dominantCategory(members []*model.Alert) model.AlertCategory {
	counts := make(map[model.AlertCategory]int)
	var order []model.AlertCategory
	for _, m := range members {
		if counts[m.Category] == 0 {
			order = append(order, m.Category)
		}
		counts[m.Category]++
	}
	best := order[0]
	for _, cat := range order {
		if counts[cat] > counts[best] {
			best = cat
		}
	}
	return best
}

func dominantPlatform(members []*model.Alert) string {
	counts := make(map[string]int)
	var order []string
	for _, m := range members {
		if m.Platform == "" {
			continue
		}
		if counts[m.Platform] == 0 {
			order = append(order, m.Platform)
		}
		counts[m.Platform]++
	}
	if len(order) == 0 {
		return ""
	}
	best := order[0]
	for _, p := range order {
		if counts[p] > counts[best] {
			best = p
		}
	}
	return best
}

func distinctCampaigns(members []*model.Alert) []string {
	seen := make(map[string]bool)
	var campaigns []string
	for _, m := range members {
		if m.CampaignID == "" || seen[m.CampaignID] {
			continue
		}
		seen[m.CampaignID] = true
		campaigns = append(campaigns, m.CampaignID)
	}
	return campaigns
}

// derivePattern summarizes the members: most frequent pattern tag
// mapped to a pattern type, time-span bucketed frequency, averaged
// confidence, and a predictability score from the source mix
func derivePattern(members []*model.Alert) model.ClusterPattern {
	tagCounts := make(map[string]int)
	var tagOrder []string
	confidenceSum := 0
	generated := 0
	predictive := 0

	oldest := members[0].Timestamp
	newest := members[0].Timestamp

	for _, m := range members {
		for _, tag := range m.Metadata.PatternTags {
			if tagCounts[tag] == 0 {
				tagOrder = append(tagOrder, tag)
			}
			tagCounts[tag]++
		}
		confidenceSum += m.Confidence
		if m.SourceGenerated {
			generated++
		}
		if m.Kind == model.AlertKindPredictive {
			predictive++
		}
		if m.Timestamp.Before(oldest) {
			oldest = m.Timestamp
		}
		if m.Timestamp.After(newest) {
			newest = m.Timestamp
		}
	}

	patternType := model.PatternAnomalySpike
	if len(tagOrder) > 0 {
		best := tagOrder[0]
		for _, tag := range tagOrder {
			if tagCounts[tag] > tagCounts[best] {
				best = tag
			}
		}
		if mapped, ok := patternTagTable[best]; ok {
			patternType = mapped
		}
	}

	span := newest.Sub(oldest)
	frequency := model.FrequencyMonthly
	switch {
	case span.Hours() < 24:
		frequency = model.FrequencyHigh
	case span.Hours() < 168:
		frequency = model.FrequencyWeekly
	}

	n := float64(len(members))
	predictability := 80*(float64(generated)/n) + 20*(float64(predictive)/n)
	if predictability > 100 {
		predictability = 100
	}

	return model.ClusterPattern{
		Type:           patternType,
		Confidence:     int(math.Round(float64(confidenceSum) / n)),
		Frequency:      frequency,
		Predictability: int(math.Round(predictability)),
	}
}
