package detector

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/pulseboard/alert-intel/internal/model"
)

// Detector converts a telemetry snapshot into zero or more candidate
// alerts. Implementations must be stateless and must not mutate the
// snapshot.
type Detector interface {
	Name() string
	Detect(ctx context.Context, snap *model.Snapshot) ([]*model.Alert, error)
}

// Config holds the detection thresholds and pipeline tuning knobs
type Config struct {
	CTRDropRatio         float64       `mapstructure:"ctr_drop_ratio"`
	ROASCriticalRatio    float64       `mapstructure:"roas_critical_ratio"`
	ROASOpportunityRatio float64       `mapstructure:"roas_opportunity_ratio"`
	BudgetUtilizationCap float64       `mapstructure:"budget_utilization_cap"`
	BudgetDepletionDays  float64       `mapstructure:"budget_depletion_days"`
	LatencyThresholdMS   float64       `mapstructure:"latency_threshold_ms"`
	TrendMinConfidence   float64       `mapstructure:"trend_min_confidence"`
	TrendMinPoints       int           `mapstructure:"trend_min_points"`
	DetectorTimeout      time.Duration `mapstructure:"detector_timeout"`
	Workers              int           `mapstructure:"workers"`
}

// DefaultConfig returns the reference thresholds
func DefaultConfig() Config {
	return Config{
		CTRDropRatio:         0.7,
		ROASCriticalRatio:    0.8,
		ROASOpportunityRatio: 1.5,
		BudgetUtilizationCap: 0.8,
		BudgetDepletionDays:  3,
		LatencyThresholdMS:   2000,
		TrendMinConfidence:   0.7,
		TrendMinPoints:       4,
		DetectorTimeout:      10 * time.Second,
		Workers:              0,
	}
}

// Pipeline runs a set of independent detectors over one snapshot.
// A failure inside one detector never prevents the others from running.
type Pipeline struct {
	logger    *zap.Logger
	cfg       Config
	detectors []Detector
}

// NewPipeline creates a pipeline with the five canonical detectors
func NewPipeline(cfg Config, logger *zap.Logger) *Pipeline {
	return &Pipeline{
		logger: logger.Named("detector-pipeline"),
		cfg:    cfg,
		detectors: []Detector{
			&AnomalyDetector{cfg: cfg},
			&BudgetDepletionPredictor{cfg: cfg},
			&OpportunityIdentifier{cfg: cfg},
			&SystemHealthMonitor{cfg: cfg},
			&TrendDetector{cfg: cfg},
		},
	}
}

// Register appends an additional detector to the pipeline
func (p *Pipeline) Register(d Detector) {
	p.detectors = append(p.detectors, d)
}

// Run executes every detector and returns the combined candidate
// alerts in detector registration order. Detectors that error, panic,
// time out, or emit invalid alerts contribute nothing.
func (p *Pipeline) Run(ctx context.Context, snap *model.Snapshot) []*model.Alert {
	results := make([][]*model.Alert, len(p.detectors))

	if p.cfg.Workers > 1 {
		sem := make(chan struct{}, p.cfg.Workers)
		done := make(chan int, len(p.detectors))
		for i, d := range p.detectors {
			go func(i int, d Detector) {
				sem <- struct{}{}
				defer func() { <-sem; done <- i }()
				results[i] = p.runOne(ctx, d, snap)
			}(i, d)
		}
		for range p.detectors {
			<-done
		}
	} else {
		for i, d := range p.detectors {
			results[i] = p.runOne(ctx, d, snap)
		}
	}

	var alerts []*model.Alert
	for _, r := range results {
		alerts = append(alerts, r...)
	}
	return alerts
}

// runOne executes a single detector with panic recovery, a bounded
// execution time, and output validation
func (p *Pipeline) runOne(ctx context.Context, d Detector, snap *model.Snapshot) (alerts []*model.Alert) {
	defer func() {
		if r := recover(); r != nil {
			p.logger.Error("Detector panicked",
				zap.String("detector", d.Name()),
				zap.Any("panic", r))
			alerts = nil
		}
	}()

	if p.cfg.DetectorTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.cfg.DetectorTimeout)
		defer cancel()
	}

	out, err := d.Detect(ctx, snap)
	if err != nil {
		p.logger.Error("Detector failed",
			zap.String("detector", d.Name()),
			zap.Error(err))
		return nil
	}
	if err := ctx.Err(); err != nil {
		p.logger.Error("Detector timed out",
			zap.String("detector", d.Name()),
			zap.Error(err))
		return nil
	}

	for _, a := range out {
		if err := a.Validate(); err != nil {
			p.logger.Error("Detector produced invalid alert",
				zap.String("detector", d.Name()),
				zap.Error(err))
			return nil
		}
	}

	p.logger.Debug("Detector completed",
		zap.String("detector", d.Name()),
		zap.Int("alerts", len(out)))
	return out
}

// conditionID builds a condition-stable alert id so a recurring
// condition reproduces the same id on every cycle and lifecycle state
// carries forward across regeneration.
func conditionID(detector, scope string) string {
	if scope == "" {
		return detector
	}
	return fmt.Sprintf("%s:%s", detector, scope)
}
