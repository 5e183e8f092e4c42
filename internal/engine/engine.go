package engine

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/pulseboard/alert-intel/internal/detector"
	"github.com/pulseboard/alert-intel/internal/lifecycle"
	"github.com/pulseboard/alert-intel/internal/model"
	"github.com/pulseboard/alert-intel/internal/notify"
	"github.com/pulseboard/alert-intel/internal/storage"
	"github.com/pulseboard/alert-intel/internal/telemetry"
)

const (
	alertStreamName = "ALERTS"

	alertsSubject   = "alerts.generated"
	clustersSubject = "alerts.clusters"
	insightsSubject = "alerts.insights"
	forecastSubject = "alerts.forecast"

	streamMaxAge = 24 * time.Hour
)

// ErrCycleInProgress is returned when a trigger fires while a pipeline
// run is already active. The trigger is dropped, not queued.
var ErrCycleInProgress = errors.New("pipeline cycle already in progress")

// Options configures an Engine. Provider and Lifecycle are required;
// JS, Store and Notifier are optional.
type Options struct {
	Provider  telemetry.Provider
	Lifecycle *lifecycle.Manager
	JS        nats.JetStreamContext
	Store     storage.AlertLogStorage
	Notifier  *notify.Notifier

	Detector         detector.Config
	AlertInterval    time.Duration
	ForecastInterval time.Duration
}

// Engine runs the full detection pipeline on a fixed cadence:
// detectors, prioritizer, lifecycle overlay, clustering, insights,
// then publication. At most one cycle runs at a time.
type Engine struct {
	logger     *zap.Logger
	opts       Options
	pipeline   *detector.Pipeline
	cron       *cron.Cron
	running    atomic.Bool
	processing atomic.Bool

	mu           sync.RWMutex
	lastAlerts   []*model.Alert
	lastClusters []*model.Cluster
	lastInsights []*model.Insight
	lastRunAt    time.Time
}

// cronLogger adapts zap.Logger to cron.Logger
type cronLogger struct {
	logger *zap.Logger
}

func (l *cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Info(msg)
}

func (l *cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.logger.Error(msg, zap.Error(err))
}

// New creates an engine
func New(opts Options, logger *zap.Logger) *Engine {
	if opts.AlertInterval <= 0 {
		opts.AlertInterval = 60 * time.Second
	}
	if opts.ForecastInterval <= 0 {
		opts.ForecastInterval = 300 * time.Second
	}

	cl := &cronLogger{logger: logger.Named("cron")}
	return &Engine{
		logger:   logger.Named("engine"),
		opts:     opts,
		pipeline: detector.NewPipeline(opts.Detector, logger),
		cron:     cron.New(cron.WithChain(cron.Recover(cl))),
	}
}

// Start creates the alert stream when a JetStream context is present
// and begins the periodic alert and forecast schedules
func (e *Engine) Start(ctx context.Context) error {
	if e.opts.JS != nil {
		if err := e.setupStream(); err != nil {
			return err
		}
	}

	if _, err := e.cron.AddFunc(fmt.Sprintf("@every %s", e.opts.AlertInterval), func() {
		if err := e.RunCycle(ctx); err != nil && !errors.Is(err, ErrCycleInProgress) {
			e.logger.Error("Pipeline cycle failed", zap.Error(err))
		}
	}); err != nil {
		return fmt.Errorf("failed to schedule alert cycle: %w", err)
	}

	if _, err := e.cron.AddFunc(fmt.Sprintf("@every %s", e.opts.ForecastInterval), func() {
		if err := e.RunForecast(ctx); err != nil {
			e.logger.Error("Forecast cycle failed", zap.Error(err))
		}
	}); err != nil {
		return fmt.Errorf("failed to schedule forecast cycle: %w", err)
	}

	e.cron.Start()
	e.running.Store(true)
	e.logger.Info("Engine started",
		zap.Duration("alert_interval", e.opts.AlertInterval),
		zap.Duration("forecast_interval", e.opts.ForecastInterval))
	return nil
}

// Stop halts the schedules and waits for a running cycle to finish
func (e *Engine) Stop() {
	if !e.running.CompareAndSwap(true, false) {
		return
	}
	stopped := e.cron.Stop()
	<-stopped.Done()
	e.logger.Info("Engine stopped")
}

func (e *Engine) setupStream() error {
	_, err := e.opts.JS.StreamInfo(alertStreamName)
	if err == nil {
		return nil
	}
	if err != nats.ErrStreamNotFound {
		return fmt.Errorf("failed to get stream info: %w", err)
	}

	_, err = e.opts.JS.AddStream(&nats.StreamConfig{
		Name:     alertStreamName,
		Subjects: []string{"alerts.>"},
		Storage:  nats.FileStorage,
		MaxAge:   streamMaxAge,
	})
	if err != nil {
		return fmt.Errorf("failed to create stream: %w", err)
	}
	e.logger.Info("Created alert stream", zap.String("name", alertStreamName))
	return nil
}

// GenerateAlerts runs the detector pipeline over a snapshot, merges
// the manually entered alerts, and returns the combined candidates in
// prioritized order
func (e *Engine) GenerateAlerts(ctx context.Context, snap *model.Snapshot) []*model.Alert {
	alerts := e.pipeline.Run(ctx, snap)
	alerts = append(alerts, e.opts.Lifecycle.ManualAlerts()...)
	return Prioritize(alerts)
}

// RunCycle executes one full pipeline run. A trigger that fires while
// a run is in progress returns ErrCycleInProgress and does nothing.
// When the snapshot is unavailable the cycle aborts and the previously
// published state is left unchanged.
func (e *Engine) RunCycle(ctx context.Context) error {
	if !e.processing.CompareAndSwap(false, true) {
		e.logger.Debug("Dropped trigger, cycle already running")
		return ErrCycleInProgress
	}
	defer e.processing.Store(false)

	started := time.Now()
	snap, err := e.opts.Provider.Snapshot(ctx)
	if err != nil {
		return fmt.Errorf("snapshot unavailable: %w", err)
	}

	runID := uuid.New().String()

	alerts := e.GenerateAlerts(ctx, snap)
	e.opts.Lifecycle.Track(alerts)

	clusters := BuildClusters(alerts)
	insights := GenerateInsights(alerts, clusters)

	e.mu.Lock()
	e.lastAlerts = alerts
	e.lastClusters = clusters
	e.lastInsights = insights
	e.lastRunAt = started
	e.mu.Unlock()

	e.publish(alertsSubject, alerts)
	e.publish(clustersSubject, clusters)
	e.publish(insightsSubject, insights)

	if e.opts.Store != nil {
		if err := e.opts.Store.StoreRun(ctx, runID, alerts); err != nil {
			e.logger.Error("Failed to archive run",
				zap.String("run_id", runID),
				zap.Error(err))
		}
	}

	if e.opts.Notifier != nil {
		e.opts.Notifier.NotifyUrgent(ctx, alerts)
	}

	e.logger.Info("Pipeline cycle completed",
		zap.String("run_id", runID),
		zap.Int("alerts", len(alerts)),
		zap.Int("clusters", len(clusters)),
		zap.Int("insights", len(insights)),
		zap.Duration("duration", time.Since(started)))
	return nil
}

// publish sends one artifact to JetStream. Publish failures are logged
// but do not abort the cycle; the in-memory state is already updated.
func (e *Engine) publish(subject string, payload interface{}) {
	if e.opts.JS == nil {
		return
	}
	data, err := json.Marshal(payload)
	if err != nil {
		e.logger.Error("Failed to marshal artifact",
			zap.String("subject", subject),
			zap.Error(err))
		return
	}
	if _, err := e.opts.JS.Publish(subject, data); err != nil {
		e.logger.Error("Failed to publish artifact",
			zap.String("subject", subject),
			zap.Error(err))
	}
}

// Alerts returns the full prioritized alert list from the last
// successful cycle
func (e *Engine) Alerts() []*model.Alert {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.lastAlerts
}

// ActiveAlerts returns the primary alert view: active alerts only.
// Acknowledged, resolved and dismissed alerts remain queryable through
// Alerts and the alert log.
func (e *Engine) ActiveAlerts() []*model.Alert {
	e.mu.RLock()
	defer e.mu.RUnlock()

	var active []*model.Alert
	for _, a := range e.lastAlerts {
		if a.Status == model.AlertStatusActive {
			active = append(active, a)
		}
	}
	return active
}

// Clusters returns the clusters from the last successful cycle
func (e *Engine) Clusters() []*model.Cluster {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.lastClusters
}

// Insights returns the insights from the last successful cycle
func (e *Engine) Insights() []*model.Insight {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.lastInsights
}

// CampaignForecast is one campaign's longer-horizon trend projection
type CampaignForecast struct {
	CampaignID string                  `json:"campaign_id"`
	Name       string                  `json:"name"`
	Direction  detector.TrendDirection `json:"direction"`
	Confidence float64                 `json:"confidence"`
}

// ForecastDigest is the artifact of one forecast cycle
type ForecastDigest struct {
	GeneratedAt time.Time          `json:"generated_at"`
	Campaigns   []CampaignForecast `json:"campaigns"`
}

// RunForecast runs the trend classifier over every campaign's history
// and publishes a digest. This is the longer-horizon companion to the
// alert cycle and shares its snapshot source.
func (e *Engine) RunForecast(ctx context.Context) error {
	snap, err := e.opts.Provider.Snapshot(ctx)
	if err != nil {
		return fmt.Errorf("snapshot unavailable: %w", err)
	}

	digest := ForecastDigest{GeneratedAt: time.Now()}
	for i := range snap.Campaigns {
		c := &snap.Campaigns[i]
		result := detector.ClassifyTrend(c.History, e.opts.Detector.TrendMinPoints)
		digest.Campaigns = append(digest.Campaigns, CampaignForecast{
			CampaignID: c.CampaignID,
			Name:       c.Name,
			Direction:  result.Direction,
			Confidence: result.Confidence,
		})
	}

	e.publish(forecastSubject, digest)
	e.logger.Debug("Forecast cycle completed",
		zap.Int("campaigns", len(digest.Campaigns)))
	return nil
}
