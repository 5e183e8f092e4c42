package telemetry

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/nats-io/nats.go"
	"go.uber.org/zap"

	"github.com/pulseboard/alert-intel/internal/model"
)

// ErrNoSnapshot is returned when no telemetry snapshot has been
// received yet
var ErrNoSnapshot = errors.New("no telemetry snapshot available")

const snapshotSubject = "telemetry.snapshot"

// Provider supplies the consistent snapshot consumed by one pipeline
// run. Snapshot must return a value the caller can read for the whole
// run without it changing underneath.
type Provider interface {
	Snapshot(ctx context.Context) (*model.Snapshot, error)
}

// StaticProvider returns a fixed snapshot. Used in tests and for
// one-shot invocations with pre-materialized data.
type StaticProvider struct {
	Snap *model.Snapshot
	Err  error
}

// Snapshot implements Provider
func (p *StaticProvider) Snapshot(ctx context.Context) (*model.Snapshot, error) {
	if p.Err != nil {
		return nil, p.Err
	}
	if p.Snap == nil {
		return nil, ErrNoSnapshot
	}
	return p.Snap, nil
}

// StreamProvider caches the most recent snapshot published on
// telemetry.snapshot. Each received message replaces the cache
// wholesale, so a pipeline run always sees one consistent snapshot.
type StreamProvider struct {
	logger *zap.Logger
	probe  *HostProbe
	mu     sync.RWMutex
	latest *model.Snapshot
	sub    *nats.Subscription
}

// NewStreamProvider creates a provider fed from JetStream. probe may be
// nil to skip host metric enrichment.
func NewStreamProvider(logger *zap.Logger, probe *HostProbe) *StreamProvider {
	return &StreamProvider{
		logger: logger.Named("telemetry"),
		probe:  probe,
	}
}

// Start subscribes to the snapshot subject
func (p *StreamProvider) Start(ctx context.Context, js nats.JetStreamContext) error {
	sub, err := js.Subscribe(snapshotSubject, func(msg *nats.Msg) {
		var snap model.Snapshot
		if err := json.Unmarshal(msg.Data, &snap); err != nil {
			p.logger.Error("Failed to unmarshal snapshot", zap.Error(err))
			return
		}

		if p.probe != nil {
			p.probe.Enrich(&snap)
		}

		p.mu.Lock()
		p.latest = &snap
		p.mu.Unlock()

		p.logger.Debug("Snapshot received",
			zap.Time("timestamp", snap.Timestamp),
			zap.Int("campaigns", len(snap.Campaigns)))
	})
	if err != nil {
		return fmt.Errorf("failed to subscribe to snapshots: %w", err)
	}
	p.sub = sub
	return nil
}

// Snapshot implements Provider. It returns the latest cached snapshot
// or ErrNoSnapshot when nothing has arrived yet.
func (p *StreamProvider) Snapshot(ctx context.Context) (*model.Snapshot, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.latest == nil {
		return nil, ErrNoSnapshot
	}
	return p.latest, nil
}

// Stop releases the snapshot subscription
func (p *StreamProvider) Stop() {
	if p.sub != nil {
		p.sub.Unsubscribe()
	}
}
