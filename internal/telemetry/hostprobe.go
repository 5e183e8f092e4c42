package telemetry

import (
	"time"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"
	"go.uber.org/zap"

	"github.com/pulseboard/alert-intel/internal/model"
)

// HostProbe fills local host metrics into a snapshot's system section
// for deployments where the engine itself is the monitored system
type HostProbe struct {
	logger *zap.Logger
}

// NewHostProbe creates a host probe
func NewHostProbe(logger *zap.Logger) *HostProbe {
	return &HostProbe{logger: logger.Named("host-probe")}
}

// Enrich sets CPU and memory usage on the snapshot. Fields already
// present in the snapshot (latency, error rate) are left untouched.
func (p *HostProbe) Enrich(snap *model.Snapshot) {
	cpuPercent, err := cpu.Percent(time.Second, false)
	if err != nil {
		p.logger.Error("Failed to get CPU usage", zap.Error(err))
	} else if len(cpuPercent) > 0 {
		snap.System.CPUUsage = cpuPercent[0]
	}

	memInfo, err := mem.VirtualMemory()
	if err != nil {
		p.logger.Error("Failed to get memory usage", zap.Error(err))
	} else {
		snap.System.MemoryUsage = memInfo.UsedPercent
	}

	p.logger.Debug("Host metrics collected",
		zap.Float64("cpu_usage", snap.System.CPUUsage),
		zap.Float64("memory_usage", snap.System.MemoryUsage))
}
