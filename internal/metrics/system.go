package metrics

import (
	"sync"
	"time"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"
)

// SystemSampler periodically samples host CPU/memory via gopsutil, so the
// replicator's /health endpoint can report whether the process is
// resource-starved (relevant because the tick loop is a bounded-latency,
// single-threaded hot path — see §5).
type SystemSampler struct {
	mu         sync.RWMutex
	cpuPercent float64
	memUsedMB  float64
}

func NewSystemSampler() *SystemSampler {
	return &SystemSampler{}
}

// Sample refreshes the cached readings. Intended to be called from a
// low-frequency ticker (a few seconds), never from the tick loop itself.
func (s *SystemSampler) Sample() {
	cpuPercents, err := cpu.Percent(0, false)
	var cpuPct float64
	if err == nil && len(cpuPercents) > 0 {
		cpuPct = cpuPercents[0]
	}

	var memMB float64
	if vm, err := mem.VirtualMemory(); err == nil {
		memMB = float64(vm.Used) / (1024 * 1024)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	// Exponential moving average smooths spikes between samples.
	if s.cpuPercent == 0 {
		s.cpuPercent = cpuPct
	} else {
		s.cpuPercent = 0.3*cpuPct + 0.7*s.cpuPercent
	}
	s.memUsedMB = memMB
}

func (s *SystemSampler) Snapshot() (cpuPercent, memUsedMB float64) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cpuPercent, s.memUsedMB
}

// RunLoop samples on the given interval until stop is closed.
func (s *SystemSampler) RunLoop(interval time.Duration, stop <-chan struct{}) {
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-stop:
			return
		case <-t.C:
			s.Sample()
		}
	}
}
