package memory

import (
	"math"
	"runtime"
	"runtime/debug"
	"sync"
	"time"

	"image-gallery/internal/logging"
	"image-gallery/internal/metrics"
)

// Config sets the thresholds for extraction backpressure.
type Config struct {
	// LimitBytes is the budget. Zero uses GOMEMLIMIT; no limit disables
	// the monitor.
	LimitBytes int64
	// HighWaterMark is the usage fraction below which paused work resumes.
	HighWaterMark float64
	// CriticalWaterMark is the usage fraction at which work pauses.
	CriticalWaterMark float64
	CheckInterval     time.Duration
}

// DefaultConfig returns a 0.7/0.85 band sampled every 5s.
func DefaultConfig() Config {
	return Config{
		HighWaterMark:     0.7,
		CriticalWaterMark: 0.85,
		CheckInterval:     5 * time.Second,
	}
}

// Monitor samples heap usage and gates extraction workers.
type Monitor struct {
	config   Config
	limit    int64
	stopChan chan struct{}
	stopOnce sync.Once

	mu        sync.RWMutex
	current   uint64
	paused    bool
	resumeCh  chan struct{}
	readAlloc func() uint64
}

// NewMonitor creates a monitor. Without a limit it never pauses.
func NewMonitor(config Config) *Monitor {
	limit := config.LimitBytes
	if limit == 0 {
		if l := debug.SetMemoryLimit(-1); l > 0 && l < math.MaxInt64 {
			limit = l
		}
	}
	if limit == 0 {
		logging.Debug("Memory monitor: no limit configured, extraction backpressure disabled")
	}

	return &Monitor{
		config:    config,
		limit:     limit,
		stopChan:  make(chan struct{}),
		resumeCh:  make(chan struct{}),
		readAlloc: heapAlloc,
	}
}

func heapAlloc() uint64 {
	var stats runtime.MemStats
	runtime.ReadMemStats(&stats)
	return stats.Alloc
}

// Start begins periodic sampling.
func (m *Monitor) Start() {
	if m.limit == 0 {
		return
	}
	go func() {
		ticker := time.NewTicker(m.config.CheckInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				m.check()
			case <-m.stopChan:
				return
			}
		}
	}()
}

// Stop ends sampling and releases any waiting workers.
func (m *Monitor) Stop() {
	m.stopOnce.Do(func() { close(m.stopChan) })
}

func (m *Monitor) check() {
	alloc := m.readAlloc()

	m.mu.Lock()
	defer m.mu.Unlock()

	m.current = alloc
	if m.limit == 0 {
		return
	}
	usage := float64(alloc) / float64(m.limit)
	metrics.MemoryUsageRatio.Set(usage)

	switch {
	case usage >= m.config.CriticalWaterMark && !m.paused:
		logging.Warn("Memory critical (%.1f%% of limit), pausing extraction", usage*100)
		m.paused = true
		metrics.MemoryPaused.Set(1)
		metrics.MemoryGCPauses.Inc()
		go runtime.GC()
	case usage < m.config.HighWaterMark && m.paused:
		logging.Info("Memory recovered (%.1f%% of limit), resuming extraction", usage*100)
		m.paused = false
		metrics.MemoryPaused.Set(0)
		close(m.resumeCh)
		m.resumeCh = make(chan struct{})
	}
}

// WaitIfPaused blocks while extraction is paused. It returns false when
// the monitor stops first. A nil Monitor never blocks.
func (m *Monitor) WaitIfPaused() bool {
	if m == nil {
		return true
	}
	m.mu.RLock()
	if !m.paused {
		m.mu.RUnlock()
		return true
	}
	resume := m.resumeCh
	m.mu.RUnlock()

	select {
	case <-resume:
		return true
	case <-m.stopChan:
		return false
	}
}

// IsPaused reports whether extraction is currently paused.
func (m *Monitor) IsPaused() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.paused
}

// Usage returns the last sampled usage fraction, or 0 without a limit.
func (m *Monitor) Usage() float64 {
	if m.limit == 0 {
		return 0
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return float64(m.current) / float64(m.limit)
}
