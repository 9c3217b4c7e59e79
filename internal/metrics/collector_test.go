package metrics

import (
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

type mockStatsProvider struct {
	mu    sync.Mutex
	calls int
	stats Stats
}

func (m *mockStatsProvider) GetStats() Stats {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	return m.stats
}

func (m *mockStatsProvider) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

type mockDBUpdater struct {
	mu    sync.Mutex
	calls int
}

func (m *mockDBUpdater) UpdateDBMetrics() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
}

func TestCollectorCollectSetsGauges(t *testing.T) {
	provider := &mockStatsProvider{stats: Stats{LandscapeImages: 7, PortraitImages: 3, OutsideRoot: 4, Sessions: 2}}
	updater := &mockDBUpdater{}
	c := NewCollector(provider, updater, time.Hour)

	c.collect()

	if got := testutil.ToFloat64(CatalogImagesTotal.WithLabelValues("landscape")); got != 7 {
		t.Errorf("landscape gauge = %v, want 7", got)
	}
	if got := testutil.ToFloat64(CatalogImagesTotal.WithLabelValues("portrait")); got != 3 {
		t.Errorf("portrait gauge = %v, want 3", got)
	}
	if got := testutil.ToFloat64(CatalogOutsideRoot); got != 4 {
		t.Errorf("outside-root gauge = %v, want 4", got)
	}
	if got := testutil.ToFloat64(SessionsTotal); got != 2 {
		t.Errorf("sessions gauge = %v, want 2", got)
	}
	if updater.calls != 1 {
		t.Errorf("UpdateDBMetrics called %d times, want 1", updater.calls)
	}
}

func TestCollectorNilProvider(t *testing.T) {
	c := NewCollector(nil, nil, time.Hour)
	// Must not panic
	c.collect()
}

func TestCollectorStartStop(t *testing.T) {
	provider := &mockStatsProvider{}
	c := NewCollector(provider, nil, 10*time.Millisecond)
	c.Start()

	deadline := time.Now().Add(2 * time.Second)
	for provider.callCount() < 2 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	c.Stop()
	c.Stop()

	if provider.callCount() < 2 {
		t.Errorf("expected at least 2 collections, got %d", provider.callCount())
	}

	// no collection may run after Stop returns
	n := provider.callCount()
	time.Sleep(30 * time.Millisecond)
	if provider.callCount() != n {
		t.Error("collector kept running after Stop")
	}
}

func TestInitializeMetricsIdempotent(t *testing.T) {
	InitializeMetrics()
	InitializeMetrics()
}
