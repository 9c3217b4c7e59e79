package metrics

import (
	"sync"
	"time"

	"image-gallery/internal/logging"
)

// StatsProvider supplies catalog counts for the periodic gauges.
type StatsProvider interface {
	GetStats() Stats
}

// DBMetricsUpdater refreshes connection-pool gauges.
type DBMetricsUpdater interface {
	UpdateDBMetrics()
}

// Stats is a snapshot of catalog counts.
type Stats struct {
	LandscapeImages int
	PortraitImages  int
	OutsideRoot     int
	Sessions        int
}

// Collector refreshes the catalog gauges on an interval. The counts need a
// full table scan, so they are not computed per scrape.
type Collector struct {
	statsProvider StatsProvider
	dbUpdater     DBMetricsUpdater
	interval      time.Duration
	stopChan      chan struct{}
	stopOnce      sync.Once
	wg            sync.WaitGroup
}

// NewCollector creates a collector. Either dependency may be nil.
func NewCollector(provider StatsProvider, dbUpdater DBMetricsUpdater, interval time.Duration) *Collector {
	return &Collector{
		statsProvider: provider,
		dbUpdater:     dbUpdater,
		interval:      interval,
		stopChan:      make(chan struct{}),
	}
}

// Start collects once immediately, then on every tick.
func (c *Collector) Start() {
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		c.collectLoop()
	}()
}

// Stop ends the loop and waits for an in-progress collection. It is safe
// to call more than once.
func (c *Collector) Stop() {
	c.stopOnce.Do(func() { close(c.stopChan) })
	c.wg.Wait()
}

func (c *Collector) collectLoop() {
	c.collect()

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.collect()
		case <-c.stopChan:
			return
		}
	}
}

func (c *Collector) collect() {
	if c.dbUpdater != nil {
		c.dbUpdater.UpdateDBMetrics()
	}
	if c.statsProvider == nil {
		return
	}

	stats := c.statsProvider.GetStats()
	CatalogImagesTotal.WithLabelValues("landscape").Set(float64(stats.LandscapeImages))
	CatalogImagesTotal.WithLabelValues("portrait").Set(float64(stats.PortraitImages))
	CatalogOutsideRoot.Set(float64(stats.OutsideRoot))
	SessionsTotal.Set(float64(stats.Sessions))

	logging.Debug("Metrics collected: landscape=%d, portrait=%d, outside_root=%d, sessions=%d",
		stats.LandscapeImages, stats.PortraitImages, stats.OutsideRoot, stats.Sessions)
}
