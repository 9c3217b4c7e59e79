package handlers

import (
	"log"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"image-gallery/internal/logging"
)

// logWriter adapts logging.Error for promhttp's error log.
type logWriter struct{}

func (logWriter) Write(p []byte) (int, error) {
	logging.Error("metrics: %s", p)
	return len(p), nil
}

// MetricsHandler serves the default registry for the separate metrics
// listener. A failing collector is logged and skipped rather than failing
// the whole scrape.
func (h *Handlers) MetricsHandler() http.Handler {
	return promhttp.InstrumentMetricHandler(
		prometheus.DefaultRegisterer,
		promhttp.HandlerFor(prometheus.DefaultGatherer, promhttp.HandlerOpts{
			ErrorLog:          log.New(logWriter{}, "", 0),
			ErrorHandling:     promhttp.ContinueOnError,
			EnableOpenMetrics: true,
		}),
	)
}
