package metrics

import (
	"time"

	"image-gallery/internal/filesystem"
)

// filesystemObserver records filesystem calls into the Prometheus vectors
// of this package.
type filesystemObserver struct{}

// NewFilesystemObserver returns the observer to pass to
// filesystem.SetObserver at startup.
func NewFilesystemObserver() filesystem.Observer {
	return filesystemObserver{}
}

func (filesystemObserver) ObserveOperation(volume, operation string, duration time.Duration, err error) {
	FilesystemOperationDuration.WithLabelValues(volume, operation).Observe(duration.Seconds())
	if err != nil {
		FilesystemOperationErrors.WithLabelValues(volume, operation).Inc()
	}
}

func (filesystemObserver) ObserveRetry(volume, operation string, event filesystem.RetryEvent) {
	FilesystemRetries.WithLabelValues(volume, operation, string(event)).Inc()
}
