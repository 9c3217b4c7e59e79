package filesystem

import (
	"sync/atomic"
	"time"
)

// RetryEvent names a step of the stale-handle retry loop.
type RetryEvent string

const (
	RetryStale     RetryEvent = "stale"
	RetryAttempt   RetryEvent = "attempt"
	RetrySucceeded RetryEvent = "succeeded"
	RetryExhausted RetryEvent = "exhausted"
)

// Observer receives filesystem operation metrics. The Prometheus
// implementation lives in the metrics package, which imports this one.
type Observer interface {
	// ObserveOperation records one stat, open or readdir call including
	// any retries.
	ObserveOperation(volume, operation string, duration time.Duration, err error)
	ObserveRetry(volume, operation string, event RetryEvent)
}

type nopObserver struct{}

func (nopObserver) ObserveOperation(string, string, time.Duration, error) {}
func (nopObserver) ObserveRetry(string, string, RetryEvent)               {}

type observerHolder struct{ Observer }

var defaultObserver atomic.Pointer[observerHolder]

// SetObserver installs o for every retrying operation. nil disables
// recording.
func SetObserver(o Observer) {
	if o == nil {
		defaultObserver.Store(nil)
		return
	}
	defaultObserver.Store(&observerHolder{o})
}

func observe() Observer {
	if h := defaultObserver.Load(); h != nil {
		return h.Observer
	}
	return nopObserver{}
}
