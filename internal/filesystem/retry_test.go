package filesystem

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"syscall"
	"testing"
	"time"
)

type recordingObserver struct {
	mu     sync.Mutex
	ops    []string
	events []RetryEvent
}

func (r *recordingObserver) ObserveOperation(volume, operation string, _ time.Duration, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ops = append(r.ops, fmt.Sprintf("%s:%s:%v", volume, operation, err != nil))
}

func (r *recordingObserver) ObserveRetry(_, _ string, event RetryEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
}

func (r *recordingObserver) count(event RetryEvent) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, e := range r.events {
		if e == event {
			n++
		}
	}
	return n
}

func TestDefaultRetryConfig(t *testing.T) {
	config := DefaultRetryConfig()

	if config.MaxRetries != 3 {
		t.Errorf("Expected MaxRetries=3, got %d", config.MaxRetries)
	}
	if config.InitialBackoff != 50*time.Millisecond {
		t.Errorf("Expected InitialBackoff=50ms, got %v", config.InitialBackoff)
	}
	if config.MaxBackoff != 500*time.Millisecond {
		t.Errorf("Expected MaxBackoff=500ms, got %v", config.MaxBackoff)
	}
}

func TestIsNFSStaleError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"ESTALE", syscall.ESTALE, true},
		{"wrapped ESTALE", &os.PathError{Op: "stat", Path: "/x", Err: syscall.ESTALE}, true},
		{"ENOENT", syscall.ENOENT, false},
		{"plain error", errors.New("boom"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := isNFSStaleError(tt.err); got != tt.want {
				t.Errorf("isNFSStaleError(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}

func TestVolumeResolver_Resolve(t *testing.T) {
	vr := NewVolumeResolver(map[string]string{
		"library":  "/srv/photos",
		"database": "/srv/photos/.db",
	})

	tests := []struct {
		path string
		want string
	}{
		{"/srv/photos/a.jpg", "library"},
		{"/srv/photos", "library"},
		{"/srv/photos/.db/gallery.db", "database"},
		{"/srv/photosextra/a.jpg", "unknown"},
		{"/etc/passwd", "unknown"},
	}

	for _, tt := range tests {
		if got := vr.Resolve(tt.path); got != tt.want {
			t.Errorf("Resolve(%q) = %q, want %q", tt.path, got, tt.want)
		}
	}
}

func TestVolumeResolver_NilResolver(t *testing.T) {
	var vr *VolumeResolver
	if got := vr.Resolve("/anything"); got != "unknown" {
		t.Errorf("nil resolver returned %q, want unknown", got)
	}
}

func TestRetryHelpers_Success(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "a.jpg")
	if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	obs := &recordingObserver{}
	SetObserver(obs)
	defer SetObserver(nil)

	config := DefaultRetryConfig()
	config.VolumeResolver = NewVolumeResolver(map[string]string{"library": dir})

	info, err := StatWithRetry(path, config)
	if err != nil {
		t.Fatalf("StatWithRetry failed: %v", err)
	}
	if info.Size() != 1 {
		t.Errorf("expected size 1, got %d", info.Size())
	}

	f, err := OpenWithRetry(path, config)
	if err != nil {
		t.Fatalf("OpenWithRetry failed: %v", err)
	}
	f.Close()

	entries, err := ReadDirWithRetry(dir, config)
	if err != nil {
		t.Fatalf("ReadDirWithRetry failed: %v", err)
	}
	if len(entries) != 1 {
		t.Errorf("expected 1 entry, got %d", len(entries))
	}

	want := []string{"library:stat:false", "library:open:false", "library:readdir:false"}
	if fmt.Sprint(obs.ops) != fmt.Sprint(want) {
		t.Errorf("observed ops = %v, want %v", obs.ops, want)
	}
}

func TestStatWithRetry_NotExistFailsFast(t *testing.T) {
	config := RetryConfig{MaxRetries: 5, InitialBackoff: time.Second, MaxBackoff: time.Second}

	start := time.Now()
	_, err := StatWithRetry(filepath.Join(t.TempDir(), "missing.jpg"), config)
	if !os.IsNotExist(err) {
		t.Fatalf("expected not-exist error, got %v", err)
	}
	if time.Since(start) > 500*time.Millisecond {
		t.Error("non-stale errors must not be retried")
	}
}

func TestWithRetry_RetriesStale(t *testing.T) {
	obs := &recordingObserver{}
	SetObserver(obs)
	defer SetObserver(nil)

	calls := 0
	config := RetryConfig{MaxRetries: 3, InitialBackoff: time.Millisecond, MaxBackoff: 2 * time.Millisecond}

	v, err := withRetry("stat", "/x", config, func() (int, error) {
		calls++
		if calls < 3 {
			return 0, syscall.ESTALE
		}
		return 42, nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v != 42 || calls != 3 {
		t.Errorf("got v=%d calls=%d, want 42 and 3", v, calls)
	}
	if got := obs.count(RetryStale); got != 2 {
		t.Errorf("expected 2 stale observations, got %d", got)
	}
	if got := obs.count(RetrySucceeded); got != 1 {
		t.Errorf("expected 1 success after retry, got %d", got)
	}
}

func TestWithRetry_GivesUp(t *testing.T) {
	obs := &recordingObserver{}
	SetObserver(obs)
	defer SetObserver(nil)

	calls := 0
	config := RetryConfig{MaxRetries: 2, InitialBackoff: time.Millisecond, MaxBackoff: time.Millisecond}

	_, err := withRetry("open", "/x", config, func() (struct{}, error) {
		calls++
		return struct{}{}, syscall.ESTALE
	})
	if !errors.Is(err, syscall.ESTALE) {
		t.Fatalf("expected ESTALE, got %v", err)
	}
	if calls != 3 {
		t.Errorf("expected 3 attempts, got %d", calls)
	}
	if got := obs.count(RetryAttempt); got != 2 {
		t.Errorf("expected 2 retry attempts, got %d", got)
	}
	if got := obs.count(RetryExhausted); got != 1 {
		t.Errorf("expected 1 exhausted event, got %d", got)
	}
}
