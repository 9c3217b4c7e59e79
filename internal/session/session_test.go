package session

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"image-gallery/internal/database"
	"image-gallery/internal/security"
)

type failingStore struct{}

func (failingStore) Get(context.Context, string) (Record, bool, error) {
	return Record{}, false, errors.New("store down")
}

func (failingStore) Put(context.Context, string, Record) error {
	return errors.New("store down")
}

func setupDB(t *testing.T) *database.Database {
	t.Helper()

	db, err := database.New(context.Background(), filepath.Join(t.TempDir(), database.FileName))
	if err != nil {
		t.Fatalf("Failed to create test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func newChain(t *testing.T, db *database.Database) (*Chain, *MemoryStore) {
	t.Helper()

	mem, err := NewMemoryStore(8)
	if err != nil {
		t.Fatal(err)
	}
	return NewChain(mem, NewDurableStore(db)), mem
}

func TestMemoryStore_EvictsLeastRecentlyUsed(t *testing.T) {
	ctx := context.Background()
	mem, err := NewMemoryStore(2)
	if err != nil {
		t.Fatal(err)
	}

	_ = mem.Put(ctx, "a", Record{Playlist: []string{"1"}})
	_ = mem.Put(ctx, "b", Record{Playlist: []string{"2"}})
	if _, ok, _ := mem.Get(ctx, "a"); !ok {
		t.Fatal("expected a to be cached")
	}
	_ = mem.Put(ctx, "c", Record{Playlist: []string{"3"}})

	if _, ok, _ := mem.Get(ctx, "b"); ok {
		t.Error("b should have been evicted")
	}
	if mem.Len() != 2 {
		t.Errorf("Len = %d, want 2", mem.Len())
	}
}

func TestNewMemoryStore_DefaultSize(t *testing.T) {
	mem, err := NewMemoryStore(0)
	if err != nil {
		t.Fatalf("NewMemoryStore(0) failed: %v", err)
	}
	if mem == nil {
		t.Fatal("expected a store")
	}
}

func TestDurableStore_RoundTrip(t *testing.T) {
	ctx := context.Background()
	store := NewDurableStore(setupDB(t))

	created := time.Date(2025, 1, 2, 3, 4, 5, 250_000_000, time.UTC)
	if err := store.Put(ctx, "10.0.0.1", Record{Playlist: []string{"a.jpg", "b.jpg"}, CreatedAt: created}); err != nil {
		t.Fatal(err)
	}

	rec, ok, err := store.Get(ctx, "10.0.0.1")
	if err != nil || !ok {
		t.Fatalf("Get = %v, %v", ok, err)
	}
	if len(rec.Playlist) != 2 || rec.Playlist[1] != "b.jpg" {
		t.Errorf("playlist = %v", rec.Playlist)
	}
	if d := rec.CreatedAt.Sub(created); d > time.Millisecond || d < -time.Millisecond {
		t.Errorf("CreatedAt = %v, want %v", rec.CreatedAt, created)
	}
}

func TestDurableStore_EmptyPlaylistStoredAsArray(t *testing.T) {
	ctx := context.Background()
	db := setupDB(t)
	store := NewDurableStore(db)

	if err := store.Put(ctx, "c", Record{}); err != nil {
		t.Fatal(err)
	}
	raw, _, found, err := db.GetSession(ctx, "c")
	if err != nil || !found {
		t.Fatalf("GetSession = %v, %v", found, err)
	}
	if raw != "[]" {
		t.Errorf("stored %q, want []", raw)
	}
}

func TestChain_ReportsSource(t *testing.T) {
	ctx := context.Background()
	db := setupDB(t)
	chain, _ := newChain(t, db)

	if _, src, err := chain.Get(ctx, "x"); err != nil || src != SourceNone {
		t.Fatalf("unknown client: source %q, err %v", src, err)
	}

	if err := chain.Put(ctx, "x", Record{Playlist: []string{"a.jpg"}, CreatedAt: time.Now()}); err != nil {
		t.Fatal(err)
	}
	rec, src, err := chain.Get(ctx, "x")
	if err != nil || src != SourceMemory || len(rec.Playlist) != 1 {
		t.Fatalf("after put: %v %q %v", rec, src, err)
	}

	// a fresh memory tier simulates a restart
	restarted, _ := newChain(t, db)
	rec, src, err = restarted.Get(ctx, "x")
	if err != nil || src != SourceDatabase || len(rec.Playlist) != 1 {
		t.Fatalf("after restart: %v %q %v", rec, src, err)
	}
}

func TestChain_DurableWriteFailureNotFatal(t *testing.T) {
	ctx := context.Background()
	mem, err := NewMemoryStore(4)
	if err != nil {
		t.Fatal(err)
	}
	chain := NewChain(mem, failingStore{})

	if err := chain.Put(ctx, "x", Record{Playlist: []string{"a.jpg"}}); err != nil {
		t.Fatalf("Put should tolerate durable failure, got %v", err)
	}
	if _, src, err := chain.Get(ctx, "x"); err != nil || src != SourceMemory {
		t.Errorf("Get = %q, %v", src, err)
	}
}

func newManager(t *testing.T, allowParent bool) (*Manager, string) {
	t.Helper()

	root := t.TempDir()
	boundary, err := security.NewBoundary(root)
	if err != nil {
		t.Fatal(err)
	}
	chain, _ := newChain(t, setupDB(t))
	return NewManager(chain, boundary, security.NewPolicy(allowParent)), root
}

func touch(t *testing.T, path string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestRestore_DropsMissingFiles(t *testing.T) {
	ctx := context.Background()
	m, root := newManager(t, false)
	touch(t, filepath.Join(root, "x.jpg"))

	res, err := m.Restore(ctx, "client", []string{"x.jpg", "y.jpg"}, 0)
	if err != nil {
		t.Fatalf("Restore failed: %v", err)
	}
	if res.ValidCount != 1 || res.OriginalCount != 2 {
		t.Errorf("counts = %d/%d, want 1/2", res.ValidCount, res.OriginalCount)
	}
	if len(res.Playlist) != 1 || res.Playlist[0] != "x.jpg" {
		t.Errorf("playlist = %v, want [x.jpg]", res.Playlist)
	}
	if res.Status != "restored" {
		t.Errorf("status = %q", res.Status)
	}

	rec, _, err := m.Get(ctx, "client")
	if err != nil || len(rec.Playlist) != 1 {
		t.Errorf("stored session = %v, %v", rec, err)
	}
}

func TestRestore_ClampsIndexAndNormalizes(t *testing.T) {
	ctx := context.Background()
	m, root := newManager(t, false)
	touch(t, filepath.Join(root, "a", "1.jpg"))
	touch(t, filepath.Join(root, "a", "2.jpg"))

	res, err := m.Restore(ctx, "client", []string{`\a\1.jpg`, "/a/./2.jpg/", "a"}, 10)
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"a/1.jpg", "a/2.jpg"}
	if len(res.Playlist) != 2 || res.Playlist[0] != want[0] || res.Playlist[1] != want[1] {
		t.Errorf("playlist = %v, want %v", res.Playlist, want)
	}
	if res.CurrentIndex != 1 {
		t.Errorf("CurrentIndex = %d, want 1", res.CurrentIndex)
	}

	res, err = m.Restore(ctx, "client", []string{"a/1.jpg"}, -5)
	if err != nil {
		t.Fatal(err)
	}
	if res.CurrentIndex != 0 {
		t.Errorf("CurrentIndex = %d, want 0", res.CurrentIndex)
	}
}

func TestRestore_InvalidInput(t *testing.T) {
	ctx := context.Background()
	m, _ := newManager(t, false)

	_, err := m.Restore(ctx, "client", nil, 0)
	if !errors.Is(err, security.ErrInvalidInput) {
		t.Errorf("empty restore: got %v, want ErrInvalidInput", err)
	}

	_, err = m.Restore(ctx, "client", []string{"gone.jpg", "also-gone.jpg"}, 0)
	var restoreErr *RestoreError
	if !errors.As(err, &restoreErr) {
		t.Fatalf("expected RestoreError, got %v", err)
	}
	if restoreErr.OriginalCount != 2 || restoreErr.ValidCount != 0 {
		t.Errorf("counts = %+v", restoreErr)
	}
	if !errors.Is(err, security.ErrInvalidInput) {
		t.Error("RestoreError should unwrap to ErrInvalidInput")
	}
}

func TestRestore_RespectsPolicy(t *testing.T) {
	ctx := context.Background()
	base := t.TempDir()
	root := filepath.Join(base, "library")
	touch(t, filepath.Join(root, "in.jpg"))
	touch(t, filepath.Join(base, "outside.jpg"))

	boundary, err := security.NewBoundary(root)
	if err != nil {
		t.Fatal(err)
	}
	policy := security.NewPolicy(false)
	chain, _ := newChain(t, setupDB(t))
	m := NewManager(chain, boundary, policy)

	res, err := m.Restore(ctx, "c", []string{"in.jpg", "../outside.jpg"}, 0)
	if err != nil {
		t.Fatal(err)
	}
	if res.ValidCount != 1 {
		t.Errorf("escape allowed while policy forbids it: %v", res.Playlist)
	}

	policy.Set(true)
	res, err = m.Restore(ctx, "c", []string{"in.jpg", "../outside.jpg"}, 0)
	if err != nil {
		t.Fatal(err)
	}
	if res.ValidCount != 2 {
		t.Errorf("escape rejected while policy allows it: %v", res.Playlist)
	}
}

func TestStatus(t *testing.T) {
	ctx := context.Background()
	m, _ := newManager(t, false)

	st, err := m.Status(ctx, "nobody")
	if err != nil {
		t.Fatal(err)
	}
	raw, _ := json.Marshal(st)
	if string(raw) != `{"has_session":false,"source":null,"playlist_size":0}` {
		t.Errorf("empty status JSON = %s", raw)
	}

	if err := m.Save(ctx, "c", []string{"a.jpg", "b.jpg"}); err != nil {
		t.Fatal(err)
	}
	st, err = m.Status(ctx, "c")
	if err != nil {
		t.Fatal(err)
	}
	if !st.HasSession || st.Source == nil || *st.Source != "memory" || st.PlaylistSize != 2 {
		t.Errorf("status = %+v", st)
	}
}
