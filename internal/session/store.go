package session

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"image-gallery/internal/database"
	"image-gallery/internal/logging"
	"image-gallery/internal/metrics"
)

// DefaultCacheSize is the memory tier capacity when none is configured.
const DefaultCacheSize = 1024

// Source names the tier that satisfied a read.
type Source string

const (
	SourceMemory   Source = "memory"
	SourceDatabase Source = "database"
	SourceNone     Source = ""
)

// Record is a client's last playlist.
type Record struct {
	Playlist  []string  `json:"playlist"`
	CreatedAt time.Time `json:"createdAt"`
}

// Store reads and writes session records by client identity.
type Store interface {
	Get(ctx context.Context, clientID string) (Record, bool, error)
	Put(ctx context.Context, clientID string, rec Record) error
}

// MemoryStore keeps the most recently used sessions in process memory.
type MemoryStore struct {
	cache *lru.Cache[string, Record]
}

// NewMemoryStore creates a memory tier holding up to size sessions.
func NewMemoryStore(size int) (*MemoryStore, error) {
	if size <= 0 {
		size = DefaultCacheSize
	}
	cache, err := lru.New[string, Record](size)
	if err != nil {
		return nil, fmt.Errorf("failed to create session cache: %w", err)
	}
	return &MemoryStore{cache: cache}, nil
}

// Get returns the cached record for clientID.
func (m *MemoryStore) Get(_ context.Context, clientID string) (Record, bool, error) {
	rec, ok := m.cache.Get(clientID)
	return rec, ok, nil
}

// Put caches rec for clientID, evicting the least recently used session
// when full.
func (m *MemoryStore) Put(_ context.Context, clientID string, rec Record) error {
	m.cache.Add(clientID, rec)
	return nil
}

// Len returns the number of cached sessions.
func (m *MemoryStore) Len() int {
	return m.cache.Len()
}

// DurableStore persists sessions in the database.
type DurableStore struct {
	db *database.Database
}

// NewDurableStore creates a durable tier backed by db.
func NewDurableStore(db *database.Database) *DurableStore {
	return &DurableStore{db: db}
}

// Get loads and decodes the stored playlist for clientID.
func (s *DurableStore) Get(ctx context.Context, clientID string) (Record, bool, error) {
	raw, createdAt, found, err := s.db.GetSession(ctx, clientID)
	if err != nil || !found {
		return Record{}, false, err
	}

	var playlist []string
	if err := json.Unmarshal([]byte(raw), &playlist); err != nil {
		return Record{}, false, fmt.Errorf("corrupt session for %s: %w", clientID, err)
	}
	return Record{Playlist: playlist, CreatedAt: fromUnixFloat(createdAt)}, true, nil
}

// Put encodes and stores rec for clientID, replacing any previous record.
func (s *DurableStore) Put(ctx context.Context, clientID string, rec Record) error {
	playlist := rec.Playlist
	if playlist == nil {
		playlist = []string{}
	}
	raw, err := json.Marshal(playlist)
	if err != nil {
		return fmt.Errorf("failed to encode playlist: %w", err)
	}
	return s.db.PutSession(ctx, clientID, string(raw), toUnixFloat(rec.CreatedAt))
}

// Chain reads from primary first and falls back to secondary; writes go to
// both.
type Chain struct {
	primary   Store
	secondary Store
}

// NewChain composes a memory-first, durable-fallback store.
func NewChain(primary, secondary Store) *Chain {
	return &Chain{primary: primary, secondary: secondary}
}

// Get returns the record and the tier that produced it. A durable hit is
// not copied back into memory; the next Put refreshes both tiers.
func (c *Chain) Get(ctx context.Context, clientID string) (Record, Source, error) {
	if rec, ok, err := c.primary.Get(ctx, clientID); err == nil && ok {
		metrics.SessionReadsTotal.WithLabelValues(string(SourceMemory)).Inc()
		return rec, SourceMemory, nil
	}

	rec, ok, err := c.secondary.Get(ctx, clientID)
	if err != nil {
		metrics.SessionReadsTotal.WithLabelValues("error").Inc()
		return Record{}, SourceNone, err
	}
	if !ok {
		metrics.SessionReadsTotal.WithLabelValues("none").Inc()
		return Record{}, SourceNone, nil
	}
	metrics.SessionReadsTotal.WithLabelValues(string(SourceDatabase)).Inc()
	return rec, SourceDatabase, nil
}

// Put writes rec to both tiers. Only a memory-tier failure is returned.
func (c *Chain) Put(ctx context.Context, clientID string, rec Record) error {
	if err := c.primary.Put(ctx, clientID, rec); err != nil {
		return err
	}
	if err := c.secondary.Put(ctx, clientID, rec); err != nil {
		metrics.SessionDurableWriteErrors.Inc()
		logging.Warn("Failed to persist session for %s: %v", clientID, err)
	}
	return nil
}

func toUnixFloat(t time.Time) float64 {
	return float64(t.UnixNano()) / 1e9
}

func fromUnixFloat(f float64) time.Time {
	sec := int64(f)
	nsec := int64((f - float64(sec)) * 1e9)
	return time.Unix(sec, nsec)
}
