package playlist

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sort"
	"testing"
	"time"

	"image-gallery/internal/database"
	"image-gallery/internal/security"
	"image-gallery/internal/session"
)

type recordingSyncer struct {
	scopes [][]string
	err    error
}

func (s *recordingSyncer) EnsureScopes(_ context.Context, scopes []string) error {
	s.scopes = append(s.scopes, append([]string(nil), scopes...))
	return s.err
}

type testEnv struct {
	root     string
	db       *database.Database
	policy   *security.Policy
	sessions *session.Manager
	syncer   *recordingSyncer
	builder  *Builder
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	base := t.TempDir()
	root := filepath.Join(base, "library")
	if err := os.MkdirAll(root, 0o755); err != nil {
		t.Fatal(err)
	}

	db, err := database.New(context.Background(), filepath.Join(base, database.FileName))
	if err != nil {
		t.Fatalf("Failed to create test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	boundary, err := security.NewBoundary(root)
	if err != nil {
		t.Fatal(err)
	}
	policy := security.NewPolicy(false)

	mem, err := session.NewMemoryStore(16)
	if err != nil {
		t.Fatal(err)
	}
	sessions := session.NewManager(session.NewChain(mem, session.NewDurableStore(db)), boundary, policy)
	syncer := &recordingSyncer{}

	return &testEnv{
		root:     root,
		db:       db,
		policy:   policy,
		sessions: sessions,
		syncer:   syncer,
		builder:  NewBuilder(db, syncer, sessions, boundary, policy),
	}
}

func (env *testEnv) seed(t *testing.T, images ...database.Image) {
	t.Helper()

	batch, err := env.db.BeginBatch()
	if err != nil {
		t.Fatal(err)
	}
	for _, img := range images {
		if err = env.db.UpsertImage(batch, img); err != nil {
			break
		}
	}
	if err := env.db.EndBatch(batch, err); err != nil {
		t.Fatalf("Failed to seed catalog: %v", err)
	}
}

func img(path string, mtime float64) database.Image {
	return database.Image{Path: path, Mtime: mtime, Width: 200, Height: 100}
}

func assertOrder(t *testing.T, got []string, want ...string) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got %v, want %v", got, want)
		}
	}
}

// reverseShuffle is a deterministic permutation: it reverses the input.
func reverseShuffle(n int, swap func(i, j int)) {
	for i, j := 0, n-1; i < j; i, j = i+1, j-1 {
		swap(i, j)
	}
}

func TestBuild_NameScenario(t *testing.T) {
	env := newTestEnv(t)
	env.seed(t, img("photos/2024/b.jpg", 1), img("photos/2024/a.jpg", 2), img("photos/2023/c.jpg", 3))

	got, err := env.builder.Build(context.Background(), Request{
		Paths:       []string{"photos/2024"},
		Sort:        SortName,
		Orientation: "Both",
		Direction:   DirectionForward,
	}, "10.0.0.1")
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	assertOrder(t, got, "photos/2024/a.jpg", "photos/2024/b.jpg")
}

func TestBuild_NaturalOrder(t *testing.T) {
	env := newTestEnv(t)
	env.seed(t, img("img10.jpg", 0), img("IMG9.jpg", 0), img("img1.jpg", 0))

	got, err := env.builder.Build(context.Background(), Request{Paths: []string{"."}, Sort: SortName}, "c")
	if err != nil {
		t.Fatal(err)
	}
	assertOrder(t, got, "img1.jpg", "IMG9.jpg", "img10.jpg")
}

func TestBuild_UnknownSortFallsBackToName(t *testing.T) {
	env := newTestEnv(t)
	env.seed(t, img("b.jpg", 2), img("a.jpg", 1))

	got, err := env.builder.Build(context.Background(), Request{Paths: []string{""}, Sort: "bogus"}, "c")
	if err != nil {
		t.Fatal(err)
	}
	assertOrder(t, got, "a.jpg", "b.jpg")
}

func TestBuild_DateNewestFirst(t *testing.T) {
	env := newTestEnv(t)
	env.seed(t, img("old.jpg", 100), img("new.jpg", 300), img("mid.jpg", 200))

	got, err := env.builder.Build(context.Background(), Request{Paths: []string{"."}, Sort: SortDate}, "c")
	if err != nil {
		t.Fatal(err)
	}
	assertOrder(t, got, "new.jpg", "mid.jpg", "old.jpg")
}

func TestBuild_ShuffleIsPermutation(t *testing.T) {
	env := newTestEnv(t)
	env.seed(t, img("a.jpg", 0), img("b.jpg", 0), img("c.jpg", 0), img("d.jpg", 0))

	got, err := env.builder.Build(context.Background(), Request{Paths: []string{"."}}, "c")
	if err != nil {
		t.Fatal(err)
	}
	sorted := append([]string(nil), got...)
	sort.Strings(sorted)
	assertOrder(t, sorted, "a.jpg", "b.jpg", "c.jpg", "d.jpg")
}

func TestBuild_ShuffleUsesInjectedSource(t *testing.T) {
	env := newTestEnv(t)
	env.builder.SetShuffle(func(int, func(i, j int)) {})
	env.seed(t, img("a.jpg", 0), img("b.jpg", 0))

	got, err := env.builder.Build(context.Background(), Request{Paths: []string{"."}, Sort: SortShuffle}, "c")
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 {
		t.Fatalf("got %v", got)
	}
}

func TestBuild_SubfolderRandom(t *testing.T) {
	env := newTestEnv(t)
	env.builder.SetShuffle(reverseShuffle)
	env.seed(t, img("a/2.jpg", 0), img("a/1.jpg", 0), img("b/x10.jpg", 0), img("b/x9.jpg", 0))

	got, err := env.builder.Build(context.Background(), Request{Paths: []string{"."}, Sort: SortSubfolderRandom}, "c")
	if err != nil {
		t.Fatal(err)
	}
	// folders are grouped in first-seen order, then reversed by the shuffle
	if got[0] == "a/1.jpg" {
		assertOrder(t, got, "a/1.jpg", "a/2.jpg", "b/x9.jpg", "b/x10.jpg")
	} else {
		assertOrder(t, got, "b/x9.jpg", "b/x10.jpg", "a/1.jpg", "a/2.jpg")
	}
}

func TestBuild_SubfolderDate(t *testing.T) {
	env := newTestEnv(t)
	for name, age := range map[string]time.Duration{"newer": time.Hour, "older": 48 * time.Hour} {
		dir := filepath.Join(env.root, name)
		if err := os.MkdirAll(dir, 0o755); err != nil {
			t.Fatal(err)
		}
		when := time.Now().Add(-age)
		if err := os.Chtimes(dir, when, when); err != nil {
			t.Fatal(err)
		}
	}
	env.seed(t,
		img("newer/b.jpg", 0), img("newer/a.jpg", 0),
		img("older/z.jpg", 0),
		img("missing/m.jpg", 0),
	)

	got, err := env.builder.Build(context.Background(), Request{Paths: []string{"."}, Sort: SortSubfolderDate}, "c")
	if err != nil {
		t.Fatal(err)
	}
	assertOrder(t, got, "missing/m.jpg", "older/z.jpg", "newer/a.jpg", "newer/b.jpg")
}

func TestBuild_SubfolderPrefix(t *testing.T) {
	env := newTestEnv(t)
	env.seed(t,
		img("f1/zeta (2).jpg", 0), img("f1/zeta (1).jpg", 0),
		img("f2/alpha.jpg", 0),
		img("f3/zeta.jpg", 0),
	)

	got, err := env.builder.Build(context.Background(), Request{Paths: []string{"."}, Sort: SortSubfolderPrefix}, "c")
	if err != nil {
		t.Fatal(err)
	}
	assertOrder(t, got, "f2/alpha.jpg", "f1/zeta (1).jpg", "f1/zeta (2).jpg", "f3/zeta.jpg")
}

func TestBuild_ReverseAndRotate(t *testing.T) {
	env := newTestEnv(t)
	env.seed(t, img("a.jpg", 0), img("b.jpg", 0), img("c.jpg", 0), img("d.jpg", 0))
	ctx := context.Background()

	got, err := env.builder.Build(ctx, Request{Paths: []string{"."}, Sort: SortName, CurrentPath: "c.jpg"}, "c")
	if err != nil {
		t.Fatal(err)
	}
	assertOrder(t, got, "c.jpg", "d.jpg", "a.jpg", "b.jpg")

	got, err = env.builder.Build(ctx, Request{Paths: []string{"."}, Sort: SortName, Direction: DirectionReverse, CurrentPath: "/b.jpg"}, "c")
	if err != nil {
		t.Fatal(err)
	}
	assertOrder(t, got, "b.jpg", "a.jpg", "d.jpg", "c.jpg")

	got, err = env.builder.Build(ctx, Request{Paths: []string{"."}, Sort: SortName, CurrentPath: "nope.jpg"}, "c")
	if err != nil {
		t.Fatal(err)
	}
	assertOrder(t, got, "a.jpg", "b.jpg", "c.jpg", "d.jpg")
}

func TestBuild_Orientation(t *testing.T) {
	env := newTestEnv(t)
	env.seed(t,
		database.Image{Path: "wide.jpg", Width: 100, Height: 50},
		database.Image{Path: "tall.jpg", Width: 50, Height: 100},
		database.Image{Path: "square.jpg", Width: 80, Height: 80},
	)
	ctx := context.Background()

	got, err := env.builder.Build(ctx, Request{Paths: []string{"."}, Sort: SortName, Orientation: "Landscape"}, "c")
	if err != nil {
		t.Fatal(err)
	}
	assertOrder(t, got, "square.jpg", "wide.jpg")

	got, err = env.builder.Build(ctx, Request{Paths: []string{"."}, Sort: SortName, Orientation: "Portrait"}, "c")
	if err != nil {
		t.Fatal(err)
	}
	assertOrder(t, got, "tall.jpg")
}

func TestBuild_DisallowedScopeFallsBackToRoot(t *testing.T) {
	env := newTestEnv(t)
	env.seed(t, img("a.jpg", 0), img("sub/b.jpg", 0), img("../outside/x.jpg", 0))
	ctx := context.Background()

	got, err := env.builder.Build(ctx, Request{Paths: []string{"../outside"}, Sort: SortName}, "c")
	if err != nil {
		t.Fatalf("Build should not fail on a disallowed scope: %v", err)
	}
	assertOrder(t, got, "a.jpg", "sub/b.jpg")
	assertOrder(t, env.syncer.scopes[0], ".")

	env.policy.Set(true)
	got, err = env.builder.Build(ctx, Request{Paths: []string{"../outside"}, Sort: SortName}, "c")
	if err != nil {
		t.Fatal(err)
	}
	assertOrder(t, got, "../outside/x.jpg")
	assertOrder(t, env.syncer.scopes[1], "../outside")
}

func TestBuild_DeduplicatesScopesAndRows(t *testing.T) {
	env := newTestEnv(t)
	env.seed(t, img("a/1.jpg", 0), img("a/b/2.jpg", 0), img("ab/3.jpg", 0))

	got, err := env.builder.Build(context.Background(), Request{
		Paths: []string{"a", "/a/", "a/b", `a\b`},
		Sort:  SortName,
	}, "c")
	if err != nil {
		t.Fatal(err)
	}
	assertOrder(t, got, "a/1.jpg", "a/b/2.jpg")
	assertOrder(t, env.syncer.scopes[0], "a", "a/b")
}

func TestBuild_EmptyResultIsSaved(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	got, err := env.builder.Build(ctx, Request{Paths: []string{"nothing"}}, "client")
	if err != nil {
		t.Fatal(err)
	}
	if got == nil || len(got) != 0 {
		t.Fatalf("expected empty non-nil playlist, got %#v", got)
	}

	st, err := env.sessions.Status(ctx, "client")
	if err != nil {
		t.Fatal(err)
	}
	if !st.HasSession || st.PlaylistSize != 0 {
		t.Errorf("status = %+v", st)
	}
}

func TestBuild_SavesSession(t *testing.T) {
	env := newTestEnv(t)
	env.seed(t, img("a.jpg", 0), img("b.jpg", 0))
	ctx := context.Background()

	got, err := env.builder.Build(ctx, Request{Paths: []string{"."}, Sort: SortName}, "10.1.1.1")
	if err != nil {
		t.Fatal(err)
	}

	rec, src, err := env.sessions.Get(ctx, "10.1.1.1")
	if err != nil {
		t.Fatal(err)
	}
	if src != session.SourceMemory {
		t.Errorf("source = %q, want memory", src)
	}
	assertOrder(t, rec.Playlist, got...)
}

func TestBuild_SyncErrorsAreNotFatal(t *testing.T) {
	env := newTestEnv(t)
	env.syncer.err = errors.New("walk failed")
	env.seed(t, img("a.jpg", 0))

	got, err := env.builder.Build(context.Background(), Request{Paths: []string{"."}, Sort: SortName}, "c")
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	assertOrder(t, got, "a.jpg")
}

func TestBuild_CancelledContext(t *testing.T) {
	env := newTestEnv(t)
	env.syncer.err = context.Canceled
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := env.builder.Build(ctx, Request{Paths: []string{"."}}, "c"); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestRotate(t *testing.T) {
	tests := []struct {
		name    string
		in      []string
		current string
		want    []string
	}{
		{"middle", []string{"a", "b", "c", "d"}, "c", []string{"c", "d", "a", "b"}},
		{"first", []string{"a", "b"}, "a", []string{"a", "b"}},
		{"last", []string{"a", "b", "c"}, "c", []string{"c", "a", "b"}},
		{"absent", []string{"a", "b"}, "z", []string{"a", "b"}},
		{"empty current", []string{"a"}, "", []string{"a"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assertOrder(t, rotate(tt.in, tt.current), tt.want...)
		})
	}
}

func TestFilePrefix(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{"a/photo.jpg", "photo"},
		{"a/photo (3).jpg", "photo"},
		{"a/photo (x).jpg", "photo (x)"},
		{"a/photo(3).jpg", "photo(3)"},
		{"root.png", "root"},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			if got := filePrefix(tt.path); got != tt.want {
				t.Errorf("filePrefix(%q) = %q, want %q", tt.path, got, tt.want)
			}
		})
	}
}

func TestKnownSort(t *testing.T) {
	for _, s := range []string{SortShuffle, SortDate, SortName, SortSubfolderRandom, SortSubfolderDate, SortSubfolderPrefix} {
		if !KnownSort(s) {
			t.Errorf("KnownSort(%q) = false", s)
		}
	}
	if KnownSort("random") {
		t.Error("KnownSort(random) = true")
	}
}
