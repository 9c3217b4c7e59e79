package browse

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"

	"image-gallery/internal/filesystem"
	"image-gallery/internal/logging"
	"image-gallery/internal/mediatypes"
	"image-gallery/internal/natsort"
	"image-gallery/internal/security"
)

// Item is one entry of a listing.
type Item struct {
	Name string              `json:"name"`
	Path string              `json:"path"`
	Type mediatypes.FileType `json:"type"`
}

// Listing is the content of one folder. CurrentPath is "" for the root;
// Parent is nil there.
type Listing struct {
	CurrentPath string  `json:"currentPath"`
	Parent      *string `json:"parent"`
	Items       []Item  `json:"items"`
}

// Service lists folders under a boundary.
type Service struct {
	boundary *security.Boundary
	policy   *security.Policy
	retry    filesystem.RetryConfig
}

// NewService creates a browse service.
func NewService(boundary *security.Boundary, policy *security.Policy) *Service {
	return &Service{
		boundary: boundary,
		policy:   policy,
		retry:    filesystem.DefaultRetryConfig(),
	}
}

// List returns the folders and supported images directly inside scope,
// folders first, each group in natural order. Hidden entries are skipped.
// A scope the policy forbids lists the root instead.
func (s *Service) List(ctx context.Context, scope string) (Listing, error) {
	if err := ctx.Err(); err != nil {
		return Listing{}, err
	}

	_, full, ok := s.boundary.ResolveScope(scope, s.policy.AllowParent())
	if !ok {
		logging.Debug("Browse of %q not allowed, listing root", scope)
		full = s.boundary.Root()
	}

	current, err := s.boundary.RelPath(full)
	if err != nil {
		return Listing{}, fmt.Errorf("failed to resolve %q: %w", scope, err)
	}
	if current == "." {
		current = ""
	}

	info, err := filesystem.StatWithRetry(full, s.retry)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Listing{}, fmt.Errorf("folder %q: %w", current, security.ErrNotFound)
		}
		return Listing{}, fmt.Errorf("failed to stat %q: %w", current, err)
	}
	if !info.IsDir() {
		return Listing{}, fmt.Errorf("%q is not a folder: %w", current, security.ErrNotFound)
	}

	entries, err := filesystem.ReadDirWithRetry(full, s.retry)
	if err != nil {
		return Listing{}, fmt.Errorf("failed to read %q: %w", current, err)
	}

	items := make([]Item, 0, len(entries))
	for _, e := range entries {
		name := e.Name()
		if strings.HasPrefix(name, ".") {
			continue
		}

		itemType := mediatypes.FileTypeFile
		if isDir(e, full, s.retry) {
			itemType = mediatypes.FileTypeFolder
		} else if !mediatypes.IsImage(name) {
			continue
		}

		items = append(items, Item{
			Name: name,
			Path: joinRel(current, name),
			Type: itemType,
		})
	}

	sort.SliceStable(items, func(i, j int) bool {
		if items[i].Type != items[j].Type {
			return items[i].Type == mediatypes.FileTypeFolder
		}
		return natsort.Less(items[i].Name, items[j].Name)
	})

	listing := Listing{CurrentPath: current, Items: items}
	if current != "" {
		parent := path.Dir(current)
		if parent == "." {
			parent = ""
		}
		listing.Parent = &parent
	}
	return listing, nil
}

// isDir follows symlinks so linked folders are browsable.
func isDir(e fs.DirEntry, dir string, retry filesystem.RetryConfig) bool {
	if e.IsDir() {
		return true
	}
	if e.Type()&fs.ModeSymlink == 0 {
		return false
	}
	info, err := filesystem.StatWithRetry(security.Resolve(dir, e.Name()), retry)
	return err == nil && info.IsDir()
}

func joinRel(dir, name string) string {
	if dir == "" {
		return name
	}
	return dir + "/" + name
}
