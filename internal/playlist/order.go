package playlist

import (
	"path"
	"regexp"
	"sort"
	"strings"

	"image-gallery/internal/database"
	"image-gallery/internal/filesystem"
	"image-gallery/internal/media"
	"image-gallery/internal/natsort"
	"image-gallery/internal/security"
)

// Sort strategies.
const (
	SortShuffle         = "shuffle"
	SortDate            = "date"
	SortName            = "name"
	SortSubfolderRandom = "subfolder_random"
	SortSubfolderDate   = "subfolder_date"
	SortSubfolderPrefix = "subfolder_prefix"
)

// Directions.
const (
	DirectionForward = "forward"
	DirectionReverse = "reverse"
)

// KnownSort reports whether s names a sort strategy.
func KnownSort(s string) bool {
	switch s {
	case SortShuffle, SortDate, SortName, SortSubfolderRandom, SortSubfolderDate, SortSubfolderPrefix:
		return true
	}
	return false
}

var duplicateSuffix = regexp.MustCompile(` \(\d+\)$`)

type folder struct {
	name   string
	images []database.Image
	key    []string
	mtime  float64
}

// order returns the paths of images arranged by strategy. images is
// reordered in place.
func (b *Builder) order(images []database.Image, strategy string) []string {
	switch strategy {
	case SortShuffle:
		b.shuffle(len(images), func(i, j int) { images[i], images[j] = images[j], images[i] })
	case SortDate:
		sort.SliceStable(images, func(i, j int) bool {
			if images[i].Mtime != images[j].Mtime {
				return images[i].Mtime > images[j].Mtime
			}
			return natsort.Less(images[i].Path, images[j].Path)
		})
	case SortSubfolderRandom:
		folders := groupByFolder(images)
		b.shuffle(len(folders), func(i, j int) { folders[i], folders[j] = folders[j], folders[i] })
		return flatten(folders)
	case SortSubfolderDate:
		folders := groupByFolder(images)
		for i := range folders {
			folders[i].mtime = b.folderMtime(folders[i].name)
		}
		sort.SliceStable(folders, func(i, j int) bool {
			if folders[i].mtime != folders[j].mtime {
				return folders[i].mtime < folders[j].mtime
			}
			return natsort.Less(folders[i].name, folders[j].name)
		})
		return flatten(folders)
	case SortSubfolderPrefix:
		folders := groupByFolder(images)
		for i := range folders {
			folders[i].key = []string{filePrefix(folders[i].images[0].Path), folders[i].name}
		}
		sort.SliceStable(folders, func(i, j int) bool {
			return natsort.CompareTuple(folders[i].key, folders[j].key) < 0
		})
		return flatten(folders)
	default:
		sortByName(images)
	}
	return imagePaths(images)
}

func sortByName(images []database.Image) {
	sort.SliceStable(images, func(i, j int) bool {
		return natsort.Less(images[i].Path, images[j].Path)
	})
}

// groupByFolder buckets images by parent folder in first-seen order, each
// bucket sorted by name. Images directly under the root share folder "".
func groupByFolder(images []database.Image) []folder {
	index := make(map[string]int)
	var folders []folder
	for _, img := range images {
		dir := path.Dir(img.Path)
		if dir == "." {
			dir = ""
		}
		i, ok := index[dir]
		if !ok {
			i = len(folders)
			index[dir] = i
			folders = append(folders, folder{name: dir})
		}
		folders[i].images = append(folders[i].images, img)
	}
	for i := range folders {
		sortByName(folders[i].images)
	}
	return folders
}

func flatten(folders []folder) []string {
	var out []string
	for _, f := range folders {
		out = append(out, imagePaths(f.images)...)
	}
	return out
}

func imagePaths(images []database.Image) []string {
	out := make([]string, len(images))
	for i, img := range images {
		out[i] = img.Path
	}
	return out
}

// folderMtime returns the filesystem mtime of a catalog folder, or 0 when it
// cannot be read.
func (b *Builder) folderMtime(dir string) float64 {
	full := security.Resolve(b.boundary.Root(), dir)
	info, err := filesystem.StatWithRetry(full, filesystem.DefaultRetryConfig())
	if err != nil {
		return 0
	}
	return media.Mtime(info.ModTime())
}

// filePrefix is the name stem of p without a trailing " (N)" copy index.
func filePrefix(p string) string {
	base := path.Base(p)
	stem := strings.TrimSuffix(base, path.Ext(base))
	return duplicateSuffix.ReplaceAllString(stem, "")
}

// rotate moves current to the front, keeping cyclic order. The slice is
// returned unchanged when current is empty or absent.
func rotate(paths []string, current string) []string {
	if current == "" {
		return paths
	}
	for i, p := range paths {
		if p == current {
			if i == 0 {
				return paths
			}
			out := make([]string, 0, len(paths))
			out = append(out, paths[i:]...)
			return append(out, paths[:i]...)
		}
	}
	return paths
}

func reverse(paths []string) {
	for i, j := 0, len(paths)-1; i < j; i, j = i+1, j-1 {
		paths[i], paths[j] = paths[j], paths[i]
	}
}
