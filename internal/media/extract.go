package media

import (
	"bufio"
	"fmt"
	"image"
	"path/filepath"
	"time"

	// Image format decoders
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"  // BMP format support
	_ "golang.org/x/image/webp" // WebP format support

	"image-gallery/internal/database"
	"image-gallery/internal/filesystem"
	"image-gallery/internal/logging"
	"image-gallery/internal/mediatypes"
)

// ImageDimensions holds image width and height
type ImageDimensions struct {
	Width  uint32
	Height uint32
}

// GetImageDimensions returns image dimensions without fully decoding the image
func GetImageDimensions(path string) (ImageDimensions, error) {
	file, err := filesystem.OpenWithRetry(path, filesystem.DefaultRetryConfig())
	if err != nil {
		return ImageDimensions{}, err
	}
	defer func() {
		if err := file.Close(); err != nil {
			logging.Warn("failed to close image file %s: %v", path, err)
		}
	}()

	config, _, err := image.DecodeConfig(bufio.NewReader(file))
	if err != nil {
		return ImageDimensions{}, err
	}
	if config.Width < 0 || config.Height < 0 {
		return ImageDimensions{}, fmt.Errorf("invalid dimensions %dx%d", config.Width, config.Height)
	}

	return ImageDimensions{
		Width:  uint32(config.Width),
		Height: uint32(config.Height),
	}, nil
}

// Mtime converts a modification time to the catalog's float seconds.
func Mtime(t time.Time) float64 {
	return float64(t.UnixNano()) / 1e9
}

// Extract builds the catalog entry for fullPath. The entry's path is
// relative to root; files outside root get a "../" path. ok is false when
// the file is missing, is not a regular file, or its header cannot be
// parsed. Failures are logged at debug level only.
func Extract(fullPath, root string) (database.Image, bool) {
	info, err := filesystem.StatWithRetry(fullPath, filesystem.DefaultRetryConfig())
	if err != nil {
		logging.Debug("Skipping %s: %v", fullPath, err)
		return database.Image{}, false
	}
	if !info.Mode().IsRegular() {
		return database.Image{}, false
	}

	dims, err := GetImageDimensions(fullPath)
	if err != nil {
		logging.Debug("Cannot read image header %s: %v", fullPath, err)
		return database.Image{}, false
	}

	rel, err := filepath.Rel(root, fullPath)
	if err != nil {
		logging.Debug("Cannot relativize %s to %s: %v", fullPath, root, err)
		return database.Image{}, false
	}

	return database.Image{
		Path:        filepath.ToSlash(rel),
		Mtime:       Mtime(info.ModTime()),
		Width:       dims.Width,
		Height:      dims.Height,
		IsLandscape: mediatypes.IsLandscape(dims.Width, dims.Height),
	}, true
}
