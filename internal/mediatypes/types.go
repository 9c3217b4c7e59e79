package mediatypes

import (
	"mime"
	"path/filepath"
	"strings"
)

// FileType is the kind of a browse entry.
type FileType string

const (
	// FileTypeFolder represents a directory.
	FileTypeFolder FileType = "folder"
	// FileTypeFile represents a supported image file.
	FileTypeFile FileType = "file"
)

// Orientation filters catalog queries by image shape.
type Orientation string

const (
	OrientationBoth      Orientation = "Both"
	OrientationLandscape Orientation = "Landscape"
	OrientationPortrait  Orientation = "Portrait"
)

// ParseOrientation maps a request value to an Orientation. Unknown and empty
// values mean OrientationBoth.
func ParseOrientation(s string) Orientation {
	switch Orientation(s) {
	case OrientationLandscape:
		return OrientationLandscape
	case OrientationPortrait:
		return OrientationPortrait
	default:
		return OrientationBoth
	}
}

// IsLandscape classifies dimensions. Square images count as landscape.
func IsLandscape(width, height uint32) bool {
	return width >= height
}

// ImageExtensions is the set of extensions the library indexes and serves.
var ImageExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".gif":  true,
	".webp": true,
	".bmp":  true,
}

// MimeTypes maps file extensions to their MIME types.
var MimeTypes = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".gif":  "image/gif",
	".webp": "image/webp",
	".bmp":  "image/bmp",
}

// Ext returns the lower-cased extension of name, including the dot.
func Ext(name string) string {
	return strings.ToLower(filepath.Ext(name))
}

// IsImage reports whether name has a supported image extension.
// The comparison is case-insensitive.
func IsImage(name string) bool {
	return ImageExtensions[Ext(name)]
}

// GetMimeType returns the MIME type for name based on its extension.
// Images use the gallery's own table; other files fall back to the system
// registry, then to "application/octet-stream".
func GetMimeType(name string) string {
	ext := Ext(name)
	if t, ok := MimeTypes[ext]; ok {
		return t
	}
	if t := mime.TypeByExtension(ext); t != "" {
		return t
	}
	return "application/octet-stream"
}
