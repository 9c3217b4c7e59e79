package database

import (
	"image-gallery/internal/mediatypes"
)

// Image is one catalog entry. Entries are replaced wholesale by path.
type Image struct {
	// Path is root-relative with forward slashes. Images outside the root
	// are stored as "../...".
	Path        string  `db:"path" json:"path"`
	Mtime       float64 `db:"mtime" json:"mtime"`
	Width       uint32  `db:"width" json:"width"`
	Height      uint32  `db:"height" json:"height"`
	IsLandscape bool    `db:"is_landscape" json:"isLandscape"`
}

// ImageQuery selects catalog rows for a playlist scope.
type ImageQuery struct {
	// Prefix is a normalized scope. "" and "." match every row; anything
	// else matches the path itself and everything nested under it.
	Prefix string
	// ExcludeParent drops rows stored outside the root.
	ExcludeParent bool
	Orientation   mediatypes.Orientation
}

// SessionRow is the durable form of a client's playlist.
type SessionRow struct {
	ClientID  string  `db:"client_ip"`
	Playlist  string  `db:"playlist"`
	CreatedAt float64 `db:"created_at"`
}

// CatalogStats summarizes the catalog.
type CatalogStats struct {
	TotalImages     int `db:"total" json:"totalImages"`
	LandscapeImages int `db:"landscape" json:"landscapeImages"`
	PortraitImages  int `db:"portrait" json:"portraitImages"`
	OutsideRoot     int `db:"outside_root" json:"outsideRoot"`
	Sessions        int `db:"-" json:"sessions"`
}
