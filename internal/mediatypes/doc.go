// Package mediatypes provides shared type definitions for image handling
// across the gallery.
//
// It has no dependencies beyond the standard library so that the database,
// indexer, playlist and browse packages can all import it without cycles.
//
// Extension checks are case-insensitive:
//
//	mediatypes.IsImage("IMG_0001.JPG")      // true
//	mediatypes.GetMimeType("scan.webp")     // "image/webp"
//
// Orientation values come straight from playlist requests:
//
//	o := mediatypes.ParseOrientation(req.Orientation) // "Both" if unknown
package mediatypes
