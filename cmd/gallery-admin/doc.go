// Command gallery-admin provides maintenance commands for the gallery
// catalog.
//
// Usage:
//
//	gallery-admin [--root DIR] [--database-dir DIR] <command>
//
// Commands:
//
//	scan            Run one full reconcile of the library root.
//	session <id>    Print the stored playlist of a client as JSON.
//	stats           Print image and session counts.
//
// Environment:
//
//	GALLERY_ROOT_DIR - Library root (default: working directory)
//	DATABASE_DIR     - Catalog directory (default: library root)
//
// A .env file in the working directory is loaded first when present.
package main
