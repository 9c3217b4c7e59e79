// Package browse lists one directory level of the library for navigation.
// Listings are read from the filesystem directly, not from the catalog, so
// newly added folders show up before they are indexed.
package browse
