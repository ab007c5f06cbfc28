// Package storage serves the static media a campaign references: character
// sprites, theme backgrounds, kiosk imagery. Keys come from campaign rows
// (asset_idle paths, theme config URLs) and are read-only at runtime.
package storage

import "io"

type AssetStore interface {
	// Open returns the asset body; the second value is the content type,
	// empty when it cannot be derived from the key.
	Open(key string) (io.ReadCloser, string, error)
}
