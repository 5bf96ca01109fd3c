// Package cache stores pipeline results keyed by content hash.
//
// Parsing and laying out a commit log is deterministic, so the positioned
// snapshot for a given log text and layout configuration can be reused.
// The serve command repeats the same log every time the watcher fires
// without a real change, and the CLI re-renders the same log in several
// formats; both go through a [Cache].
//
// Keys are produced by a [Keyer] so that callers never build them by hand:
//
//	k := cache.NewDefaultKeyer()
//	key := k.LayoutKey(cache.Hash([]byte(text)), cache.LayoutKeyOpts{Width: 800, Height: 600})
//	if data, hit, _ := c.Get(ctx, key); hit {
//	    // decode data
//	}
package cache

import (
	"context"
	"time"
)

// TTLs for cached values. Layout results never change for the same key, so
// the TTLs only bound memory use.
const (
	TTLLayout   = 24 * time.Hour
	TTLArtifact = 24 * time.Hour
)

// Key types reported to observability hooks.
const (
	KeyTypeLayout   = "layout"
	KeyTypeArtifact = "artifact"
)

// Cache is a byte store with per-entry expiry. A zero ttl means the entry
// does not expire.
type Cache interface {
	Get(ctx context.Context, key string) (data []byte, hit bool, err error)
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Close() error
}

// Keyer builds cache keys.
type Keyer interface {
	// LayoutKey identifies a positioned snapshot. logHash is the [Hash] of
	// the raw log text.
	LayoutKey(logHash string, opts LayoutKeyOpts) string

	// ArtifactKey identifies a rendered output. snapshotHash is the [Hash]
	// of the snapshot's JSON encoding.
	ArtifactKey(snapshotHash string, opts ArtifactKeyOpts) string
}

// LayoutKeyOpts holds every option that changes a layout result.
type LayoutKeyOpts struct {
	Width             float64 `json:"width"`
	Height            float64 `json:"height"`
	BottomPadding     float64 `json:"bottom_padding"`
	LevelSpacing      float64 `json:"level_spacing"`
	HorizontalSpacing float64 `json:"horizontal_spacing"`
	Lenient           bool    `json:"lenient,omitempty"`
}

// ArtifactKeyOpts holds every option that changes a rendered artifact.
type ArtifactKeyOpts struct {
	Format    string `json:"format"`
	Highlight string `json:"highlight,omitempty"`
	Detailed  bool   `json:"detailed,omitempty"`
	Fit       bool   `json:"fit,omitempty"`
}

// DefaultKeyer builds "kind:sha256" keys.
type DefaultKeyer struct{}

// NewDefaultKeyer returns a DefaultKeyer.
func NewDefaultKeyer() Keyer { return DefaultKeyer{} }

// LayoutKey implements Keyer.
func (DefaultKeyer) LayoutKey(logHash string, opts LayoutKeyOpts) string {
	return hashKey(KeyTypeLayout, logHash, opts)
}

// ArtifactKey implements Keyer.
func (DefaultKeyer) ArtifactKey(snapshotHash string, opts ArtifactKeyOpts) string {
	return hashKey(KeyTypeArtifact, snapshotHash, opts)
}
