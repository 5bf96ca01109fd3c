// Package pipeline runs the parse → build → layout → render pipeline.
//
// The CLI, the HTTP server and the terminal animator all turn commit log
// text into a positioned snapshot the same way. This package is the single
// place that does it, with caching, timing and observability hooks.
//
// # Usage
//
//	runner := pipeline.NewRunner(cache.NewMemoryCache(0), nil, logger)
//	result, err := runner.Execute(ctx, text, pipeline.Options{
//	    Formats: []string{pipeline.FormatSVG},
//	})
//	if err != nil {
//	    return err
//	}
//	svg := result.Artifacts[pipeline.FormatSVG]
//
// Individual stages are available too:
//
//	snap, warnings, err := runner.Layout(ctx, text, opts)
//	plan := runner.PlanTransition(ctx, before, snap)
//	artifacts, err := runner.Render(ctx, snap, opts)
package pipeline

import (
	"io"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-playground/validator/v10"

	"github.com/matzehuels/gitmorph/pkg/cache"
	"github.com/matzehuels/gitmorph/pkg/commitlog"
	"github.com/matzehuels/gitmorph/pkg/errors"
	"github.com/matzehuels/gitmorph/pkg/graph"
	"github.com/matzehuels/gitmorph/pkg/layout"
)

// =============================================================================
// Formats
// =============================================================================

// Output formats.
const (
	FormatSVG  = "svg"  // native SVG, drawn from the layout
	FormatDOT  = "dot"  // Graphviz source with pinned positions
	FormatPNG  = "png"  // Graphviz raster
	FormatJSON = "json" // positioned snapshot
)

// ValidFormats is the set of supported output formats.
var ValidFormats = map[string]bool{
	FormatSVG:  true,
	FormatDOT:  true,
	FormatPNG:  true,
	FormatJSON: true,
}

var validate = validator.New()

// ValidateFormat checks that a format is supported.
func ValidateFormat(format string) error {
	if !ValidFormats[format] {
		return errors.New(errors.ErrCodeInvalidInput, "invalid format: %q (must be one of: svg, dot, png, json)", format)
	}
	return nil
}

// ValidateFormats checks every format in formats.
func ValidateFormats(formats []string) error {
	for _, f := range formats {
		if err := ValidateFormat(f); err != nil {
			return err
		}
	}
	return nil
}

// =============================================================================
// Options
// =============================================================================

// Options configures one pipeline run. It is JSON-serializable so the
// server can accept it in request bodies.
type Options struct {
	// Layout options. Zero values take the layout package defaults.
	Width             float64 `json:"width,omitempty" validate:"gte=0"`
	Height            float64 `json:"height,omitempty" validate:"gte=0"`
	BottomPadding     float64 `json:"bottom_padding,omitempty" validate:"gte=0"`
	LevelSpacing      float64 `json:"level_spacing,omitempty" validate:"gte=0"`
	HorizontalSpacing float64 `json:"horizontal_spacing,omitempty" validate:"gte=0"`

	// Lenient skips malformed lines instead of failing the whole log.
	Lenient bool `json:"lenient,omitempty"`

	// Render options
	Formats   []string `json:"formats,omitempty" validate:"dive,oneof=svg dot png json"`
	Highlight string   `json:"highlight,omitempty" validate:"omitempty,hexadecimal,lowercase"`
	Detailed  bool     `json:"detailed,omitempty"`
	Fit       bool     `json:"fit,omitempty"`

	// Refresh bypasses cache reads. Results are still written.
	Refresh bool `json:"refresh,omitempty"`

	// Runtime options (not serialized)
	Logger *log.Logger `json:"-" validate:"-"`
}

// SetDefaults fills zero fields with their defaults.
func (o *Options) SetDefaults() {
	lo := o.LayoutOptions()
	o.Width, o.Height = lo.Width, lo.Height
	o.BottomPadding, o.LevelSpacing, o.HorizontalSpacing = lo.BottomPadding, lo.LevelSpacing, lo.HorizontalSpacing
	if len(o.Formats) == 0 {
		o.Formats = []string{FormatSVG}
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
}

// Validate applies defaults and checks every field.
func (o *Options) Validate() error {
	o.SetDefaults()
	if err := validate.Struct(o); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidInput, err, "invalid pipeline options")
	}
	return o.LayoutOptions().Validate()
}

// LayoutOptions returns the layout configuration with defaults applied.
func (o *Options) LayoutOptions() layout.Options {
	lo := layout.Options{
		Width:             o.Width,
		Height:            o.Height,
		BottomPadding:     o.BottomPadding,
		LevelSpacing:      o.LevelSpacing,
		HorizontalSpacing: o.HorizontalSpacing,
	}
	lo.SetDefaults()
	return lo
}

// LayoutKeyOpts returns cache key options for layout computation.
func (o *Options) LayoutKeyOpts() cache.LayoutKeyOpts {
	lo := o.LayoutOptions()
	return cache.LayoutKeyOpts{
		Width:             lo.Width,
		Height:            lo.Height,
		BottomPadding:     lo.BottomPadding,
		LevelSpacing:      lo.LevelSpacing,
		HorizontalSpacing: lo.HorizontalSpacing,
		Lenient:           o.Lenient,
	}
}

// ArtifactKeyOpts returns cache key options for one rendered format.
func (o *Options) ArtifactKeyOpts(format string) cache.ArtifactKeyOpts {
	return cache.ArtifactKeyOpts{
		Format:    format,
		Highlight: o.Highlight,
		Detailed:  o.Detailed,
		Fit:       o.Fit,
	}
}

// =============================================================================
// Results
// =============================================================================

// Result contains the outputs of a pipeline run.
type Result struct {
	// Commits is the parsed log in input order.
	Commits []commitlog.Commit

	// Snapshot is the positioned graph.
	Snapshot *graph.Snapshot

	// Warnings collects build and layout warnings.
	Warnings []graph.Warning

	// LogHash is the content hash of the input text.
	LogHash string

	// Artifacts contains rendered outputs keyed by format.
	Artifacts map[string][]byte

	Stats     Stats
	CacheInfo CacheInfo
}

// Stats contains pipeline execution statistics.
type Stats struct {
	CommitCount int
	LinkCount   int
	LayoutTime  time.Duration
	RenderTime  time.Duration
}

// CacheInfo tracks cache hits for each pipeline stage.
type CacheInfo struct {
	LayoutHit bool
	RenderHit bool
}
