package layout

import (
	"github.com/go-playground/validator/v10"

	"github.com/matzehuels/gitmorph/pkg/errors"
)

var validate = validator.New()

// Default layout constants, in layout units.
const (
	DefaultWidth             = 800.0
	DefaultHeight            = 600.0
	DefaultBottomPadding     = 20.0
	DefaultLevelSpacing      = 50.0
	DefaultHorizontalSpacing = 75.0
)

// Options configures the viewport and spacing used by [Apply].
type Options struct {
	Width             float64 `json:"width" validate:"gt=0"`
	Height            float64 `json:"height" validate:"gt=0"`
	BottomPadding     float64 `json:"bottom_padding" validate:"gte=0"`
	LevelSpacing      float64 `json:"level_spacing" validate:"gte=0"`
	HorizontalSpacing float64 `json:"horizontal_spacing" validate:"gte=0"`
}

// DefaultOptions returns options for the default 800x600 viewport.
func DefaultOptions() Options {
	var o Options
	o.SetDefaults()
	return o
}

// SetDefaults fills zero fields with their defaults.
func (o *Options) SetDefaults() {
	if o.Width == 0 {
		o.Width = DefaultWidth
	}
	if o.Height == 0 {
		o.Height = DefaultHeight
	}
	if o.BottomPadding == 0 {
		o.BottomPadding = DefaultBottomPadding
	}
	if o.LevelSpacing == 0 {
		o.LevelSpacing = DefaultLevelSpacing
	}
	if o.HorizontalSpacing == 0 {
		o.HorizontalSpacing = DefaultHorizontalSpacing
	}
}

// Validate checks that the viewport is positive and spacings are not negative.
func (o Options) Validate() error {
	if err := validate.Struct(o); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidInput, err, "invalid layout options")
	}
	return nil
}
