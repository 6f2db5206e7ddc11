// Package overlay maps normalized vision-model boxes into container pixel
// coordinates and sizes translated text to fit inside them.
package overlay

import (
	"math"

	"github.com/menta2k/camera-translator/pkg/geometry"
	"github.com/menta2k/camera-translator/pkg/types"
)

// Font size bounds in pixels. The clamp bounds both illegibly small and
// visually disruptive large text.
const (
	MinFontSize = 10.0
	MaxFontSize = 42.0
)

const (
	// Text must never dominate the box vertically.
	heightCapRatio = 0.55
	// Scales the area-per-character estimate toward a size the string can
	// wrap into without overflow.
	densityFactor = 1.2
)

// Placement is a mapped overlay box in container pixel space.
type Placement struct {
	Top    float64 `json:"top"`
	Left   float64 `json:"left"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// MapBox converts a normalized 0-1000 box into container pixels using the
// current content rectangle. The box is meaningful only relative to the
// exact image submitted for inference, so rect must describe where that
// image is drawn.
func MapBox(box types.NormalizedBox, rect geometry.ContentRect) Placement {
	if !box.Valid() {
		return Placement{}
	}
	b := box.Clamped()
	return Placement{
		Top:    rect.Y + float64(b[0])/types.Scale*rect.H,
		Left:   rect.X + float64(b[1])/types.Scale*rect.W,
		Height: float64(b[2]-b[0]) / types.Scale * rect.H,
		Width:  float64(b[3]-b[1]) / types.Scale * rect.W,
	}
}

// FallbackRect treats the full container as the content rectangle, for
// degraded percentage-based placement before geometry has resolved.
func FallbackRect(container geometry.Size) geometry.ContentRect {
	return geometry.ContentRect{X: 0, Y: 0, W: container.W, H: container.H}
}

// FontSize computes a pixel size that keeps text legible and contained
// inside its mapped box. Larger boxes and shorter strings yield larger
// fonts; the result is always within [MinFontSize, MaxFontSize].
func FontSize(box types.NormalizedBox, text string, rectH, rectW, scale float64) float64 {
	if !box.Valid() || rectH <= 0 {
		return MinFontSize
	}
	b := box.Clamped()
	boxH := float64(b[2]-b[0]) / types.Scale * rectH
	w := rectW
	if w <= 0 {
		w = rectH
	}
	boxW := float64(b[3]-b[1]) / types.Scale * w

	length := len([]rune(text))
	if length < 1 {
		length = 1
	}
	heightCap := boxH * heightCapRatio
	density := math.Sqrt(boxH*boxW/float64(length)) * densityFactor

	if scale <= 0 {
		scale = 1
	}
	size := math.Min(heightCap, density) * scale
	if size < MinFontSize {
		return MinFontSize
	}
	if size > MaxFontSize {
		return MaxFontSize
	}
	return size
}

// ItemOverlay pairs a translated item with its on-screen placement.
type ItemOverlay struct {
	Item     types.TranslatedItem `json:"item"`
	Box      Placement            `json:"box"`
	FontSize float64              `json:"fontSize"`
}

// Layout maps every well-formed item into the content rectangle. Items
// whose box is missing or short are skipped; one malformed box must not
// abort rendering of the others.
func Layout(items []types.TranslatedItem, rect geometry.ContentRect, scale float64) []ItemOverlay {
	overlays := make([]ItemOverlay, 0, len(items))
	for _, item := range items {
		if !item.Box.Valid() {
			continue
		}
		overlays = append(overlays, ItemOverlay{
			Item:     item,
			Box:      MapBox(item.Box, rect),
			FontSize: FontSize(item.Box, item.Translated, rect.H, rect.W, scale),
		})
	}
	return overlays
}
