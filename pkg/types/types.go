package types

// NormalizedBox is a bounding box in the fixed 0-1000 coordinate system
// used by the vision model: [ymin, xmin, ymax, xmax], independent of the
// pixel resolution of the image that produced it. The model does not
// guarantee ordering or range, so consumers go through Clamped first.
type NormalizedBox []int

// Scale is the upper bound of the normalized coordinate system.
const Scale = 1000

// Valid reports whether the box carries the four expected coordinates.
// Short or missing boxes are skipped at render time.
func (b NormalizedBox) Valid() bool {
	return len(b) >= 4
}

// Clamped returns a copy with every coordinate clamped to [0, Scale] and
// inverted min/max pairs swapped, so layout never sees negative extents.
func (b NormalizedBox) Clamped() NormalizedBox {
	if !b.Valid() {
		return b
	}
	ymin, xmin, ymax, xmax := clampUnit(b[0]), clampUnit(b[1]), clampUnit(b[2]), clampUnit(b[3])
	if ymin > ymax {
		ymin, ymax = ymax, ymin
	}
	if xmin > xmax {
		xmin, xmax = xmax, xmin
	}
	return NormalizedBox{ymin, xmin, ymax, xmax}
}

func clampUnit(v int) int {
	if v < 0 {
		return 0
	}
	if v > Scale {
		return Scale
	}
	return v
}

// TranslatedItem is one detected text region with its translation.
type TranslatedItem struct {
	Original   string        `json:"original"`
	Translated string        `json:"translated"`
	Box        NormalizedBox `json:"box_2d"`
}

// TranslationResult is the outcome of one completed inference call. It
// replaces the previous result wholesale; results are never merged.
type TranslationResult struct {
	Items   []TranslatedItem `json:"items"`
	Summary string           `json:"summary"`
}

// HasItems reports whether any text region was detected. Summary-only
// results are valid but not eligible for auto-save.
func (r *TranslationResult) HasItems() bool {
	return r != nil && len(r.Items) > 0
}

// ScanState is the single global state of the capture pipeline.
type ScanState string

const (
	// ScanIdle indicates no capture is in progress.
	ScanIdle ScanState = "idle"
	// ScanScanning indicates a capture/inference cycle is in flight.
	ScanScanning ScanState = "scanning"
	// ScanError indicates the last cycle failed; the scheduler recovers
	// to idle after a delay.
	ScanError ScanState = "error"
)
