// Package geometry resolves the content rectangle: the sub-region of a
// display container where source pixels are actually drawn under the
// active fit policy. Overlay placement and cover-fit cropping both depend
// on it, so the resolver is kept pure and idempotent.
package geometry

// FitPolicy selects how source content is scaled into its container.
type FitPolicy int

const (
	// Contain scales the source to fit entirely within the container,
	// preserving aspect ratio and letterboxing the axis with slack. Used
	// for static images, where cropping is undesirable.
	Contain FitPolicy = iota
	// Cover scales the source to fill the container, cropping overflow.
	// Used for live camera and screen streams.
	Cover
)

func (f FitPolicy) String() string {
	switch f {
	case Contain:
		return "contain"
	case Cover:
		return "cover"
	default:
		return "unknown"
	}
}

// Size is a width/height pair in pixels.
type Size struct {
	W float64
	H float64
}

// Valid reports whether both dimensions are known and positive.
func (s Size) Valid() bool {
	return s.W > 0 && s.H > 0
}

// Aspect returns the width/height ratio. Callers must check Valid first.
func (s Size) Aspect() float64 {
	return s.W / s.H
}

// ContentRect is the resolved content rectangle in container pixel space.
// Derived and transient: it is recomputed whenever the container resizes,
// the source dimensions become known, or the source identity changes.
type ContentRect struct {
	X float64
	Y float64
	W float64
	H float64
}

// Resolve computes the content rectangle for a source of the given natural
// size displayed inside container under fit. ok is false while resolution
// is pending (zero or unknown dimensions); callers must tolerate absence.
func Resolve(container, natural Size, fit FitPolicy) (ContentRect, bool) {
	if !container.Valid() {
		return ContentRect{}, false
	}
	if fit == Cover {
		// Under cover the visible area is the full container by
		// construction; excess source content is cropped outside it.
		return ContentRect{X: 0, Y: 0, W: container.W, H: container.H}, true
	}
	if !natural.Valid() {
		return ContentRect{}, false
	}
	if container.Aspect() > natural.Aspect() {
		// Container is wider than the source: pillarbox.
		h := container.H
		w := h * natural.Aspect()
		return ContentRect{X: (container.W - w) / 2, Y: 0, W: w, H: h}, true
	}
	// Container is taller (or equal): letterbox.
	w := container.W
	h := w / natural.Aspect()
	return ContentRect{X: 0, Y: (container.H - h) / 2, W: w, H: h}, true
}
