// Package capture extracts still frames from the active source,
// reproducing exactly what the viewer sees under the current fit policy,
// and encodes them for the inference backend.
package capture

import (
	"errors"
	"image"

	"github.com/disintegration/imaging"

	"github.com/menta2k/camera-translator/pkg/geometry"
)

// ErrSourceNotReady indicates the source has no readable frame yet
// (unknown dimensions, zero-sized element). Non-fatal: the caller
// suppresses the capture for that tick.
var ErrSourceNotReady = errors.New("capture: source not ready")

// Config holds encoding parameters for captured frames.
type Config struct {
	// Format of the payload sent to the model: jpg, png or webp.
	Format string
	// Quality for JPEG/WebP encoding (1-100).
	Quality int
	// MaxDim limits the long side of model payloads in pixels, 0 keeps
	// the original size.
	MaxDim int
}

// Capturer produces inference-ready frames from capture sources.
type Capturer struct {
	config Config
}

// New creates a Capturer with default configuration.
func New() *Capturer {
	return &Capturer{
		config: Config{
			Format:  "jpg",
			Quality: 85,
			MaxDim:  1536,
		},
	}
}

// NewWithConfig creates a Capturer with custom configuration.
func NewWithConfig(config Config) *Capturer {
	return &Capturer{config: config}
}

// Frame is a captured still ready for inference. Width and Height are the
// dimensions of the (possibly cropped) frame the model will see.
type Frame struct {
	Image  image.Image
	Width  int
	Height int
}

// Capture extracts the current frame from src as displayed inside an
// element of the given size. Static sources pass through unchanged; live
// sources under cover fit are cropped to the visible region so boxes
// returned by the model align with what the user sees, independent of the
// sensor aspect ratio.
func (c *Capturer) Capture(src Source, element geometry.Size) (*Frame, error) {
	if src == nil {
		return nil, ErrSourceNotReady
	}
	switch s := src.(type) {
	case *StaticSource:
		if s.Image == nil {
			return nil, ErrSourceNotReady
		}
		b := s.Image.Bounds()
		return &Frame{Image: s.Image, Width: b.Dx(), Height: b.Dy()}, nil
	case *CameraSource:
		return c.captureStream(s.Provider, element)
	case *ScreenSource:
		return c.captureStream(s.Provider, element)
	default:
		return nil, ErrSourceNotReady
	}
}

func (c *Capturer) captureStream(provider FrameProvider, element geometry.Size) (*Frame, error) {
	if provider == nil || !element.Valid() {
		return nil, ErrSourceNotReady
	}
	img, err := provider.Frame()
	if err != nil || img == nil {
		return nil, ErrSourceNotReady
	}
	b := img.Bounds()
	vw, vh := b.Dx(), b.Dy()
	if vw == 0 || vh == 0 {
		return nil, ErrSourceNotReady
	}

	sx, sy, sw, sh := CoverCropWindow(vw, vh, element.W, element.H)
	if sw <= 0 || sh <= 0 {
		return nil, ErrSourceNotReady
	}
	cropped := imaging.Crop(img, image.Rect(b.Min.X+sx, b.Min.Y+sy, b.Min.X+sx+sw, b.Min.Y+sy+sh))
	return &Frame{Image: cropped, Width: sw, Height: sh}, nil
}

// CoverCropWindow computes the centered crop window (sx, sy, sw, sh) of a
// vw-by-vh raw frame whose aspect ratio matches a cw-by-ch display element
// under cover fitting. If the element is wider than the frame the full
// width is kept and a vertically-centered band is cropped; otherwise the
// full height is kept and a horizontally-centered band is cropped.
func CoverCropWindow(vw, vh int, cw, ch float64) (sx, sy, sw, sh int) {
	if vw <= 0 || vh <= 0 || cw <= 0 || ch <= 0 {
		return 0, 0, 0, 0
	}
	elementAspect := cw / ch
	frameAspect := float64(vw) / float64(vh)

	if elementAspect > frameAspect {
		sw = vw
		sh = int(float64(vw)/elementAspect + 0.5)
		if sh > vh {
			sh = vh
		}
		sy = (vh - sh) / 2
	} else {
		sh = vh
		sw = int(float64(vh)*elementAspect + 0.5)
		if sw > vw {
			sw = vw
		}
		sx = (vw - sw) / 2
	}
	return sx, sy, sw, sh
}
