package capture

import (
	"errors"
	"image"
	"strings"

	"github.com/menta2k/camera-translator/pkg/geometry"
)

// SourceKind discriminates the active capture input. Exactly one source is
// active at a time; switching invalidates any content rectangle or result
// tied to the previous source.
type SourceKind int

const (
	// KindCamera is a live camera stream.
	KindCamera SourceKind = iota
	// KindScreen is a shared screen stream.
	KindScreen
	// KindStatic is a still image, from an upload or a freeze-frame.
	KindStatic
)

func (k SourceKind) String() string {
	switch k {
	case KindCamera:
		return "camera"
	case KindScreen:
		return "screen"
	case KindStatic:
		return "static"
	default:
		return "unknown"
	}
}

// FacingMode selects which camera a device opens.
type FacingMode string

const (
	FacingEnvironment FacingMode = "environment"
	FacingUser        FacingMode = "user"
)

// FrameProvider supplies raw frames from a live source. Implementations
// own the underlying media stream and should release it on Close.
type FrameProvider interface {
	// Frame returns the most recent frame, or an error when no readable
	// frame is available yet.
	Frame() (image.Image, error)
	// NaturalSize returns the raw stream dimensions, zero while unknown.
	NaturalSize() (w, h int)
}

// Source is the active capture input: live camera, screen share or static
// image.
type Source interface {
	Kind() SourceKind
	// Fit is the policy under which this source is displayed.
	Fit() geometry.FitPolicy
	// NaturalSize returns the source's intrinsic dimensions, zero while
	// unknown.
	NaturalSize() geometry.Size
	// Close releases the underlying media stream, if any.
	Close() error
}

// CameraSource is a live camera stream displayed under cover fit.
type CameraSource struct {
	Facing   FacingMode
	Provider FrameProvider
}

func (s *CameraSource) Kind() SourceKind        { return KindCamera }
func (s *CameraSource) Fit() geometry.FitPolicy { return geometry.Cover }

func (s *CameraSource) NaturalSize() geometry.Size {
	return providerSize(s.Provider)
}

func (s *CameraSource) Close() error { return closeProvider(s.Provider) }

// ScreenSource is a shared screen stream displayed under cover fit.
type ScreenSource struct {
	Provider FrameProvider
}

func (s *ScreenSource) Kind() SourceKind        { return KindScreen }
func (s *ScreenSource) Fit() geometry.FitPolicy { return geometry.Cover }

func (s *ScreenSource) NaturalSize() geometry.Size {
	return providerSize(s.Provider)
}

func (s *ScreenSource) Close() error { return closeProvider(s.Provider) }

// StaticSource is a still image displayed under contain fit. It already
// represents "the frame", so captures pass it through unchanged.
type StaticSource struct {
	Image image.Image
}

// NewStatic wraps a still image as a capture source.
func NewStatic(img image.Image) *StaticSource {
	return &StaticSource{Image: img}
}

func (s *StaticSource) Kind() SourceKind        { return KindStatic }
func (s *StaticSource) Fit() geometry.FitPolicy { return geometry.Contain }

func (s *StaticSource) NaturalSize() geometry.Size {
	if s.Image == nil {
		return geometry.Size{}
	}
	b := s.Image.Bounds()
	return geometry.Size{W: float64(b.Dx()), H: float64(b.Dy())}
}

func (s *StaticSource) Close() error { return nil }

func providerSize(p FrameProvider) geometry.Size {
	if p == nil {
		return geometry.Size{}
	}
	w, h := p.NaturalSize()
	return geometry.Size{W: float64(w), H: float64(h)}
}

func closeProvider(p FrameProvider) error {
	if c, ok := p.(interface{ Close() error }); ok {
		return c.Close()
	}
	return nil
}

// AcquireCause classifies why opening a camera or screen stream failed,
// so the failure can be surfaced with a matching retry affordance.
type AcquireCause int

const (
	CauseUnknown AcquireCause = iota
	CausePermissionDenied
	CauseNoDevice
	CauseDeviceBusy
)

// Sentinel acquisition errors for providers that can classify themselves.
var (
	ErrPermissionDenied = errors.New("capture: permission denied")
	ErrNoDevice         = errors.New("capture: no capture device found")
	ErrDeviceBusy       = errors.New("capture: device busy")
)

// ClassifyAcquireError maps a source-acquisition failure to its cause.
func ClassifyAcquireError(err error) AcquireCause {
	switch {
	case err == nil:
		return CauseUnknown
	case errors.Is(err, ErrPermissionDenied):
		return CausePermissionDenied
	case errors.Is(err, ErrNoDevice):
		return CauseNoDevice
	case errors.Is(err, ErrDeviceBusy):
		return CauseDeviceBusy
	}
	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "permission") || strings.Contains(msg, "denied"):
		return CausePermissionDenied
	case strings.Contains(msg, "not found") || strings.Contains(msg, "no device"):
		return CauseNoDevice
	case strings.Contains(msg, "busy") || strings.Contains(msg, "in use"):
		return CauseDeviceBusy
	default:
		return CauseUnknown
	}
}
