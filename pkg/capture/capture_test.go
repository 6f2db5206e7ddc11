package capture

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"testing"

	"github.com/menta2k/camera-translator/pkg/geometry"
)

// createTestImage creates a simple test image
func createTestImage(width, height int) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			if x > width/3 && x < 2*width/3 && y > height/3 && y < 2*height/3 {
				img.Set(x, y, color.RGBA{255, 255, 255, 255})
			} else {
				img.Set(x, y, color.RGBA{64, 64, 64, 255})
			}
		}
	}
	return img
}

// fakeProvider serves a fixed frame, standing in for a live stream.
type fakeProvider struct {
	img    image.Image
	err    error
	closed bool
}

func (p *fakeProvider) Frame() (image.Image, error) {
	if p.err != nil {
		return nil, p.err
	}
	return p.img, nil
}

func (p *fakeProvider) NaturalSize() (int, int) {
	if p.img == nil {
		return 0, 0
	}
	b := p.img.Bounds()
	return b.Dx(), b.Dy()
}

func (p *fakeProvider) Close() error {
	p.closed = true
	return nil
}

func TestCoverCropWindowWideElement(t *testing.T) {
	// Element wider than the frame: full width, vertically-centered band.
	sx, sy, sw, sh := CoverCropWindow(1920, 1080, 1000, 250)
	if sw != 1920 {
		t.Errorf("expected full width crop, got %d", sw)
	}
	if sh != 480 {
		t.Errorf("expected height 480, got %d", sh)
	}
	if sx != 0 || sy != 300 {
		t.Errorf("expected centered origin (0,300), got (%d,%d)", sx, sy)
	}
}

func TestCoverCropWindowTallElement(t *testing.T) {
	// Element taller than the frame: full height, horizontally-centered
	// band.
	sx, sy, sw, sh := CoverCropWindow(1920, 1080, 500, 1000)
	if sh != 1080 {
		t.Errorf("expected full height crop, got %d", sh)
	}
	if sw != 540 {
		t.Errorf("expected width 540, got %d", sw)
	}
	if sy != 0 || sx != 690 {
		t.Errorf("expected centered origin (690,0), got (%d,%d)", sx, sy)
	}
}

func TestCoverCropWindowMatchingAspect(t *testing.T) {
	sx, sy, sw, sh := CoverCropWindow(1280, 720, 640, 360)
	if sx != 0 || sy != 0 || sw != 1280 || sh != 720 {
		t.Errorf("expected identity crop, got (%d,%d,%d,%d)", sx, sy, sw, sh)
	}
}

func TestCoverCropWindowDegenerate(t *testing.T) {
	if _, _, sw, sh := CoverCropWindow(0, 1080, 100, 100); sw != 0 || sh != 0 {
		t.Error("expected empty window for zero-width frame")
	}
	if _, _, sw, sh := CoverCropWindow(1920, 1080, 0, 100); sw != 0 || sh != 0 {
		t.Error("expected empty window for zero-width element")
	}
}

func TestCaptureStaticPassthrough(t *testing.T) {
	c := New()
	img := createTestImage(300, 200)
	frame, err := c.Capture(NewStatic(img), geometry.Size{W: 100, H: 100})
	if err != nil {
		t.Fatalf("Capture failed: %v", err)
	}
	if frame.Image != img {
		t.Error("static capture should pass the source image through unchanged")
	}
	if frame.Width != 300 || frame.Height != 200 {
		t.Errorf("expected 300x200, got %dx%d", frame.Width, frame.Height)
	}
}

func TestCaptureStreamCropsToElementAspect(t *testing.T) {
	c := New()
	src := &CameraSource{Facing: FacingEnvironment, Provider: &fakeProvider{img: createTestImage(1920, 1080)}}

	frame, err := c.Capture(src, geometry.Size{W: 500, H: 1000})
	if err != nil {
		t.Fatalf("Capture failed: %v", err)
	}
	ratio := float64(frame.Width) / float64(frame.Height)
	if ratio < 0.49 || ratio > 0.51 {
		t.Errorf("expected crop aspect ~0.5, got %f (%dx%d)", ratio, frame.Width, frame.Height)
	}
	if frame.Height != 1080 {
		t.Errorf("expected full frame height, got %d", frame.Height)
	}
}

func TestCaptureNotReady(t *testing.T) {
	c := New()
	cases := []struct {
		name    string
		src     Source
		element geometry.Size
	}{
		{"nil source", nil, geometry.Size{W: 100, H: 100}},
		{"nil static image", NewStatic(nil), geometry.Size{W: 100, H: 100}},
		{"nil provider", &CameraSource{}, geometry.Size{W: 100, H: 100}},
		{"zero element", &ScreenSource{Provider: &fakeProvider{img: createTestImage(10, 10)}}, geometry.Size{}},
		{"frame error", &CameraSource{Provider: &fakeProvider{err: fmt.Errorf("no frame")}}, geometry.Size{W: 100, H: 100}},
	}
	for _, tc := range cases {
		if _, err := c.Capture(tc.src, tc.element); !errors.Is(err, ErrSourceNotReady) {
			t.Errorf("%s: expected ErrSourceNotReady, got %v", tc.name, err)
		}
	}
}

func TestSourceNaturalSize(t *testing.T) {
	static := NewStatic(createTestImage(640, 480))
	if sz := static.NaturalSize(); sz.W != 640 || sz.H != 480 {
		t.Errorf("unexpected static natural size %+v", sz)
	}
	cam := &CameraSource{Provider: &fakeProvider{img: createTestImage(1280, 720)}}
	if sz := cam.NaturalSize(); sz.W != 1280 || sz.H != 720 {
		t.Errorf("unexpected camera natural size %+v", sz)
	}
	if sz := (&ScreenSource{}).NaturalSize(); sz.Valid() {
		t.Errorf("expected unknown size for provider-less screen source, got %+v", sz)
	}
}

func TestSourceCloseReleasesProvider(t *testing.T) {
	p := &fakeProvider{img: createTestImage(10, 10)}
	src := &CameraSource{Provider: p}
	if err := src.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if !p.closed {
		t.Error("expected provider stream to be released")
	}
}

func TestEncodeAndDecodeRoundTrip(t *testing.T) {
	c := New()
	frame := &Frame{Image: createTestImage(120, 80), Width: 120, Height: 80}

	enc, err := c.Encode(frame)
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}
	if enc.Format != "jpg" || len(enc.Data) == 0 {
		t.Errorf("unexpected encoded image: format=%s len=%d", enc.Format, len(enc.Data))
	}

	img, err := DecodeBytes(enc.Data)
	if err != nil {
		t.Fatalf("DecodeBytes failed: %v", err)
	}
	if img.Bounds().Dx() != 120 || img.Bounds().Dy() != 80 {
		t.Errorf("unexpected decoded size %v", img.Bounds())
	}
}

func TestPrepareForModelDownscales(t *testing.T) {
	c := NewWithConfig(Config{Format: "jpg", Quality: 80, MaxDim: 64})
	b64, err := c.PrepareForModel(createTestImage(256, 128))
	if err != nil {
		t.Fatalf("PrepareForModel failed: %v", err)
	}
	if b64 == "" {
		t.Fatal("expected non-empty base64 payload")
	}
}

func TestClassifyAcquireError(t *testing.T) {
	cases := []struct {
		err  error
		want AcquireCause
	}{
		{ErrPermissionDenied, CausePermissionDenied},
		{ErrNoDevice, CauseNoDevice},
		{ErrDeviceBusy, CauseDeviceBusy},
		{fmt.Errorf("open camera: permission denied by user"), CausePermissionDenied},
		{fmt.Errorf("device busy or in use"), CauseDeviceBusy},
		{fmt.Errorf("camera not found"), CauseNoDevice},
		{fmt.Errorf("something else"), CauseUnknown},
		{nil, CauseUnknown},
	}
	for _, tc := range cases {
		if got := ClassifyAcquireError(tc.err); got != tc.want {
			t.Errorf("ClassifyAcquireError(%v) = %v, want %v", tc.err, got, tc.want)
		}
	}
}
