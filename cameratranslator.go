// Package cameratranslator provides camera-based visual translation.
//
// This package captures frames from a camera, screen share or still image,
// sends them to a vision language model, and maps the translated text
// regions back onto the displayed image as positioned overlays.
//
// Basic usage:
//
//	package main
//
//	import (
//		"context"
//		"fmt"
//		"log"
//
//		cameratranslator "github.com/menta2k/camera-translator"
//		"github.com/menta2k/camera-translator/pkg/capture"
//		"github.com/menta2k/camera-translator/pkg/geometry"
//		"github.com/menta2k/camera-translator/pkg/ollama"
//	)
//
//	func main() {
//		client, err := ollama.NewClient("http://localhost:11434", "qwen2.5vl:7b", "English")
//		if err != nil {
//			log.Fatal(err)
//		}
//		translator := cameratranslator.New(client)
//
//		img, err := capture.LoadImage("sign.jpg")
//		if err != nil {
//			log.Fatal(err)
//		}
//
//		result, err := translator.TranslateImage(context.Background(), img)
//		if err != nil {
//			log.Fatal(err)
//		}
//		for _, item := range result.Items {
//			fmt.Printf("%s -> %s\n", item.Original, item.Translated)
//		}
//
//		// Position the overlays inside a 1280x720 viewport.
//		overlays := translator.Layout(result, geometry.Size{W: 1280, H: 720},
//			geometry.Size{W: 1920, H: 1080}, geometry.Contain, 1.0)
//		for _, ov := range overlays {
//			fmt.Printf("%q at %+v size %.1f\n", ov.Item.Translated, ov.Box, ov.FontSize)
//		}
//	}
//
// The package consists of the following main components:
//
// 1. Capture (pkg/capture): frame acquisition, cover-fit cropping and model encoding
// 2. Geometry (pkg/geometry): content rectangle resolution for contain and cover fits
// 3. Overlay (pkg/overlay): normalized box mapping and font sizing
// 4. Clients (pkg/ollama, pkg/llamacpp, pkg/offline): vision model backends
// 5. Session (pkg/session): scan scheduling, freeze-frame and history state
package cameratranslator

import (
	"context"
	"fmt"
	"image"

	"github.com/menta2k/camera-translator/pkg/capture"
	"github.com/menta2k/camera-translator/pkg/client"
	"github.com/menta2k/camera-translator/pkg/geometry"
	"github.com/menta2k/camera-translator/pkg/overlay"
	"github.com/menta2k/camera-translator/pkg/types"
)

// Version of the camera translator library
const Version = "1.0.0"

// Translator provides a high-level interface for one-off frame translation
type Translator struct {
	capturer *capture.Capturer
	client   client.TranslationClient
}

// New creates a Translator with the default capture configuration
func New(cl client.TranslationClient) *Translator {
	return &Translator{
		capturer: capture.New(),
		client:   cl,
	}
}

// NewWithCapturer creates a Translator with a custom capturer
func NewWithCapturer(capturer *capture.Capturer, cl client.TranslationClient) *Translator {
	return &Translator{
		capturer: capturer,
		client:   cl,
	}
}

// TranslateImage sends a still image through the model and returns the
// translated regions
func (t *Translator) TranslateImage(ctx context.Context, img image.Image) (*types.TranslationResult, error) {
	payload, err := t.capturer.PrepareForModel(img)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare image: %w", err)
	}
	return t.client.Translate(ctx, payload)
}

// TranslateFrame captures a frame from a source as displayed in an element
// of the given size and translates it
func (t *Translator) TranslateFrame(ctx context.Context, src capture.Source, element geometry.Size) (*types.TranslationResult, error) {
	frame, err := t.capturer.Capture(src, element)
	if err != nil {
		return nil, fmt.Errorf("failed to capture frame: %w", err)
	}
	return t.TranslateImage(ctx, frame.Image)
}

// Layout positions a result's items inside a container displaying content
// of the given natural size under the given fit policy. While the content
// rectangle cannot be resolved yet, the full container is used.
func (t *Translator) Layout(res *types.TranslationResult, container, natural geometry.Size, fit geometry.FitPolicy, fontScale float64) []overlay.ItemOverlay {
	if res == nil {
		return nil
	}
	rect, ok := geometry.Resolve(container, natural, fit)
	if !ok {
		rect = overlay.FallbackRect(container)
	}
	return overlay.Layout(res.Items, rect, fontScale)
}

// Annotate draws a result's overlay boxes onto an image, for inspection of
// model output
func (t *Translator) Annotate(img image.Image, res *types.TranslationResult) image.Image {
	if res == nil || img == nil {
		return img
	}
	b := img.Bounds()
	container := geometry.Size{W: float64(b.Dx()), H: float64(b.Dy())}
	overlays := t.Layout(res, container, container, geometry.Contain, 1.0)
	return capture.Annotate(img, overlays)
}

// GetVersion returns the library version
func GetVersion() string {
	return Version
}
