package cameratranslator

import (
	"context"
	"image"
	"testing"
	"time"

	"github.com/menta2k/camera-translator/pkg/capture"
	"github.com/menta2k/camera-translator/pkg/geometry"
	"github.com/menta2k/camera-translator/pkg/offline"
	"github.com/menta2k/camera-translator/pkg/types"
)

func offlineTranslator() *Translator {
	return New(offline.New(&offline.Config{
		ProcessingDelay: time.Millisecond,
		Result: &types.TranslationResult{
			Items: []types.TranslatedItem{{
				Original:   "出口",
				Translated: "Exit",
				Box:        types.NormalizedBox{100, 100, 200, 500},
			}},
			Summary: "a sign above a doorway",
		},
	}))
}

func TestTranslateImage(t *testing.T) {
	tr := offlineTranslator()
	img := image.NewRGBA(image.Rect(0, 0, 64, 48))

	res, err := tr.TranslateImage(context.Background(), img)
	if err != nil {
		t.Fatalf("TranslateImage failed: %v", err)
	}
	if len(res.Items) != 1 || res.Items[0].Translated != "Exit" {
		t.Errorf("unexpected result %+v", res)
	}
}

func TestTranslateFrame(t *testing.T) {
	tr := offlineTranslator()
	src := capture.NewStatic(image.NewRGBA(image.Rect(0, 0, 64, 48)))

	res, err := tr.TranslateFrame(context.Background(), src, geometry.Size{W: 640, H: 480})
	if err != nil {
		t.Fatalf("TranslateFrame failed: %v", err)
	}
	if !res.HasItems() {
		t.Error("expected translated items")
	}
}

func TestLayoutResolvesContentRect(t *testing.T) {
	tr := offlineTranslator()
	res := &types.TranslationResult{
		Items: []types.TranslatedItem{{
			Original:   "hola",
			Translated: "hello",
			Box:        types.NormalizedBox{0, 0, 500, 1000},
		}},
	}

	// A 400x400 source letterboxed into 800x400 sits at x=200.
	overlays := tr.Layout(res, geometry.Size{W: 800, H: 400},
		geometry.Size{W: 1200, H: 1200}, geometry.Contain, 1.0)
	if len(overlays) != 1 {
		t.Fatalf("expected 1 overlay, got %d", len(overlays))
	}
	p := overlays[0].Box
	if p.Left != 200 || p.Top != 0 || p.Width != 400 || p.Height != 200 {
		t.Errorf("unexpected placement %+v", p)
	}
}

func TestLayoutFallsBackToContainer(t *testing.T) {
	tr := offlineTranslator()
	res := &types.TranslationResult{
		Items: []types.TranslatedItem{{
			Original:   "hola",
			Translated: "hello",
			Box:        types.NormalizedBox{0, 0, 1000, 1000},
		}},
	}

	// Natural size unknown: the whole container stands in.
	overlays := tr.Layout(res, geometry.Size{W: 640, H: 480},
		geometry.Size{}, geometry.Contain, 1.0)
	if len(overlays) != 1 {
		t.Fatalf("expected 1 overlay, got %d", len(overlays))
	}
	p := overlays[0].Box
	if p.Width != 640 || p.Height != 480 {
		t.Errorf("expected full-container placement, got %+v", p)
	}
}

func TestAnnotateKeepsBounds(t *testing.T) {
	tr := offlineTranslator()
	img := image.NewRGBA(image.Rect(0, 0, 120, 90))
	res := &types.TranslationResult{
		Items: []types.TranslatedItem{{
			Original:   "hola",
			Translated: "hello",
			Box:        types.NormalizedBox{100, 100, 600, 900},
		}},
	}

	out := tr.Annotate(img, res)
	if out.Bounds().Dx() != 120 || out.Bounds().Dy() != 90 {
		t.Errorf("unexpected bounds %v", out.Bounds())
	}
}

func TestGetVersion(t *testing.T) {
	if GetVersion() != Version {
		t.Errorf("expected version %s, got %s", Version, GetVersion())
	}
}
