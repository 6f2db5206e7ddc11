package capture

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/chai2010/webp"
	"github.com/disintegration/imaging"
	_ "golang.org/x/image/webp"
)

// EncodedImage is a compressed still ready for transport or storage.
type EncodedImage struct {
	Data   []byte
	Format string
}

// Encode compresses a frame using the capturer's configured format.
func (c *Capturer) Encode(frame *Frame) (EncodedImage, error) {
	if frame == nil || frame.Image == nil {
		return EncodedImage{}, ErrSourceNotReady
	}
	var buf bytes.Buffer
	format := strings.ToLower(c.config.Format)
	switch format {
	case "png":
		enc := png.Encoder{CompressionLevel: png.BestCompression}
		if err := enc.Encode(&buf, frame.Image); err != nil {
			return EncodedImage{}, err
		}
	case "webp":
		opts := &webp.Options{Quality: float32(c.config.Quality)}
		if err := webp.Encode(&buf, frame.Image, opts); err != nil {
			return EncodedImage{}, err
		}
	default: // jpg
		format = "jpg"
		if err := jpeg.Encode(&buf, frame.Image, &jpeg.Options{Quality: c.config.Quality}); err != nil {
			return EncodedImage{}, err
		}
	}
	return EncodedImage{Data: buf.Bytes(), Format: format}, nil
}

// PrepareForModel downsizes an image to the configured long-side limit and
// returns it base64-encoded for the vision backend.
func (c *Capturer) PrepareForModel(img image.Image) (string, error) {
	if img == nil {
		return "", ErrSourceNotReady
	}
	if c.config.MaxDim > 0 {
		b := img.Bounds()
		w, h := b.Dx(), b.Dy()
		if w > c.config.MaxDim || h > c.config.MaxDim {
			if w >= h {
				img = imaging.Resize(img, c.config.MaxDim, 0, imaging.Lanczos)
			} else {
				img = imaging.Resize(img, 0, c.config.MaxDim, imaging.Lanczos)
			}
		}
	}
	enc, err := c.Encode(&Frame{Image: img})
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(enc.Data), nil
}

// DecodeBytes decodes an image from byte data with WebP support.
func DecodeBytes(data []byte) (image.Image, error) {
	if img, _, err := image.Decode(bytes.NewReader(data)); err == nil {
		return img, nil
	}
	if img, err := webp.Decode(bytes.NewReader(data)); err == nil {
		return img, nil
	}
	return nil, fmt.Errorf("image: unknown or unsupported format")
}

// LoadImage loads an image from a file path with WebP support.
func LoadImage(path string) (image.Image, error) {
	if img, err := imaging.Open(path); err == nil {
		return img, nil
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	if strings.Contains(strings.ToLower(path), ".webp") {
		if img, err := webp.Decode(f); err == nil {
			return img, nil
		}
		if _, err := f.Seek(0, 0); err == nil {
			if img, _, err := image.Decode(f); err == nil {
				return img, nil
			}
		}
	} else {
		if _, err := f.Seek(0, 0); err == nil {
			if img, _, err := image.Decode(f); err == nil {
				return img, nil
			}
		}
	}
	return nil, fmt.Errorf("image: unknown format for %s", path)
}

// LoadImageFromURL downloads and decodes an image over HTTP(S).
func LoadImageFromURL(imageURL string) (image.Image, error) {
	parsedURL, err := url.Parse(imageURL)
	if err != nil {
		return nil, fmt.Errorf("invalid URL: %v", err)
	}
	if parsedURL.Scheme != "http" && parsedURL.Scheme != "https" {
		return nil, fmt.Errorf("unsupported URL scheme: %s (only http and https are supported)", parsedURL.Scheme)
	}

	client := &http.Client{Timeout: 30 * time.Second}
	req, err := http.NewRequest("GET", imageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %v", err)
	}
	req.Header.Set("User-Agent", "Camera-Translator/1.0 (+https://github.com/menta2k/camera-translator)")

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to download image: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed to download image: HTTP %d %s", resp.StatusCode, resp.Status)
	}
	contentType := resp.Header.Get("Content-Type")
	if !strings.HasPrefix(contentType, "image/") {
		return nil, fmt.Errorf("URL does not point to an image (Content-Type: %s)", contentType)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read image data: %v", err)
	}
	return DecodeBytes(data)
}

// LoadImageSmart loads an image from either a file path or URL.
func LoadImageSmart(source string) (image.Image, error) {
	if strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://") {
		return LoadImageFromURL(source)
	}
	return LoadImage(source)
}

// SaveImage writes an image to a file in the given format.
func SaveImage(img image.Image, path, format string, quality int) error {
	switch strings.ToLower(format) {
	case "webp":
		f, err := os.Create(path)
		if err != nil {
			return err
		}
		defer f.Close()
		return webp.Encode(f, img, &webp.Options{Quality: float32(quality)})
	case "png":
		return imaging.Save(img, path)
	default: // jpg/jpeg
		return imaging.Save(img, path, imaging.JPEGQuality(quality))
	}
}
