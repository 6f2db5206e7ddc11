package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	cameratranslator "github.com/menta2k/camera-translator"
	"github.com/menta2k/camera-translator/internal/utils"
	"github.com/menta2k/camera-translator/pkg/capture"
	"github.com/menta2k/camera-translator/pkg/client"
	"github.com/menta2k/camera-translator/pkg/llamacpp"
	"github.com/menta2k/camera-translator/pkg/offline"
	"github.com/menta2k/camera-translator/pkg/ollama"
)

func main() {
	var in, outDir, backend, url, model, lang string
	var sendFmt string
	var sendSize int
	var sendQ int
	var annotate bool

	flag.StringVar(&in, "in", "", "input image path or URL (jpg/png/webp)")
	flag.StringVar(&outDir, "out", "out", "output directory")
	flag.StringVar(&backend, "backend", "ollama", "backend to use: ollama, llamacpp or offline")
	flag.StringVar(&url, "url", "", "server URL (defaults: ollama=http://localhost:11434, llamacpp=http://localhost:8080)")
	flag.StringVar(&model, "model", "qwen2.5vl:7b", "model name")
	flag.StringVar(&lang, "lang", "English", "target language")

	flag.StringVar(&sendFmt, "sendfmt", "jpg", "format sent to the model: jpg|png|webp")
	flag.IntVar(&sendSize, "sendsize", 1536, "max long side sent to the model (px), 0=original")
	flag.IntVar(&sendQ, "sendq", 85, "JPEG quality for image sent to the model (1-100)")

	flag.BoolVar(&annotate, "annotate", false, "write an annotated copy with the detected boxes")

	flag.Parse()
	if in == "" {
		log.Fatalf("usage: %s -in input.jpg|URL [-backend ollama|llamacpp|offline] [-url server_url] [-lang English] [-out outdir]", filepath.Base(os.Args[0]))
	}
	if !strings.HasPrefix(in, "http://") && !strings.HasPrefix(in, "https://") && !utils.IsImageFile(in) {
		log.Fatalf("unsupported input file type: %s (expect jpg/png/webp)", in)
	}
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		log.Fatal(err)
	}

	// Create appropriate client based on backend
	var translationClient client.TranslationClient
	var err error

	switch backend {
	case "ollama":
		if url == "" {
			url = "http://localhost:11434"
		}
		translationClient, err = ollama.NewClient(url, model, lang)
		if err != nil {
			log.Fatalf("Failed to create Ollama client: %v", err)
		}
	case "llamacpp":
		if url == "" {
			url = "http://localhost:8080"
		}
		translationClient, err = llamacpp.NewClient(url, model, lang)
		if err != nil {
			log.Fatalf("Failed to create llama.cpp client: %v", err)
		}
	case "offline":
		translationClient = offline.New(nil)
	default:
		log.Fatalf("Unknown backend: %s (use 'ollama', 'llamacpp' or 'offline')\n", backend)
	}

	capturer := capture.NewWithConfig(capture.Config{
		Format:  sendFmt,
		Quality: sendQ,
		MaxDim:  sendSize,
	})
	translator := cameratranslator.NewWithCapturer(capturer, translationClient)

	// Load input image (from file or URL)
	img, err := capture.LoadImageSmart(in)
	if err != nil {
		log.Fatal(err)
	}

	result, err := translator.TranslateImage(context.Background(), img)
	if err != nil && !errors.Is(err, client.ErrBadResponse) {
		log.Fatal(err)
	}
	if err != nil {
		log.Printf("model response was malformed: %v", err)
	}

	for _, item := range result.Items {
		log.Printf("%s -> %s  box=%v", item.Original, item.Translated, item.Box)
	}
	log.Printf("summary: %s", result.Summary)

	if annotate {
		annotated := translator.Annotate(img, result)
		annotatedPath := filepath.Join(outDir, "annotated.png")
		if err := capture.SaveImage(annotated, annotatedPath, "png", 92); err != nil {
			log.Printf("annotated save failed: %v", err)
		} else {
			log.Printf("wrote %s", annotatedPath)
		}
	}

	// Save raw model JSON output
	js, _ := json.MarshalIndent(result, "", "  ")
	outPath := filepath.Join(outDir, "translation.json")
	if err := os.WriteFile(outPath, js, 0o644); err != nil {
		log.Fatal(err)
	}
	fmt.Printf("wrote %s\n", outPath)
}
