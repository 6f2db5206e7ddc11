package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	cameratranslator "github.com/menta2k/camera-translator"
	"github.com/menta2k/camera-translator/internal/api"
	"github.com/menta2k/camera-translator/internal/config"
	"github.com/menta2k/camera-translator/internal/utils"
	"github.com/menta2k/camera-translator/pkg/capture"
	"github.com/menta2k/camera-translator/pkg/client"
	"github.com/menta2k/camera-translator/pkg/llamacpp"
	"github.com/menta2k/camera-translator/pkg/offline"
	"github.com/menta2k/camera-translator/pkg/ollama"
	"github.com/menta2k/camera-translator/pkg/scheduler"
	"github.com/menta2k/camera-translator/pkg/session"
	"github.com/menta2k/camera-translator/pkg/store"
)

func main() {
	var addr, configPath, backend, url, model, lang, storePath string

	flag.StringVar(&addr, "addr", ":8090", "listen address")
	flag.StringVar(&configPath, "config", "", "config file path (defaults to the user config dir)")
	flag.StringVar(&backend, "backend", "", "override inference backend: ollama, llamacpp or offline")
	flag.StringVar(&url, "url", "", "override inference server URL")
	flag.StringVar(&model, "model", "", "override model name")
	flag.StringVar(&lang, "lang", "", "override target language")
	flag.StringVar(&storePath, "store", "", "override store file path")
	flag.Parse()

	logger, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	cfg := loadConfig(logger, configPath)
	applyOverrides(cfg, backend, url, model, lang, storePath)
	if err := cfg.Validate(); err != nil {
		logger.Fatal("invalid configuration", zap.Error(err))
	}

	translationClient, err := buildClient(cfg)
	if err != nil {
		logger.Fatal("failed to create inference client", zap.Error(err))
	}

	st, err := store.OpenFile(cfg.Store.Path)
	if err != nil {
		logger.Fatal("failed to open store", zap.Error(err), zap.String("path", cfg.Store.Path))
	}

	capturer := capture.NewWithConfig(capture.Config{
		Format:  cfg.Inference.SendFormat,
		Quality: cfg.Inference.SendQuality,
		MaxDim:  cfg.Inference.SendMaxDim,
	})
	sess := session.NewWithOptions(capturer, translationClient, st, session.Options{
		Scheduler: scheduler.Config{
			Interval:             time.Duration(cfg.Scan.IntervalSeconds) * time.Second,
			ContinuousErrorDelay: time.Duration(cfg.Scan.ContinuousErrorDelaySeconds) * time.Second,
			OneShotErrorDelay:    time.Duration(cfg.Scan.OneShotErrorDelaySeconds) * time.Second,
		},
		HistoryMax: cfg.History.MaxEntries,
		Defaults: session.Settings{
			FontScale: cfg.Overlay.FontScale,
			AutoSave:  cfg.History.AutoSave,
		},
	})
	defer sess.Close()

	server := api.NewServer(sess, cameratranslator.NewWithCapturer(capturer, translationClient), logger)
	httpServer := &http.Server{
		Addr:         addr,
		Handler:      server.Router(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 5 * time.Minute,
	}

	go func() {
		logger.Info("listening",
			zap.String("addr", addr),
			zap.String("backend", cfg.Inference.Backend),
			zap.String("model", cfg.Inference.Model))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	logger.Info("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(ctx); err != nil {
		logger.Error("shutdown failed", zap.Error(err))
	}
}

func loadConfig(logger *zap.Logger, path string) *config.Config {
	if path == "" {
		path = config.GetConfigPath()
		if !utils.FileExists(path) {
			return config.Default()
		}
	}
	cfg, err := config.LoadFromFile(path)
	if err != nil {
		logger.Fatal("failed to load config", zap.Error(err), zap.String("path", path))
	}
	return cfg
}

func applyOverrides(cfg *config.Config, backend, url, model, lang, storePath string) {
	if backend != "" {
		cfg.Inference.Backend = backend
	}
	if url != "" {
		cfg.Inference.URL = url
	}
	if model != "" {
		cfg.Inference.Model = model
	}
	if lang != "" {
		cfg.Inference.TargetLang = lang
	}
	if storePath != "" {
		cfg.Store.Path = storePath
	}
}

func buildClient(cfg *config.Config) (client.TranslationClient, error) {
	switch cfg.Inference.Backend {
	case "ollama":
		return ollama.NewClient(cfg.Inference.URL, cfg.Inference.Model, cfg.Inference.TargetLang)
	case "llamacpp":
		return llamacpp.NewClient(cfg.Inference.URL, cfg.Inference.Model, cfg.Inference.TargetLang)
	default:
		return offline.New(nil), nil
	}
}
