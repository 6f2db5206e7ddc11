// Package offline provides a deterministic translation backend that works
// without a model server. It satisfies the same contract as the remote
// backends so the capture pipeline cannot tell them apart; actual
// on-device model execution is out of scope.
package offline

import (
	"context"
	"time"

	"github.com/menta2k/camera-translator/pkg/types"
)

// Config configures the stub backend behavior.
type Config struct {
	// ProcessingDelay simulates inference time.
	ProcessingDelay time.Duration
	// Result is the canned payload returned for every frame. If nil, a
	// default sample is used.
	Result *types.TranslationResult
}

// DefaultConfig returns sensible defaults for testing and demos.
func DefaultConfig() *Config {
	return &Config{
		ProcessingDelay: 50 * time.Millisecond,
		Result: &types.TranslationResult{
			Items: []types.TranslatedItem{
				{
					Original:   "こんにちは",
					Translated: "Hello",
					Box:        types.NormalizedBox{100, 100, 200, 500},
				},
				{
					Original:   "出口",
					Translated: "Exit",
					Box:        types.NormalizedBox{400, 700, 500, 900},
				},
			},
			Summary: "Offline sample: a greeting and an exit sign.",
		},
	}
}

// Stub is an offline TranslationClient returning canned results.
type Stub struct {
	config *Config
}

// New creates a stub backend with the given config.
func New(config *Config) *Stub {
	if config == nil {
		config = DefaultConfig()
	}
	return &Stub{config: config}
}

// Translate returns a copy of the canned result after the configured
// delay. The image payload is ignored.
func (s *Stub) Translate(ctx context.Context, imgB64 string) (*types.TranslationResult, error) {
	if s.config.ProcessingDelay > 0 {
		select {
		case <-time.After(s.config.ProcessingDelay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	src := s.config.Result
	if src == nil {
		src = DefaultConfig().Result
	}
	out := &types.TranslationResult{
		Items:   make([]types.TranslatedItem, len(src.Items)),
		Summary: src.Summary,
	}
	copy(out.Items, src.Items)
	return out, nil
}
