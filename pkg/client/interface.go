package client

import (
	"context"
	"errors"

	"github.com/menta2k/camera-translator/pkg/types"
)

// Diagnostic summaries used when a backend cannot produce a real result.
// They surface in the UI and in history, so they read as user messages.
const (
	SummaryEmptyResponse   = "Could not process image. Please try again."
	SummaryParseFailure    = "Could not read the model response. Please try again."
	SummaryConnectionError = "Connection error. Please check your network and try again."
)

// ErrBadResponse marks an empty or malformed model response. Backends
// return it together with a diagnostic TranslationResult so the caller can
// both display the fallback and drive the error/recovery state transition.
var ErrBadResponse = errors.New("client: bad model response")

// TranslationClient produces positioned translations for a captured frame.
// The capture pipeline is agnostic to which backend produced a result:
// remote services and the offline stub are interchangeable.
type TranslationClient interface {
	Translate(ctx context.Context, imgB64 string) (*types.TranslationResult, error)
}
