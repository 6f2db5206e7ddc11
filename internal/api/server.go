// Package api exposes the translation session over HTTP.
package api

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	cameratranslator "github.com/menta2k/camera-translator"
	"github.com/menta2k/camera-translator/pkg/session"
)

// Server wires the session and a stateless translator into an HTTP router.
type Server struct {
	session    *session.Session
	translator *cameratranslator.Translator
	logger     *zap.Logger
}

// NewServer creates an API server around an existing session.
func NewServer(sess *session.Session, translator *cameratranslator.Translator, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{
		session:    sess,
		translator: translator,
		logger:     logger,
	}
}

// Router builds the route table.
func (s *Server) Router() *mux.Router {
	r := mux.NewRouter()
	r.Use(s.recoverMiddleware)
	r.Use(s.logMiddleware)

	r.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)
	r.HandleFunc("/state", s.handleState).Methods(http.MethodGet)

	r.HandleFunc("/scan", s.handleScan).Methods(http.MethodPost)
	r.HandleFunc("/scan/trigger", s.handleScanTrigger).Methods(http.MethodPost)
	r.HandleFunc("/scan/continuous", s.handleScanContinuous).Methods(http.MethodPut)

	r.HandleFunc("/history", s.handleHistoryList).Methods(http.MethodGet)
	r.HandleFunc("/history", s.handleHistorySave).Methods(http.MethodPost)
	r.HandleFunc("/history", s.handleHistoryClear).Methods(http.MethodDelete)

	r.HandleFunc("/settings", s.handleSettingsGet).Methods(http.MethodGet)
	r.HandleFunc("/settings", s.handleSettingsPut).Methods(http.MethodPut)

	return r
}

// recoverMiddleware converts a handler panic into a 500 instead of tearing
// the whole process down.
func (s *Server) recoverMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				s.logger.Error("handler panic",
					zap.Any("panic", rec),
					zap.String("path", r.URL.Path))
				writeError(w, http.StatusInternalServerError, "internal error")
			}
		}()
		next.ServeHTTP(w, r)
	})
}

func (s *Server) logMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		next.ServeHTTP(w, r)
		s.logger.Debug("request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path))
	})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
