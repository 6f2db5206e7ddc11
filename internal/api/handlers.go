package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"go.uber.org/zap"

	cameratranslator "github.com/menta2k/camera-translator"
	"github.com/menta2k/camera-translator/pkg/capture"
	"github.com/menta2k/camera-translator/pkg/client"
)

// maxScanBody bounds uploaded image payloads.
const maxScanBody = 32 << 20

type stateResponse struct {
	State      string         `json:"state"`
	Continuous bool           `json:"continuous"`
	Frozen     bool           `json:"frozen"`
	Source     string         `json:"source,omitempty"`
	Settings   cameraSettings `json:"settings"`
}

type cameraSettings struct {
	FontScale float64 `json:"fontScale"`
	AutoSave  bool    `json:"autoSave"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"version": cameratranslator.Version,
	})
}

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	resp := stateResponse{
		State:      string(s.session.State()),
		Continuous: s.session.Continuous(),
		Frozen:     s.session.Frozen(),
		Settings: cameraSettings{
			FontScale: s.session.Settings().FontScale,
			AutoSave:  s.session.Settings().AutoSave,
		},
	}
	if src := s.session.Source(); src != nil {
		resp.Source = src.Kind().String()
	}
	writeJSON(w, http.StatusOK, resp)
}

// handleScan translates an uploaded image without touching session state.
func (s *Server) handleScan(w http.ResponseWriter, r *http.Request) {
	data, err := io.ReadAll(io.LimitReader(r.Body, maxScanBody))
	if err != nil || len(data) == 0 {
		writeError(w, http.StatusBadRequest, "missing image body")
		return
	}
	img, err := capture.DecodeBytes(data)
	if err != nil {
		writeError(w, http.StatusBadRequest, "unsupported image format")
		return
	}

	res, err := s.translator.TranslateImage(r.Context(), img)
	if err != nil && !errors.Is(err, client.ErrBadResponse) {
		s.logger.Warn("translation failed", zap.Error(err))
		writeError(w, http.StatusBadGateway, "translation backend unavailable")
		return
	}
	// A bad model response still carries a diagnostic result worth showing.
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleScanTrigger(w http.ResponseWriter, r *http.Request) {
	started := s.session.TriggerScan()
	writeJSON(w, http.StatusOK, map[string]bool{"started": started})
}

func (s *Server) handleScanContinuous(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Enabled bool `json:"enabled"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	s.session.SetContinuous(req.Enabled)
	writeJSON(w, http.StatusOK, map[string]bool{"continuous": s.session.Continuous()})
}

func (s *Server) handleHistoryList(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.session.History().Entries())
}

func (s *Server) handleHistorySave(w http.ResponseWriter, r *http.Request) {
	saved := s.session.SaveCurrent()
	writeJSON(w, http.StatusOK, map[string]bool{"saved": saved})
}

func (s *Server) handleHistoryClear(w http.ResponseWriter, r *http.Request) {
	s.session.History().Clear()
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleSettingsGet(w http.ResponseWriter, r *http.Request) {
	settings := s.session.Settings()
	writeJSON(w, http.StatusOK, cameraSettings{
		FontScale: settings.FontScale,
		AutoSave:  settings.AutoSave,
	})
}

func (s *Server) handleSettingsPut(w http.ResponseWriter, r *http.Request) {
	var req struct {
		FontScale *float64 `json:"fontScale"`
		AutoSave  *bool    `json:"autoSave"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.FontScale != nil {
		if *req.FontScale <= 0 {
			writeError(w, http.StatusBadRequest, "fontScale must be positive")
			return
		}
		s.session.SetFontScale(*req.FontScale)
	}
	if req.AutoSave != nil {
		s.session.SetAutoSave(*req.AutoSave)
	}
	settings := s.session.Settings()
	writeJSON(w, http.StatusOK, cameraSettings{
		FontScale: settings.FontScale,
		AutoSave:  settings.AutoSave,
	})
}
