package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/mattjoyce/rings/internal/render"
)

var errNoFrame = errors.New("no frame rendered yet")

// handleHealthz handles GET /healthz (no auth).
func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	resp := HealthzResponse{
		Status:        "ok",
		UptimeSeconds: int64(time.Since(s.startedAt).Seconds()),
		SSEClients:    s.hub.Subscribers(),
	}
	if s.frames != nil {
		if f := s.frames.Latest(); f != nil {
			at := f.At
			resp.Block = f.Block.Name
			resp.LastFrameAt = &at
		}
	}
	respondJSON(w, http.StatusOK, resp)
}

// frameFor resolves the frame a request asks for: ?at=RFC3339 renders that
// instant, otherwise the driver's latest frame is served.
func (s *Server) frameFor(r *http.Request) (render.Frame, int, error) {
	if at := r.URL.Query().Get("at"); at != "" {
		t, err := time.Parse(time.RFC3339, at)
		if err != nil {
			return render.Frame{}, http.StatusBadRequest, errors.New("at must be an RFC3339 timestamp")
		}
		return s.projector.Tick(t), http.StatusOK, nil
	}

	if s.frames == nil {
		return s.projector.Tick(time.Now()), http.StatusOK, nil
	}
	f := s.frames.Latest()
	if f == nil {
		return render.Frame{}, http.StatusServiceUnavailable, errNoFrame
	}
	return *f, http.StatusOK, nil
}

// handleFrame handles GET /frame.
func (s *Server) handleFrame(w http.ResponseWriter, r *http.Request) {
	f, status, err := s.frameFor(r)
	if err != nil {
		s.writeError(w, status, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, f)
}

// handleFrameSVG handles GET /frame.svg.
func (s *Server) handleFrameSVG(w http.ResponseWriter, r *http.Request) {
	f, status, err := s.frameFor(r)
	if err != nil {
		s.writeError(w, status, err.Error())
		return
	}

	var buf bytes.Buffer
	if err := render.WriteSVG(&buf, f); err != nil {
		s.logger.Error("failed to render svg", "error", err)
		s.writeError(w, http.StatusInternalServerError, "failed to render svg")
		return
	}
	w.Header().Set("Content-Type", "image/svg+xml")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

// handleRing handles GET /rings/{ring}.
func (s *Server) handleRing(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "ring")
	f, status, err := s.frameFor(r)
	if err != nil {
		s.writeError(w, status, err.Error())
		return
	}

	if name == render.RingDay {
		respondJSON(w, http.StatusOK, f.Day)
		return
	}
	for _, ring := range f.Rings() {
		if ring.Name == name {
			respondJSON(w, http.StatusOK, ring)
			return
		}
	}
	s.writeError(w, http.StatusNotFound, "unknown ring: "+name)
}

// handleOpenAPI handles GET /openapi.json.
func (s *Server) handleOpenAPI(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, buildOpenAPIDoc(s.metrics != nil))
}

// respondJSON is a helper to write JSON responses
func respondJSON(w http.ResponseWriter, statusCode int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(data)
}

// writeError writes a JSON error response
func (s *Server) writeError(w http.ResponseWriter, statusCode int, message string) {
	respondJSON(w, statusCode, ErrorResponse{Error: message})
}
