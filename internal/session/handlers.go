package session

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/zombor/book-scanner/internal/scanning"
)

const maxBodySize = 64 << 10

// setCORSHeaders sets CORS headers on a response
func setCORSHeaders(w http.ResponseWriter) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
	w.Header().Set("Access-Control-Max-Age", "3600")
}

// writeJSON writes a JSON response with the given status
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Error encoding response", "error", err)
	}
}

type errorResponse struct {
	Error  string           `json:"error"`
	Notice *scanning.Notice `json:"notice,omitempty"`
}

// writeError maps service errors onto HTTP status codes
func writeError(w http.ResponseWriter, err error) {
	setCORSHeaders(w)
	resp := errorResponse{Error: err.Error()}

	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, ErrSessionNotFound), errors.Is(err, ErrBookNotFound):
		status = http.StatusNotFound
	case errors.Is(err, ErrCameraDenied):
		status = http.StatusConflict
		notice := scanning.CameraPermissionNotice()
		resp.Notice = &notice
	case errors.Is(err, ErrScanningDisabled):
		status = http.StatusConflict
	case errors.Is(err, scanning.ErrUnsupportedKind),
		errors.Is(err, scanning.ErrEmptyValue),
		errors.Is(err, scanning.ErrInvalidConfidence):
		status = http.StatusUnprocessableEntity
		notice := scanning.FailureNotice()
		resp.Notice = &notice
	default:
		slog.Error("Request failed", "error", err)
	}
	writeJSON(w, status, resp)
}

// decodeBody decodes a small JSON request body
func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodySize)).Decode(v); err != nil {
		setCORSHeaders(w)
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "Invalid request body"})
		return false
	}
	return true
}

// handleIndex serves the HTML interface
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	setCORSHeaders(w)
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(indexHTML)
}

// handleStartSession opens a session (the landing screen's "start scanning")
func (s *Server) handleStartSession(w http.ResponseWriter, r *http.Request) {
	sess, err := s.service.StartSession()
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, Render(sess))
}

// handleGetSession returns the current view of a session
func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	view, err := s.service.View(r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// handleEndSession discards a session
func (s *Server) handleEndSession(w http.ResponseWriter, r *http.Request) {
	if err := s.service.EndSession(r.PathValue("id")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleSetScanMode toggles scan mode
func (s *Server) handleSetScanMode(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Enabled bool `json:"enabled"`
	}
	if !decodeBody(w, r, &req) {
		return
	}

	view, err := s.service.SetScanMode(r.PathValue("id"), req.Enabled)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// handleCameraPermission records the capture surface's permission answer
func (s *Server) handleCameraPermission(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Granted bool `json:"granted"`
	}
	if !decodeBody(w, r, &req) {
		return
	}

	view, notice, err := s.service.SetCameraPermission(r.PathValue("id"), req.Granted)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"view":   view,
		"notice": notice,
	})
}

// handleScan processes one scan event
func (s *Server) handleScan(w http.ResponseWriter, r *http.Request) {
	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodySize))
	if err != nil {
		setCORSHeaders(w)
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "Invalid request body"})
		return
	}

	event, err := scanning.ParseEvent(data)
	if err != nil {
		if errors.Is(err, scanning.ErrUnsupportedKind) ||
			errors.Is(err, scanning.ErrEmptyValue) ||
			errors.Is(err, scanning.ErrInvalidConfidence) {
			writeError(w, err)
			return
		}
		setCORSHeaders(w)
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "Invalid scan event"})
		return
	}

	result, err := s.service.Scan(r.Context(), r.PathValue("id"), event)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// handleSearch runs a free-text search
func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Query string `json:"query"`
	}
	if !decodeBody(w, r, &req) {
		return
	}

	result, err := s.service.Search(r.Context(), r.PathValue("id"), req.Query)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// handleClear empties both collections
func (s *Server) handleClear(w http.ResponseWriter, r *http.Request) {
	view, err := s.service.Clear(r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// handleSelectBook describes a selected card
func (s *Server) handleSelectBook(w http.ResponseWriter, r *http.Request) {
	selection, err := s.service.Select(r.Context(), r.PathValue("id"), r.PathValue("bookID"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, selection)
}
