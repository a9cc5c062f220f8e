package server

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/caffeineduck/codepit/executor"
	"github.com/caffeineduck/codepit/snippet"
)

type runRequest struct {
	Code     string `json:"code"`
	Language string `json:"language"`
}

type runResponse struct {
	Output     string `json:"output"`
	Error      string `json:"error,omitempty"`
	DurationMs int64  `json:"duration_ms"`
}

type languageInfo struct {
	Language   executor.Language `json:"language"`
	Executable bool              `json:"executable"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok"))
}

// run executes a snippet. Execution failures are part of a 200 response;
// only malformed requests are rejected.
func (s *Server) run(w http.ResponseWriter, r *http.Request) {
	var req runRequest
	if !decode(w, r, &req) {
		return
	}
	if req.Language == "" {
		writeError(w, http.StatusBadRequest, "language required")
		return
	}

	result := s.dispatcher.RunCode(r.Context(), req.Code, executor.Parse(req.Language))
	writeJSON(w, http.StatusOK, runResponse{
		Output:     result.Output,
		Error:      result.Error,
		DurationMs: result.Duration.Milliseconds(),
	})
}

func (s *Server) languages(w http.ResponseWriter, r *http.Request) {
	langs := executor.Languages()
	out := make([]languageInfo, 0, len(langs))
	for _, l := range langs {
		out = append(out, languageInfo{Language: l, Executable: s.dispatcher.IsLanguageSupported(l)})
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) stats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.snippets.Stats(r.Context())
	if err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

// fail maps domain errors to status codes. Anything unrecognised is logged
// and reported as a 500.
func (s *Server) fail(w http.ResponseWriter, err error) {
	var tooLarge *http.MaxBytesError
	switch {
	case snippet.IsNotFound(err):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, snippet.ErrDuplicateTitle):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, snippet.ErrTitleRequired),
		errors.Is(err, snippet.ErrInvalidBundle),
		errors.Is(err, snippet.ErrNoSnippets):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.As(err, &tooLarge):
		writeError(w, http.StatusRequestEntityTooLarge, "request body too large")
	default:
		s.logger.Error("request failed", slog.Any("error", err))
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "request body too large")
			return false
		}
		writeError(w, http.StatusBadRequest, "invalid json")
		return false
	}
	return true
}
