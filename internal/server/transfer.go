package server

import (
	"net/http"
	"strconv"

	"github.com/caffeineduck/codepit/snippet"
)

type archiveResponse struct {
	Key string `json:"key"`
}

func (s *Server) export(w http.ResponseWriter, r *http.Request) {
	data, err := s.snippets.Export(r.Context())
	if err != nil {
		s.fail(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", `attachment; filename="`+snippet.ExportFilename(s.now())+`"`)
	w.Write(data)
}

func (s *Server) exportArchive(w http.ResponseWriter, r *http.Request) {
	if s.archive == nil {
		writeError(w, http.StatusServiceUnavailable, "archive storage not configured")
		return
	}
	data, err := s.snippets.Export(r.Context())
	if err != nil {
		s.fail(w, err)
		return
	}
	key, err := s.archive.Upload(r.Context(), snippet.ExportFilename(s.now()), data)
	if err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, archiveResponse{Key: key})
}

func (s *Server) importBundle(w http.ResponseWriter, r *http.Request) {
	replace, _ := strconv.ParseBool(r.URL.Query().Get("replace"))
	report, err := s.snippets.Import(r.Context(), r.Body, replace)
	if err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}
