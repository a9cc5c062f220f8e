package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/caffeineduck/codepit/executor"
	"github.com/caffeineduck/codepit/snippet"
)

func (s *Server) listSnippets(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	list, err := s.snippets.List(r.Context(), snippet.Query{
		Text:     q.Get("q"),
		Language: executor.Language(q.Get("language")),
		Sort:     snippet.ParseSortOrder(q.Get("sort")),
	})
	if err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (s *Server) createSnippet(w http.ResponseWriter, r *http.Request) {
	var d snippet.Draft
	if !decode(w, r, &d) {
		return
	}
	created, err := s.snippets.Add(r.Context(), d)
	if err != nil {
		s.fail(w, err)
		return
	}
	w.Header().Set("Location", "/api/snippets/"+created.ID)
	writeJSON(w, http.StatusCreated, created)
}

func (s *Server) getSnippet(w http.ResponseWriter, r *http.Request) {
	sn, err := s.snippets.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sn)
}

func (s *Server) updateSnippet(w http.ResponseWriter, r *http.Request) {
	var p snippet.Patch
	if !decode(w, r, &p) {
		return
	}
	updated, err := s.snippets.Update(r.Context(), chi.URLParam(r, "id"), p)
	if err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (s *Server) deleteSnippet(w http.ResponseWriter, r *http.Request) {
	if err := s.snippets.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.fail(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) listRevisions(w http.ResponseWriter, r *http.Request) {
	revs, err := s.snippets.Revisions(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, revs)
}

func (s *Server) saveRevision(w http.ResponseWriter, r *http.Request) {
	rev, err := s.snippets.SaveRevision(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, rev)
}

func (s *Server) restoreRevision(w http.ResponseWriter, r *http.Request) {
	sn, err := s.snippets.RestoreRevision(r.Context(), chi.URLParam(r, "id"), chi.URLParam(r, "revisionID"))
	if err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sn)
}
