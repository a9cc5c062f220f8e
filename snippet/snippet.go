// Package snippet manages stored code snippets: persistence over a
// store.KV, title-unique create and update, search, per-language
// statistics, revision history and JSON import/export bundles.
package snippet

import (
	"errors"
	"fmt"
	"strings"

	"github.com/caffeineduck/codepit/executor"
)

var (
	ErrNotFound         = errors.New("snippet not found")
	ErrRevisionNotFound = errors.New("revision not found")
	ErrTitleRequired    = errors.New("Title is required")
	ErrDuplicateTitle   = errors.New("A snippet with this title already exists")
	ErrInvalidBundle    = errors.New("Invalid import file format")
	ErrNoSnippets       = errors.New("No snippets to export")
)

// Snippet is a stored piece of code. Timestamps are Unix milliseconds.
type Snippet struct {
	ID          string            `json:"id"`
	Title       string            `json:"title"`
	Description string            `json:"description"`
	Code        string            `json:"code"`
	Language    executor.Language `json:"language"`
	Markdown    string            `json:"markdown"`
	Tags        []string          `json:"tags"`
	CreatedAt   int64             `json:"createdAt"`
	UpdatedAt   int64             `json:"updatedAt"`
}

// Draft holds the fields a caller supplies when adding a snippet.
type Draft struct {
	Title       string            `json:"title"`
	Description string            `json:"description"`
	Code        string            `json:"code"`
	Language    executor.Language `json:"language"`
	Tags        []string          `json:"tags"`
}

// Patch is a partial update; nil fields are left unchanged.
type Patch struct {
	Title       *string            `json:"title,omitempty"`
	Description *string            `json:"description,omitempty"`
	Code        *string            `json:"code,omitempty"`
	Language    *executor.Language `json:"language,omitempty"`
	Tags        *[]string          `json:"tags,omitempty"`
}

func (p Patch) apply(s *Snippet) {
	if p.Title != nil {
		s.Title = *p.Title
	}
	if p.Description != nil {
		s.Description = *p.Description
	}
	if p.Code != nil {
		s.Code = *p.Code
	}
	if p.Language != nil {
		s.Language = *p.Language
	}
	if p.Tags != nil {
		s.Tags = normalizeTags(*p.Tags)
	}
}

// RenderMarkdown builds the markdown preview stored with every snippet.
func RenderMarkdown(title, description string, lang executor.Language, code string) string {
	return fmt.Sprintf("# %s\n\n%s\n\n```%s\n%s\n```", title, description, lang, code)
}

func normalizeTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		if t = strings.TrimSpace(t); t != "" {
			out = append(out, t)
		}
	}
	return out
}

func sameTitle(a, b string) bool {
	return strings.EqualFold(a, b)
}
