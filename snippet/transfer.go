package snippet

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"
)

// BundleVersion is written into every export.
const BundleVersion = "1.0.0"

// Bundle is the import/export file format.
type Bundle struct {
	Version  string    `json:"version"`
	Snippets []Snippet `json:"snippets"`
}

// ImportReport describes the outcome of an import.
type ImportReport struct {
	Imported int      `json:"imported"`
	Skipped  []string `json:"skipped"`
}

// Export returns every snippet, newest first, as an indented JSON bundle.
func (s *Service) Export(ctx context.Context) ([]byte, error) {
	all, err := s.repo.LoadAll(ctx)
	if err != nil {
		return nil, err
	}
	if len(all) == 0 {
		return nil, ErrNoSnippets
	}
	data, err := json.MarshalIndent(Bundle{Version: BundleVersion, Snippets: all}, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal bundle: %w", err)
	}
	return data, nil
}

// DecodeBundle reads and validates a bundle. The version must be present
// and snippets must be an array.
func DecodeBundle(r io.Reader) (Bundle, error) {
	var raw struct {
		Version  string          `json:"version"`
		Snippets json.RawMessage `json:"snippets"`
	}
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		return Bundle{}, fmt.Errorf("%w: %v", ErrInvalidBundle, err)
	}
	if raw.Version == "" {
		return Bundle{}, ErrInvalidBundle
	}
	body := strings.TrimSpace(string(raw.Snippets))
	if !strings.HasPrefix(body, "[") {
		return Bundle{}, ErrInvalidBundle
	}

	b := Bundle{Version: raw.Version}
	if err := json.Unmarshal(raw.Snippets, &b.Snippets); err != nil {
		return Bundle{}, fmt.Errorf("%w: %v", ErrInvalidBundle, err)
	}
	return b, nil
}

// Import stores the snippets of a bundle read from r. Each snippet gets a
// new ID, fresh timestamps and regenerated markdown. With replace, existing
// snippets are cleared first; otherwise snippets whose title is already
// taken are skipped.
func (s *Service) Import(ctx context.Context, r io.Reader, replace bool) (ImportReport, error) {
	b, err := DecodeBundle(r)
	if err != nil {
		return ImportReport{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if replace {
		if err := s.repo.Clear(ctx); err != nil {
			return ImportReport{}, err
		}
	}

	existing, err := s.repo.LoadAll(ctx)
	if err != nil {
		return ImportReport{}, err
	}

	report := ImportReport{Skipped: []string{}}
	for _, in := range b.Snippets {
		if strings.TrimSpace(in.Title) == "" {
			s.logger.Warn("skipping snippet without title")
			report.Skipped = append(report.Skipped, in.Title)
			continue
		}
		if !replace && hasTitle(existing, in.Title, "") {
			s.logger.Warn("skipping duplicate snippet", slog.String("title", in.Title))
			report.Skipped = append(report.Skipped, in.Title)
			continue
		}

		ts := s.now().UnixMilli()
		sn := Snippet{
			ID:          s.newID(),
			Title:       in.Title,
			Description: in.Description,
			Code:        in.Code,
			Language:    language(in.Language),
			Tags:        normalizeTags(in.Tags),
			CreatedAt:   ts,
			UpdatedAt:   ts,
		}
		sn.Markdown = RenderMarkdown(sn.Title, sn.Description, sn.Language, sn.Code)

		if err := s.repo.Save(ctx, sn.ID, sn); err != nil {
			return report, err
		}
		existing = append(existing, sn)
		report.Imported++
	}

	s.logger.Info("snippets imported",
		slog.Int("imported", report.Imported),
		slog.Int("skipped", len(report.Skipped)),
		slog.Bool("replace", replace))
	return report, nil
}

// ExportFilename is the default file name for a bundle exported on day t.
func ExportFilename(t time.Time) string {
	return "codepit-snippets-" + t.UTC().Format("2006-01-02") + ".json"
}
