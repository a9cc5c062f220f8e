package snippet

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/caffeineduck/codepit/executor"
	"github.com/caffeineduck/codepit/store"
	"github.com/google/uuid"
)

// Service is the entry point for snippet operations. Writes that check
// title uniqueness are serialized so two concurrent adds cannot both claim
// the same title.
type Service struct {
	repo      *Repository
	revisions *Revisions
	now       func() time.Time
	newID     func() string
	logger    *slog.Logger

	mu sync.Mutex
}

// Option configures a Service.
type Option func(*Service)

// WithClock overrides the time source used for timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
		s.revisions.now = now
	}
}

// WithIDGenerator overrides how snippet and revision IDs are generated.
func WithIDGenerator(newID func() string) Option {
	return func(s *Service) {
		s.newID = newID
		s.revisions.newID = newID
	}
}

// WithLogger sets the service logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// NewService returns a Service storing snippets and revisions in kv.
func NewService(kv store.KV, opts ...Option) *Service {
	s := &Service{
		repo:      NewRepository(kv),
		revisions: NewRevisions(kv),
		now:       time.Now,
		newID:     uuid.NewString,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Repository exposes the underlying persistence layer.
func (s *Service) Repository() *Repository {
	return s.repo
}

// Get returns one snippet.
func (s *Service) Get(ctx context.Context, id string) (Snippet, error) {
	return s.repo.Get(ctx, id)
}

// List returns the snippets matching q.
func (s *Service) List(ctx context.Context, q Query) ([]Snippet, error) {
	all, err := s.repo.LoadAll(ctx)
	if err != nil {
		return nil, err
	}
	return Search(all, q), nil
}

// FindDuplicateTitle reports whether another snippet already uses title,
// ignoring case. excludeID skips the snippet being edited.
func (s *Service) FindDuplicateTitle(ctx context.Context, title, excludeID string) (bool, error) {
	if title == "" {
		return false, nil
	}
	all, err := s.repo.LoadAll(ctx)
	if err != nil {
		return false, err
	}
	return hasTitle(all, title, excludeID), nil
}

// Add stores a new snippet with a fresh ID and timestamps.
func (s *Service) Add(ctx context.Context, d Draft) (Snippet, error) {
	if strings.TrimSpace(d.Title) == "" {
		return Snippet{}, ErrTitleRequired
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	dup, err := s.FindDuplicateTitle(ctx, d.Title, "")
	if err != nil {
		return Snippet{}, err
	}
	if dup {
		return Snippet{}, ErrDuplicateTitle
	}

	ts := s.now().UnixMilli()
	sn := Snippet{
		ID:          s.newID(),
		Title:       d.Title,
		Description: d.Description,
		Code:        d.Code,
		Language:    language(d.Language),
		Tags:        normalizeTags(d.Tags),
		CreatedAt:   ts,
		UpdatedAt:   ts,
	}
	sn.Markdown = RenderMarkdown(sn.Title, sn.Description, sn.Language, sn.Code)

	if err := s.repo.Save(ctx, sn.ID, sn); err != nil {
		return Snippet{}, err
	}
	s.logger.Debug("snippet added", slog.String("id", sn.ID), slog.String("language", string(sn.Language)))
	return sn, nil
}

// Update applies p to snippet id, bumps UpdatedAt and records a revision
// of the resulting code and description.
func (s *Service) Update(ctx context.Context, id string, p Patch) (Snippet, error) {
	if p.Title != nil && strings.TrimSpace(*p.Title) == "" {
		return Snippet{}, ErrTitleRequired
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	sn, err := s.repo.Get(ctx, id)
	if err != nil {
		return Snippet{}, err
	}

	if p.Title != nil {
		dup, err := s.FindDuplicateTitle(ctx, *p.Title, id)
		if err != nil {
			return Snippet{}, err
		}
		if dup {
			return Snippet{}, ErrDuplicateTitle
		}
	}

	p.apply(&sn)
	sn.Language = language(sn.Language)
	sn.Markdown = RenderMarkdown(sn.Title, sn.Description, sn.Language, sn.Code)
	sn.UpdatedAt = s.now().UnixMilli()

	if err := s.repo.Save(ctx, id, sn); err != nil {
		return Snippet{}, err
	}
	if _, err := s.revisions.Save(ctx, id, sn.Code, sn.Description); err != nil {
		return Snippet{}, err
	}
	return sn, nil
}

// Delete removes a snippet and its revision history.
func (s *Service) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.repo.Get(ctx, id); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	return s.revisions.Drop(ctx, id)
}

// Revisions returns the history of a snippet, newest first.
func (s *Service) Revisions(ctx context.Context, id string) ([]Revision, error) {
	if _, err := s.repo.Get(ctx, id); err != nil {
		return nil, err
	}
	return s.revisions.List(ctx, id)
}

// SaveRevision records the current code and description of a snippet
// without changing it.
func (s *Service) SaveRevision(ctx context.Context, id string) (Revision, error) {
	sn, err := s.repo.Get(ctx, id)
	if err != nil {
		return Revision{}, err
	}
	return s.revisions.Save(ctx, id, sn.Code, sn.Description)
}

// RestoreRevision puts a revision's code and description back onto the
// snippet. The restore itself becomes the newest revision.
func (s *Service) RestoreRevision(ctx context.Context, id, revisionID string) (Snippet, error) {
	rev, err := s.revisions.Find(ctx, id, revisionID)
	if err != nil {
		return Snippet{}, err
	}
	return s.Update(ctx, id, Patch{Code: &rev.Code, Description: &rev.Description})
}

// Stats returns per-language statistics over all snippets.
func (s *Service) Stats(ctx context.Context) ([]LanguageStat, error) {
	all, err := s.repo.LoadAll(ctx)
	if err != nil {
		return nil, err
	}
	return ComputeStats(all), nil
}

// Clear deletes every snippet.
func (s *Service) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.repo.Clear(ctx)
}

// IsNotFound reports whether err means a snippet or revision is missing.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound) || errors.Is(err, ErrRevisionNotFound)
}

func hasTitle(all []Snippet, title, excludeID string) bool {
	for _, sn := range all {
		if sn.ID != excludeID && sameTitle(sn.Title, title) {
			return true
		}
	}
	return false
}

func language(l executor.Language) executor.Language {
	if l == "" {
		return executor.JavaScript
	}
	return executor.Parse(string(l))
}
