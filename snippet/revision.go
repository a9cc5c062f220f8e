package snippet

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/caffeineduck/codepit/store"
	"github.com/google/uuid"
)

const revisionPrefix = "revisions:"

// Revision is a saved version of a snippet's code and description.
type Revision struct {
	ID          string `json:"id"`
	SnippetID   string `json:"snippetId"`
	Code        string `json:"code"`
	Description string `json:"description"`
	Timestamp   int64  `json:"timestamp"`
	Author      string `json:"author,omitempty"`
}

// Revisions keeps the history of each snippet as one JSON list stored
// under revisions:<snippetID>.
type Revisions struct {
	kv    store.KV
	now   func() time.Time
	newID func() string
	mu    sync.Mutex
}

func NewRevisions(kv store.KV) *Revisions {
	return &Revisions{kv: kv, now: time.Now, newID: uuid.NewString}
}

// Save appends a revision for snippetID.
func (r *Revisions) Save(ctx context.Context, snippetID, code, description string) (Revision, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	revisions, err := r.load(ctx, snippetID)
	if err != nil {
		return Revision{}, err
	}

	rev := Revision{
		ID:          r.newID(),
		SnippetID:   snippetID,
		Code:        code,
		Description: description,
		Timestamp:   r.now().UnixMilli(),
	}
	revisions = append(revisions, rev)

	data, err := json.Marshal(revisions)
	if err != nil {
		return Revision{}, fmt.Errorf("marshal revisions: %w", err)
	}
	if err := r.kv.Set(ctx, revisionPrefix+snippetID, data); err != nil {
		return Revision{}, fmt.Errorf("save revision: %w", err)
	}
	return rev, nil
}

// List returns the revisions of snippetID, newest first.
func (r *Revisions) List(ctx context.Context, snippetID string) ([]Revision, error) {
	revisions, err := r.load(ctx, snippetID)
	if err != nil {
		return nil, err
	}
	// reversed first so revisions saved within the same millisecond
	// still come out newest first
	slices.Reverse(revisions)
	sort.SliceStable(revisions, func(i, j int) bool {
		return revisions[i].Timestamp > revisions[j].Timestamp
	})
	return revisions, nil
}

// Find returns one revision or ErrRevisionNotFound.
func (r *Revisions) Find(ctx context.Context, snippetID, revisionID string) (Revision, error) {
	revisions, err := r.load(ctx, snippetID)
	if err != nil {
		return Revision{}, err
	}
	for _, rev := range revisions {
		if rev.ID == revisionID {
			return rev, nil
		}
	}
	return Revision{}, ErrRevisionNotFound
}

// Drop removes the whole history of snippetID.
func (r *Revisions) Drop(ctx context.Context, snippetID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.kv.Delete(ctx, revisionPrefix+snippetID); err != nil {
		return fmt.Errorf("delete revisions: %w", err)
	}
	return nil
}

func (r *Revisions) load(ctx context.Context, snippetID string) ([]Revision, error) {
	data, err := r.kv.Get(ctx, revisionPrefix+snippetID)
	if errors.Is(err, store.ErrNotFound) {
		return []Revision{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load revisions: %w", err)
	}

	var revisions []Revision
	if err := json.Unmarshal(data, &revisions); err != nil {
		return nil, fmt.Errorf("unmarshal revisions: %w", err)
	}
	return revisions, nil
}
