package snippet

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/caffeineduck/codepit/store"
)

// Prefix namespaces snippet keys in the store.
const Prefix = "codepit:snippet:"

// Repository persists snippets as JSON under Prefix+id.
type Repository struct {
	kv store.KV
}

func NewRepository(kv store.KV) *Repository {
	return &Repository{kv: kv}
}

func (r *Repository) Save(ctx context.Context, id string, s Snippet) error {
	data, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("marshal snippet: %w", err)
	}
	if err := r.kv.Set(ctx, Prefix+id, data); err != nil {
		return fmt.Errorf("save snippet: %w", err)
	}
	return nil
}

func (r *Repository) Get(ctx context.Context, id string) (Snippet, error) {
	data, err := r.kv.Get(ctx, Prefix+id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return Snippet{}, ErrNotFound
		}
		return Snippet{}, fmt.Errorf("load snippet: %w", err)
	}

	var s Snippet
	if err := json.Unmarshal(data, &s); err != nil {
		return Snippet{}, fmt.Errorf("unmarshal snippet: %w", err)
	}
	return s, nil
}

func (r *Repository) Delete(ctx context.Context, id string) error {
	if err := r.kv.Delete(ctx, Prefix+id); err != nil {
		return fmt.Errorf("delete snippet: %w", err)
	}
	return nil
}

// LoadAll returns every snippet, most recently updated first.
func (r *Repository) LoadAll(ctx context.Context) ([]Snippet, error) {
	keys, err := r.kv.Keys(ctx, Prefix)
	if err != nil {
		return nil, fmt.Errorf("list snippets: %w", err)
	}

	snippets := make([]Snippet, 0, len(keys))
	for _, key := range keys {
		s, err := r.Get(ctx, strings.TrimPrefix(key, Prefix))
		if errors.Is(err, ErrNotFound) {
			// deleted between Keys and Get
			continue
		}
		if err != nil {
			return nil, err
		}
		snippets = append(snippets, s)
	}

	sort.SliceStable(snippets, func(i, j int) bool {
		return snippets[i].UpdatedAt > snippets[j].UpdatedAt
	})
	return snippets, nil
}

// Clear deletes every snippet. Other keys in the store are untouched.
func (r *Repository) Clear(ctx context.Context) error {
	keys, err := r.kv.Keys(ctx, Prefix)
	if err != nil {
		return fmt.Errorf("list snippets: %w", err)
	}
	for _, key := range keys {
		if err := r.kv.Delete(ctx, key); err != nil {
			return fmt.Errorf("clear snippets: %w", err)
		}
	}
	return nil
}
