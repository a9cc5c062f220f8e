package executor

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// Factory constructs the Executor for one language.
type Factory func() (Executor, error)

// Registry maps languages to lazily constructed, memoized Executors.
// Lookups normalize the language first, so TypeScript resolves to the
// JavaScript executor.
type Registry struct {
	mu        sync.RWMutex
	factories map[Language]Factory
	executors map[Language]Executor
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{
		factories: make(map[Language]Factory),
		executors: make(map[Language]Executor),
	}
}

// Register installs the factory for lang, replacing any existing one.
// A previously built executor for lang is dropped.
func (r *Registry) Register(lang Language, f Factory) {
	lang = Normalize(lang)
	r.mu.Lock()
	r.factories[lang] = f
	delete(r.executors, lang)
	r.mu.Unlock()
}

// IsLanguageSupported reports whether lang has an executor in this registry.
func (r *Registry) IsLanguageSupported(lang Language) bool {
	lang = Normalize(lang)
	r.mu.RLock()
	_, ok := r.factories[lang]
	r.mu.RUnlock()
	return ok
}

// Executor returns the memoized executor for lang, constructing it on first
// use. It returns ErrUnsupportedLanguage when no factory is registered.
func (r *Registry) Executor(lang Language) (Executor, error) {
	lang = Normalize(lang)

	r.mu.RLock()
	if exec, ok := r.executors[lang]; ok {
		r.mu.RUnlock()
		return exec, nil
	}
	r.mu.RUnlock()

	r.mu.Lock()
	defer r.mu.Unlock()

	if exec, ok := r.executors[lang]; ok {
		return exec, nil
	}

	factory, ok := r.factories[lang]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedLanguage, lang)
	}

	exec, err := factory()
	if err != nil {
		return nil, fmt.Errorf("create %s executor: %w", lang, err)
	}

	r.executors[lang] = exec
	return exec, nil
}

// Languages lists the executable languages, including aliases that
// normalize onto a registered executor.
func (r *Registry) Languages() []Language {
	var out []Language
	for _, lang := range knownLanguages {
		if r.IsLanguageSupported(lang) {
			out = append(out, lang)
		}
	}
	r.mu.RLock()
	for lang := range r.factories {
		if !lang.Known() {
			out = append(out, lang)
		}
	}
	r.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Closer is implemented by executors that hold runtime resources.
type Closer interface {
	Close(ctx context.Context) error
}

// Cleanup drops every constructed executor, closing those that implement
// Closer. Factories stay registered, so the next lookup builds a fresh
// executor. Intended for tests and resets.
func (r *Registry) Cleanup() {
	r.mu.Lock()
	old := r.executors
	r.executors = make(map[Language]Executor)
	r.mu.Unlock()

	for _, exec := range old {
		if c, ok := exec.(Closer); ok {
			_ = c.Close(context.Background())
		}
	}
}
