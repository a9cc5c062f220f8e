package snippet

import (
	"sort"
	"strings"

	"github.com/caffeineduck/codepit/executor"
)

// SortOrder selects how search results are ordered.
type SortOrder string

const (
	SortNewest SortOrder = "newest"
	SortOldest SortOrder = "oldest"
	SortTitle  SortOrder = "title"
)

// ParseSortOrder maps a query parameter to a SortOrder, defaulting to
// SortNewest.
func ParseSortOrder(s string) SortOrder {
	switch SortOrder(strings.ToLower(strings.TrimSpace(s))) {
	case SortOldest:
		return SortOldest
	case SortTitle:
		return SortTitle
	default:
		return SortNewest
	}
}

// Query filters and orders a snippet listing. An empty Language or "all"
// matches every language.
type Query struct {
	Text     string
	Language executor.Language
	Sort     SortOrder
}

// Search returns the snippets matching q. The input slice is not modified.
//
// Text is split on whitespace and every term must appear, case-insensitively,
// in a tag, the title, the description or the language.
func Search(all []Snippet, q Query) []Snippet {
	terms := strings.Fields(strings.ToLower(strings.TrimSpace(q.Text)))
	lang := strings.ToLower(strings.TrimSpace(string(q.Language)))

	out := make([]Snippet, 0, len(all))
	for _, s := range all {
		if lang != "" && lang != "all" && string(s.Language) != lang {
			continue
		}
		if !matchesAll(s, terms) {
			continue
		}
		out = append(out, s)
	}

	switch q.Sort {
	case SortOldest:
		sort.SliceStable(out, func(i, j int) bool { return out[i].UpdatedAt < out[j].UpdatedAt })
	case SortTitle:
		sort.SliceStable(out, func(i, j int) bool {
			return strings.ToLower(out[i].Title) < strings.ToLower(out[j].Title)
		})
	default:
		sort.SliceStable(out, func(i, j int) bool { return out[i].UpdatedAt > out[j].UpdatedAt })
	}
	return out
}

func matchesAll(s Snippet, terms []string) bool {
	if len(terms) == 0 {
		return true
	}
	title := strings.ToLower(s.Title)
	desc := strings.ToLower(s.Description)
	lang := strings.ToLower(string(s.Language))
	tags := make([]string, len(s.Tags))
	for i, t := range s.Tags {
		tags[i] = strings.ToLower(t)
	}

	for _, term := range terms {
		if strings.Contains(title, term) || strings.Contains(desc, term) || strings.Contains(lang, term) {
			continue
		}
		found := false
		for _, tag := range tags {
			if strings.Contains(tag, term) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}
