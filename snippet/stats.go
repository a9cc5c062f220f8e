package snippet

import (
	"math"
	"sort"
	"unicode/utf8"

	"github.com/caffeineduck/codepit/executor"
)

// LanguageStat summarizes the snippets written in one language.
type LanguageStat struct {
	Language   executor.Language `json:"language"`
	Count      int               `json:"count"`
	Percentage float64           `json:"percentage"`
	TotalChars int               `json:"totalChars"`
	AvgChars   int               `json:"avgChars"`
}

// ComputeStats groups snippets by language, most used first.
func ComputeStats(all []Snippet) []LanguageStat {
	if len(all) == 0 {
		return []LanguageStat{}
	}

	byLang := make(map[executor.Language]*LanguageStat)
	for _, s := range all {
		st, ok := byLang[s.Language]
		if !ok {
			st = &LanguageStat{Language: s.Language}
			byLang[s.Language] = st
		}
		st.Count++
		st.TotalChars += utf8.RuneCountInString(s.Code)
	}

	stats := make([]LanguageStat, 0, len(byLang))
	for _, st := range byLang {
		st.Percentage = float64(st.Count) / float64(len(all)) * 100
		st.AvgChars = int(math.Round(float64(st.TotalChars) / float64(st.Count)))
		stats = append(stats, *st)
	}

	sort.Slice(stats, func(i, j int) bool {
		if stats[i].Count != stats[j].Count {
			return stats[i].Count > stats[j].Count
		}
		return stats[i].Language < stats[j].Language
	})
	return stats
}
