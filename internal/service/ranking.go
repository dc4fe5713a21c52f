package service

import (
	"sort"
	"strings"

	"okenna/streamtube/internal/domain"
)

// stopWords are dropped from search queries before scoring.
var stopWords = map[string]struct{}{
	"a": {}, "an": {}, "and": {}, "are": {}, "as": {}, "at": {}, "be": {},
	"but": {}, "by": {}, "for": {}, "how": {}, "i": {}, "if": {}, "in": {},
	"into": {}, "is": {}, "it": {}, "its": {}, "no": {}, "not": {}, "of": {},
	"on": {}, "or": {}, "such": {}, "that": {}, "the": {}, "their": {},
	"then": {}, "there": {}, "these": {}, "they": {}, "this": {}, "to": {},
	"was": {}, "what": {}, "when": {}, "where": {}, "which": {}, "who": {},
	"will": {}, "with": {}, "you": {}, "your": {},
}

// ScoredVideo is a feed candidate with its relevance scores. The description
// count is computed alongside the title count but does not participate in
// ordering.
type ScoredVideo struct {
	domain.VideoWithOwner
	TitleMatchCount       int
	DescriptionMatchCount int
}

// SearchTerms lowercases and whitespace-normalizes a query, splits it into
// tokens and drops stop words. Duplicate tokens collapse to one term.
func SearchTerms(query string) []string {
	seen := map[string]struct{}{}
	terms := []string{}
	for _, token := range strings.Fields(strings.ToLower(query)) {
		if _, stop := stopWords[token]; stop {
			continue
		}
		if _, dup := seen[token]; dup {
			continue
		}
		seen[token] = struct{}{}
		terms = append(terms, token)
	}
	return terms
}

func matchCount(terms []string, text string) int {
	tokens := map[string]struct{}{}
	for _, token := range strings.Fields(strings.ToLower(text)) {
		tokens[token] = struct{}{}
	}
	n := 0
	for _, term := range terms {
		if _, ok := tokens[term]; ok {
			n++
		}
	}
	return n
}

// RankVideos scores candidates against the prepared terms and orders them by
// title match count descending. Candidates must already be in the feed's
// default order (creation time descending); the sort is stable so ties keep
// that order. With no terms the default order survives untouched.
func RankVideos(terms []string, candidates []domain.VideoWithOwner) []ScoredVideo {
	scored := make([]ScoredVideo, len(candidates))
	for i, c := range candidates {
		scored[i] = ScoredVideo{
			VideoWithOwner:        c,
			TitleMatchCount:       matchCount(terms, c.Title),
			DescriptionMatchCount: matchCount(terms, c.Description),
		}
	}
	if len(terms) == 0 {
		return scored
	}
	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].TitleMatchCount > scored[j].TitleMatchCount
	})
	return scored
}
