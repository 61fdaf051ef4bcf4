// Package quickopen provides the fuzzy matcher and item model behind the
// quick-open overlay: filter a set of files (or other labeled items) by a
// typed query and rank the matches.
package quickopen

import (
	"strings"
	"unicode"
)

// Scoring weights. Matches on word boundaries and consecutive runs dominate
// scattered matches; a query that lands entirely in the basename of a path
// beats one spread across directories.
const (
	bonusBoundary    = 8
	bonusConsecutive = 4
	bonusCaseMatch   = 1
	bonusBasename    = 16
	penaltyGap       = 1
)

// Match reports whether query is a subsequence of candidate (ignoring case)
// and the score of the best greedy alignment. Higher is better. An empty
// query matches everything with score 0.
func Match(query, candidate string) (int, bool) {
	if query == "" {
		return 0, true
	}

	qr := []rune(query)
	cr := []rune(candidate)
	if len(qr) > len(cr) {
		return 0, false
	}

	score := 0
	qi := 0
	lastMatch := -2
	for ci := 0; ci < len(cr) && qi < len(qr); ci++ {
		if !runesEqualFold(qr[qi], cr[ci]) {
			if qi > 0 {
				score -= penaltyGap
			}
			continue
		}

		if isBoundary(cr, ci) {
			score += bonusBoundary
		}
		if ci == lastMatch+1 {
			score += bonusConsecutive
		}
		if qr[qi] == cr[ci] {
			score += bonusCaseMatch
		}
		lastMatch = ci
		qi++
	}
	if qi < len(qr) {
		return 0, false
	}
	return score, true
}

// MatchPath scores query against a slash-separated path. The whole path is
// matched, but a query that also matches the basename alone earns an extra
// bonus so "buf" ranks editor/buffer.go above some/buf/deep/other.go.
func MatchPath(query, path string) (int, bool) {
	score, ok := Match(query, path)
	if !ok {
		return 0, false
	}
	if base := baseName(path); base != path {
		if baseScore, ok := Match(query, base); ok {
			score += baseScore + bonusBasename
		}
	}
	return score, true
}

func baseName(path string) string {
	if i := strings.LastIndexByte(path, '/'); i >= 0 {
		return path[i+1:]
	}
	return path
}

// isBoundary reports whether position i starts a word: the first rune, a rune
// after a separator, or an upper-case rune after a lower-case one.
func isBoundary(cr []rune, i int) bool {
	if i == 0 {
		return true
	}
	prev := cr[i-1]
	switch prev {
	case '/', '\\', '_', '-', '.', ' ':
		return true
	}
	return unicode.IsUpper(cr[i]) && unicode.IsLower(prev)
}

func runesEqualFold(a, b rune) bool {
	return a == b || unicode.ToLower(a) == unicode.ToLower(b)
}
