package utils

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// ErrInvalidInput marks malformed discovery input (empty normalized name or
// domain). Surfaced immediately, never retried.
var ErrInvalidInput = errors.New("invalid input")

// Candidate is one generated address with the naming convention that produced
// it and its total weight (static frequency plus situational boosts).
type Candidate struct {
	Email   string `json:"email"`
	Pattern string `json:"pattern"`
	Weight  int    `json:"weight"`
}

type patternTemplate struct {
	id     string
	weight int
	build  func(f, l string) string
}

// Naming templates ordered by observed real-world frequency. The static
// weights feed the scorer's pattern bonus; changing them requires re-deriving
// the scorer's rescale divisor.
var patternTemplates = []patternTemplate{
	{"first.last", 33, func(f, l string) string { return f + "." + l }},
	{"first", 15, func(f, l string) string { return f }},
	{"flast", 13, func(f, l string) string { return f[:1] + l }},
	{"firstlast", 10, func(f, l string) string { return f + l }},
	{"first_last", 5, func(f, l string) string { return f + "_" + l }},
	{"f.last", 5, func(f, l string) string { return f[:1] + "." + l }},
	{"last.first", 4, func(f, l string) string { return l + "." + f }},
	{"firstl", 3, func(f, l string) string { return f + l[:1] }},
	{"last", 3, func(f, l string) string { return l }},
	{"lastfirst", 2, func(f, l string) string { return l + f }},
	{"last_first", 2, func(f, l string) string { return l + "_" + f }},
	{"lastf", 2, func(f, l string) string { return l + f[:1] }},
	{"last.f", 1, func(f, l string) string { return l + "." + f[:1] }},
	{"first-last", 1, func(f, l string) string { return f + "-" + l }},
	{"f_last", 1, func(f, l string) string { return f[:1] + "_" + l }},
	{"first.l", 1, func(f, l string) string { return f + "." + l[:1] }},
}

var patternIndex = func() map[string]patternTemplate {
	m := make(map[string]patternTemplate, len(patternTemplates))
	for _, t := range patternTemplates {
		m[t.id] = t
	}
	return m
}()

const (
	detectedPatternBoost = 50
	providerPatternBoost = 20
)

// GeneratePatterns synthesizes weighted candidate addresses for a person at a
// domain. A website-detected pattern is added first with a boost that outranks
// any static weight, provider-preferred patterns follow with a smaller boost,
// then the full template table at static weights. Candidates are unique by
// address and sorted by weight descending, stable relative to table order.
func GeneratePatterns(firstName, lastName, domain, detectedPattern string, providerPatterns []string) ([]Candidate, error) {
	f := normalizeNameToken(firstName, false)
	l := normalizeNameToken(lastName, true)
	d := strings.ToLower(strings.TrimSpace(domain))

	if f == "" || l == "" || d == "" {
		return nil, fmt.Errorf("%w: first name, last name, and domain are required", ErrInvalidInput)
	}

	seen := make(map[string]bool)
	var candidates []Candidate

	add := func(t patternTemplate, extraWeight int) {
		email := t.build(f, l) + "@" + d
		if seen[email] {
			return
		}
		seen[email] = true
		candidates = append(candidates, Candidate{
			Email:   email,
			Pattern: t.id,
			Weight:  t.weight + extraWeight,
		})
	}

	if t, ok := patternIndex[detectedPattern]; ok {
		add(t, detectedPatternBoost)
	}
	for _, id := range providerPatterns {
		if t, ok := patternIndex[id]; ok {
			add(t, providerPatternBoost)
		}
	}
	for _, t := range patternTemplates {
		add(t, 0)
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Weight > candidates[j].Weight
	})
	return candidates, nil
}

// normalizeNameToken takes the first whitespace token of a first name (or the
// last token of a last name), strips non-letters, and lower-cases.
func normalizeNameToken(name string, takeLast bool) string {
	fields := strings.Fields(strings.ToLower(name))
	if len(fields) == 0 {
		return ""
	}
	token := fields[0]
	if takeLast {
		token = fields[len(fields)-1]
	}
	var sb strings.Builder
	for _, r := range token {
		if r >= 'a' && r <= 'z' {
			sb.WriteRune(r)
		}
	}
	return sb.String()
}
