// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package preprocess classifies a research query into a category and
// extracts the capitalized entities it mentions. It makes no external calls
// and never fails.
package preprocess

import (
	"regexp"
	"strings"

	"github.com/pdiddy/deep-research/pkg/types"
)

// categoryKeywords lists, in priority order, the substrings that select each
// category. Matching is case-insensitive; the first category with a hit wins.
var categoryKeywords = []struct {
	category string
	keywords []string
}{
	{types.CategoryEducation, []string{"education", "educación", "educacion"}},
	{types.CategoryHealth, []string{"health", "salud"}},
	{types.CategoryTechnology, []string{"technology", "tecnología", "tecnologia"}},
	{types.CategoryEconomy, []string{"economy", "economía", "economia"}},
}

// entityPattern matches a single capitalized ASCII word such as "Colombia".
var entityPattern = regexp.MustCompile(`\b[A-Z][a-z]+\b`)

// Query returns the category and entities for query.
func Query(query string) types.Preprocessing {
	return types.Preprocessing{
		Category: Category(query),
		Entities: Entities(query),
	}
}

// Category returns the first category whose keyword appears in query, or
// types.CategoryGeneral.
func Category(query string) string {
	lower := strings.ToLower(query)
	for _, c := range categoryKeywords {
		for _, kw := range c.keywords {
			if strings.Contains(lower, kw) {
				return c.category
			}
		}
	}
	return types.CategoryGeneral
}

// Entities returns the capitalized words of query in order of appearance.
// Duplicates are kept. The result is never nil.
func Entities(query string) []string {
	matches := entityPattern.FindAllString(query, -1)
	if matches == nil {
		return []string{}
	}
	return matches
}
