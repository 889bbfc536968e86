// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package sources

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/pdiddy/deep-research/pkg/types"
)

const defaultMaxContentChars = 500

// LocalFiles searches .txt and .md files in a directory for the query text.
type LocalFiles struct {
	Dir      string
	MaxChars int
}

// Name returns the backend identifier.
func (l *LocalFiles) Name() string { return "local" }

// Search returns every file whose content contains query, case-insensitively,
// in filename order. A missing directory yields no sources and no error.
// Unreadable files are skipped and reported in the returned error alongside
// the sources that were read.
func (l *LocalFiles) Search(ctx context.Context, query string) ([]types.Source, error) {
	entries, err := os.ReadDir(l.Dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading data directory %s: %w", l.Dir, err)
	}

	maxChars := l.MaxChars
	if maxChars <= 0 {
		maxChars = defaultMaxContentChars
	}

	sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })

	needle := strings.ToLower(query)
	var out []types.Source
	var errs []error
	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return out, err
		}
		name := entry.Name()
		if entry.IsDir() || !(strings.HasSuffix(name, ".txt") || strings.HasSuffix(name, ".md")) {
			continue
		}

		data, err := os.ReadFile(filepath.Join(l.Dir, name))
		if err != nil {
			errs = append(errs, fmt.Errorf("reading %s: %w", name, err))
			continue
		}
		content := string(data)
		if !strings.Contains(strings.ToLower(content), needle) {
			continue
		}
		out = append(out, types.Source{
			Label:   "Local file: " + name,
			Content: truncate(content, maxChars),
		})
	}
	return out, errors.Join(errs...)
}

// truncate cuts s to at most max runes, marking the cut with "...".
func truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max]) + "..."
}
