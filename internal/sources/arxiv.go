// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package sources

import (
	"context"
	"encoding/xml"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/pdiddy/deep-research/internal/httputil"
	"github.com/pdiddy/deep-research/pkg/types"
)

// arxivAPIBase is the arXiv search endpoint. Declared as a var so tests
// can substitute an httptest server.
var arxivAPIBase = "https://export.arxiv.org/api/query"

const defaultMaxPapers = 3

// Arxiv offers paper abstracts from the arXiv API as sources.
type Arxiv struct {
	Client     *http.Client
	UserAgent  string
	MaxRetries int

	// MaxPapers caps the abstracts returned per query (default 3).
	MaxPapers int

	// MaxChars truncates each abstract (default 500).
	MaxChars int
}

// NewArxiv builds a backend from the sources settings.
func NewArxiv(cfg types.SourcesConfig) *Arxiv {
	return &Arxiv{
		Client:     &http.Client{Timeout: cfg.Timeout},
		UserAgent:  cfg.UserAgent,
		MaxRetries: cfg.MaxRetries,
		MaxPapers:  cfg.MaxPapers,
		MaxChars:   cfg.MaxContentChars,
	}
}

// Name returns the backend identifier.
func (a *Arxiv) Name() string { return "arxiv" }

// Search returns the most relevant abstracts for query. An empty feed is
// not an error.
func (a *Arxiv) Search(ctx context.Context, query string) ([]types.Source, error) {
	terms := strings.Fields(query)
	if len(terms) == 0 {
		return nil, fmt.Errorf("empty arXiv query")
	}
	maxPapers := a.MaxPapers
	if maxPapers <= 0 {
		maxPapers = defaultMaxPapers
	}
	maxChars := a.MaxChars
	if maxChars <= 0 {
		maxChars = defaultMaxContentChars
	}

	for i, t := range terms {
		terms[i] = url.QueryEscape(t)
	}
	u := fmt.Sprintf("%s?search_query=all:%s&start=0&max_results=%d&sortBy=relevance&sortOrder=descending",
		arxivAPIBase, strings.Join(terms, "+AND+all:"), maxPapers)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	if a.UserAgent != "" {
		req.Header.Set("User-Agent", a.UserAgent)
	}

	resp, err := httputil.DoWithRetry(ctx, a.Client, req, a.MaxRetries)
	if err != nil {
		return nil, fmt.Errorf("arXiv API request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("arXiv API returned HTTP %d", resp.StatusCode)
	}

	var feed arxivFeed
	if err := xml.NewDecoder(resp.Body).Decode(&feed); err != nil {
		return nil, fmt.Errorf("parsing arXiv response: %w", err)
	}

	var out []types.Source
	for _, entry := range feed.Entries {
		id := extractArxivID(entry.ID)
		if id == "" {
			continue
		}
		title := strings.Join(strings.Fields(entry.Title), " ")
		abstract := strings.Join(strings.Fields(entry.Summary), " ")
		out = append(out, types.Source{
			Label:   fmt.Sprintf("arXiv %s: %s", id, title),
			Content: truncate(abstract, maxChars),
		})
		if len(out) == maxPapers {
			break
		}
	}
	return out, nil
}

// arXiv Atom feed XML structures.
type arxivFeed struct {
	Entries []arxivEntry `xml:"entry"`
}

type arxivEntry struct {
	ID      string `xml:"id"`
	Title   string `xml:"title"`
	Summary string `xml:"summary"`
}

// extractArxivID pulls the arXiv ID from the entry's <id> URL
// (e.g. "http://arxiv.org/abs/2301.07041v1" becomes "2301.07041").
func extractArxivID(idURL string) string {
	const prefix = "/abs/"
	idx := strings.Index(idURL, prefix)
	if idx < 0 {
		return ""
	}
	id := idURL[idx+len(prefix):]

	if vIdx := strings.LastIndex(id, "v"); vIdx > 0 {
		if _, err := strconv.Atoi(id[vIdx+1:]); err == nil {
			id = id[:vIdx]
		}
	}
	return id
}
