// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package research

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"go.yaml.in/yaml/v3"
)

// QueryFile is the on-disk form of a batch: the queries to research and,
// optionally, the iteration cap and user to run them with.
type QueryFile struct {
	Queries       []string `yaml:"queries"`
	MaxIterations int      `yaml:"max_iterations,omitempty"`
	User          string   `yaml:"user,omitempty"`
}

// ErrNoQueries is returned for a query file with no non-blank queries.
var ErrNoQueries = errors.New("no queries")

// ReadQueryFile loads a batch query file. Both a mapping with a queries key
// and a bare YAML list of strings are accepted. Blank queries are dropped.
func ReadQueryFile(path string) (*QueryFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading query file: %w", err)
	}

	var qf QueryFile
	if err := yaml.Unmarshal(data, &qf); err != nil {
		var list []string
		if lerr := yaml.Unmarshal(data, &list); lerr != nil {
			return nil, fmt.Errorf("parsing query file: %w", err)
		}
		qf = QueryFile{Queries: list}
	}

	kept := qf.Queries[:0]
	for _, q := range qf.Queries {
		if q = strings.TrimSpace(q); q != "" {
			kept = append(kept, q)
		}
	}
	qf.Queries = kept
	if len(qf.Queries) == 0 {
		return nil, fmt.Errorf("%s: %w", path, ErrNoQueries)
	}
	return &qf, nil
}

// WriteQueryFile saves a batch query file.
func WriteQueryFile(path string, qf QueryFile) error {
	data, err := yaml.Marshal(&qf)
	if err != nil {
		return fmt.Errorf("marshaling query file: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}
