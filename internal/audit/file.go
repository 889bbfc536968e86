// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package audit

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/pdiddy/deep-research/pkg/types"
)

// maxLineBytes bounds a single audit line; finalized events embed full reports.
const maxLineBytes = 16 << 20

// FileSink appends events as JSON lines to a file.
type FileSink struct {
	mu sync.Mutex
	f  *os.File
}

// NewFileSink opens path for appending, creating it and its directory as needed.
func NewFileSink(path string) (*FileSink, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("creating audit directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("opening audit log: %w", err)
	}
	return &FileSink{f: f}, nil
}

// Record writes ev as one line. Each line is written with a single call
// under the sink's lock, so concurrent sessions never interleave.
func (s *FileSink) Record(_ context.Context, ev types.AuditEvent) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshaling audit event: %w", err)
	}
	data = append(data, '\n')

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.f.Write(data); err != nil {
		return fmt.Errorf("writing audit event: %w", err)
	}
	return nil
}

// Close closes the underlying file.
func (s *FileSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.f.Close()
}

// ReadHistory returns the events in a JSON-lines audit file, in file order.
// A missing file yields no events. Lines that fail to parse are skipped and
// counted in the second return value.
func ReadHistory(path string) ([]types.AuditEvent, int, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, 0, nil
		}
		return nil, 0, fmt.Errorf("opening audit log: %w", err)
	}
	defer f.Close()

	var events []types.AuditEvent
	skipped := 0
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), maxLineBytes)
	for sc.Scan() {
		line := sc.Bytes()
		if len(line) == 0 {
			continue
		}
		var ev types.AuditEvent
		if err := json.Unmarshal(line, &ev); err != nil {
			skipped++
			continue
		}
		events = append(events, ev)
	}
	if err := sc.Err(); err != nil {
		return events, skipped, fmt.Errorf("reading audit log: %w", err)
	}
	return events, skipped, nil
}

// FilterSession returns the events belonging to sessionID, in order.
func FilterSession(events []types.AuditEvent, sessionID string) []types.AuditEvent {
	var out []types.AuditEvent
	for _, ev := range events {
		if ev.SessionID == sessionID {
			out = append(out, ev)
		}
	}
	return out
}
