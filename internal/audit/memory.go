// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package audit

import (
	"context"
	"sync"

	"github.com/pdiddy/deep-research/pkg/types"
)

// Memory keeps events in process memory.
type Memory struct {
	mu     sync.Mutex
	events []types.AuditEvent
}

// Record appends ev.
func (m *Memory) Record(_ context.Context, ev types.AuditEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, ev)
	return nil
}

// Events returns a copy of the recorded events in arrival order.
func (m *Memory) Events() []types.AuditEvent {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]types.AuditEvent(nil), m.events...)
}

// Stages returns the stage of every event recorded for sessionID, in order.
func (m *Memory) Stages(sessionID string) []string {
	var out []string
	for _, ev := range m.Events() {
		if ev.SessionID == sessionID {
			out = append(out, ev.Stage)
		}
	}
	return out
}

// Count returns how many events have the given stage.
func (m *Memory) Count(stage string) int {
	n := 0
	for _, ev := range m.Events() {
		if ev.Stage == stage {
			n++
		}
	}
	return n
}
