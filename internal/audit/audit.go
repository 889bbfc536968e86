// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package audit records the stages of each research session as append-only
// events. A Recorder fans events out to one or more sinks (JSON-lines file,
// SQLite, structured log); sink failures are logged and never reach the
// research loop.
package audit

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/pdiddy/deep-research/pkg/types"
)

// Stage names written by the research loop.
const (
	StageSessionStart     = "session.start"
	StagePreprocess       = "preprocess"
	StageInitialSources   = "sources.initial"
	StageIterationStart   = "iteration.start"
	StageSynthesis        = "synthesis"
	StageEvaluation       = "evaluation"
	StageAugmentation     = "augmentation"
	StageSessionFinalized = "session.finalized"
	StageSessionFailed    = "session.failed"
)

// Metadata keys with typed values that sinks may inspect.
const (
	MetaQuery  = "query"
	MetaUser   = "user"
	MetaResult = "result"
	MetaError  = "error"
)

// Sink persists audit events. Implementations must be safe for concurrent use.
type Sink interface {
	Record(ctx context.Context, ev types.AuditEvent) error
}

// Recorder delivers events to every sink. It never returns an error.
type Recorder struct {
	sinks  []Sink
	logger *zap.Logger
	now    func() time.Time
}

// NewRecorder returns a Recorder over sinks. logger may be nil.
func NewRecorder(logger *zap.Logger, sinks ...Sink) *Recorder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Recorder{sinks: sinks, logger: logger, now: time.Now}
}

// Emit timestamps ev when unset and writes it to each sink. Sink failures
// are logged at warn level and otherwise ignored.
func (r *Recorder) Emit(ctx context.Context, ev types.AuditEvent) {
	if ev.Timestamp.IsZero() {
		ev.Timestamp = r.now().UTC()
	}
	for _, s := range r.sinks {
		if err := s.Record(ctx, ev); err != nil {
			r.logger.Warn("audit write failed",
				zap.String("session_id", ev.SessionID),
				zap.String("stage", ev.Stage),
				zap.Error(err))
		}
	}
}

// Session is the audit context of one research loop. It is owned by the loop
// that opened it and is not safe for concurrent use.
type Session struct {
	ID    string
	Query string
	User  string
	Start time.Time

	rec    *Recorder
	end    time.Time
	result *types.Result
	err    error
}

// Open starts a session with a fresh identifier and emits the start event.
func (r *Recorder) Open(ctx context.Context, query, user string) *Session {
	s := &Session{
		ID:    "session_" + uuid.NewString(),
		Query: query,
		User:  user,
		Start: r.now().UTC(),
		rec:   r,
	}
	r.Emit(ctx, types.AuditEvent{
		Timestamp: s.Start,
		SessionID: s.ID,
		Stage:     StageSessionStart,
		Detail:    fmt.Sprintf("query: %s, user: %s", query, user),
		Metadata:  map[string]any{MetaQuery: query, MetaUser: user},
	})
	return s
}

// Event emits one stage event for the session.
func (s *Session) Event(ctx context.Context, stage, detail string, metadata map[string]any) {
	s.rec.Emit(ctx, types.AuditEvent{
		SessionID: s.ID,
		Stage:     stage,
		Detail:    detail,
		Metadata:  metadata,
	})
}

// Finalize closes the session with its result.
func (s *Session) Finalize(ctx context.Context, result *types.Result) {
	s.end = s.rec.now().UTC()
	s.result = result
	s.rec.Emit(ctx, types.AuditEvent{
		Timestamp: s.end,
		SessionID: s.ID,
		Stage:     StageSessionFinalized,
		Detail: fmt.Sprintf("iterations: %d, effectiveness: %d, sources: %d",
			result.Iterations, result.Evaluation.Effectiveness, result.SourceCount),
		Metadata: map[string]any{MetaResult: result},
	})
}

// Fail closes the session with the error that terminated the loop.
// Context cancellation does not prevent the event from being written.
func (s *Session) Fail(ctx context.Context, err error) {
	s.end = s.rec.now().UTC()
	s.err = err
	s.rec.Emit(context.WithoutCancel(ctx), types.AuditEvent{
		Timestamp: s.end,
		SessionID: s.ID,
		Stage:     StageSessionFailed,
		Detail:    err.Error(),
		Metadata:  map[string]any{MetaError: err.Error()},
	})
}

// Record returns the session summary.
func (s *Session) Record() types.SessionRecord {
	rec := types.SessionRecord{
		SessionID: s.ID,
		Query:     s.Query,
		User:      s.User,
		StartTime: s.Start,
		EndTime:   s.end,
		Result:    s.result,
	}
	if s.err != nil {
		rec.Error = s.err.Error()
	}
	return rec
}
