// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package audit

import (
	"context"

	"go.uber.org/zap"

	"github.com/pdiddy/deep-research/pkg/types"
)

// LogSink mirrors audit events to a structured logger. Metadata is omitted;
// the finalized result is too large for a log line.
type LogSink struct {
	logger *zap.Logger
}

// NewLogSink returns a sink writing to logger at info level.
func NewLogSink(logger *zap.Logger) *LogSink {
	return &LogSink{logger: logger}
}

// Record logs ev.
func (s *LogSink) Record(_ context.Context, ev types.AuditEvent) error {
	s.logger.Info(ev.Stage,
		zap.String("session_id", ev.SessionID),
		zap.String("detail", ev.Detail),
		zap.Time("at", ev.Timestamp))
	return nil
}
