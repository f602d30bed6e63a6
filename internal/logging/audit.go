package logging

import (
	"time"

	"go.uber.org/zap"
)

// AuditEventType is the closed taxonomy of graph/provider/store events worth
// recording outside the regular zap log stream. Grounded on the teacher's
// AuditEventType constants (internal/logging/audit.go), trimmed to this
// domain's actual lifecycle.
type AuditEventType string

const (
	AuditSessionStart   AuditEventType = "session_start"
	AuditSessionEnd     AuditEventType = "session_end"
	AuditNodeEnter      AuditEventType = "node_enter"
	AuditNodeExit       AuditEventType = "node_exit"
	AuditProviderCall   AuditEventType = "provider_call"
	AuditProviderError  AuditEventType = "provider_error"
	AuditPersistenceErr AuditEventType = "persistence_error"
	AuditMaxCycles      AuditEventType = "max_cycles_exceeded"
)

// AuditEvent is a structured record of one notable orchestration occurrence.
type AuditEvent struct {
	Timestamp time.Time
	EventType AuditEventType
	SessionID string
	TaskID    string
	Node      string
	Success   bool
	DurationMs int64
	Message   string
}

// Audit emits an AuditEvent through the "audit" category logger as
// structured fields, rather than a formatted string.
func Audit(ev AuditEvent) {
	l := Category("audit")
	l.Info(string(ev.EventType),
		zap.Time("timestamp", ev.Timestamp),
		zap.String("session_id", ev.SessionID),
		zap.String("task_id", ev.TaskID),
		zap.String("node", ev.Node),
		zap.Bool("success", ev.Success),
		zap.Int64("duration_ms", ev.DurationMs),
		zap.String("message", ev.Message),
	)
}
