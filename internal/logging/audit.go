package logging

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// AuditEventType names one kind of task mutation.
type AuditEventType string

const (
	AuditTaskCreate   AuditEventType = "task_create"
	AuditTaskUpdate   AuditEventType = "task_update"
	AuditTaskToggle   AuditEventType = "task_toggle"
	AuditTaskDelete   AuditEventType = "task_delete"
	AuditTaskClear    AuditEventType = "task_clear"
	AuditWeekReset    AuditEventType = "week_reset"
	AuditMarkerUpdate AuditEventType = "marker_update"
	AuditPersistError AuditEventType = "persist_error"
)

// AuditEvent is one line of audit.jsonl.
type AuditEvent struct {
	EventType AuditEventType
	TaskID    string
	Day       int
	Count     int
	Success   bool
	Error     string
	Message   string
	Duration  time.Duration
}

var (
	auditMu     sync.Mutex
	auditFile   *os.File
	auditLogger *zap.Logger
)

// auditEnabled mirrors the category switch: audit follows the store category.
func auditEnabled() bool {
	return IsCategoryEnabled(CategoryStore)
}

func openAuditLocked() (*zap.Logger, error) {
	if auditLogger != nil {
		return auditLogger, nil
	}
	configMu.RLock()
	dir := logsDir
	configMu.RUnlock()
	if dir == "" {
		return nil, fmt.Errorf("logging not initialized")
	}

	f, err := os.OpenFile(filepath.Join(dir, "audit.jsonl"), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, err
	}
	enc := zap.NewProductionEncoderConfig()
	enc.TimeKey = "ts"
	enc.EncodeTime = zapcore.EpochMillisTimeEncoder
	enc.LevelKey = ""
	enc.CallerKey = ""
	enc.StacktraceKey = ""
	core := zapcore.NewCore(zapcore.NewJSONEncoder(enc), zapcore.AddSync(f), zapcore.DebugLevel)

	auditFile = f
	auditLogger = zap.New(core)
	return auditLogger, nil
}

// Audit appends an event to the audit trail. No-op when the store category is off.
func Audit(e AuditEvent) {
	if !auditEnabled() {
		return
	}

	auditMu.Lock()
	defer auditMu.Unlock()

	l, err := openAuditLocked()
	if err != nil {
		fmt.Fprintf(os.Stderr, "[logging] Warning: could not open audit log: %v\n", err)
		return
	}

	fields := []zap.Field{
		zap.String("event", string(e.EventType)),
		zap.Bool("success", e.Success),
	}
	if e.TaskID != "" {
		fields = append(fields, zap.String("task", e.TaskID), zap.Int("day", e.Day))
	}
	if e.Count != 0 {
		fields = append(fields, zap.Int("count", e.Count))
	}
	if e.Error != "" {
		fields = append(fields, zap.String("error", e.Error))
	}
	if e.Duration > 0 {
		fields = append(fields, zap.Int64("dur_ms", e.Duration.Milliseconds()))
	}
	l.Info(e.Message, fields...)
}

func closeAudit() {
	auditMu.Lock()
	defer auditMu.Unlock()

	if auditLogger != nil {
		_ = auditLogger.Sync()
		auditLogger = nil
	}
	if auditFile != nil {
		auditFile.Close()
		auditFile = nil
	}
}
