package telemetry

import (
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// Logger is the structured event log shared by the game core.
type Logger interface {
	Debug(msg string, fields map[string]any)
	Info(msg string, fields map[string]any)
	Warn(msg string, fields map[string]any)
	Error(msg string, fields map[string]any)
}

type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "debug"
	case LevelWarn:
		return "warn"
	case LevelError:
		return "error"
	default:
		return "info"
	}
}

func ParseLevel(raw string) Level {
	switch raw {
	case "debug":
		return LevelDebug
	case "warn":
		return LevelWarn
	case "error":
		return LevelError
	default:
		return LevelInfo
	}
}

type sink struct {
	mu  sync.Mutex
	w   io.WriteCloser
	min Level
	now func() time.Time
}

// JSONLogger writes one JSON object per line. Loggers derived with With share
// the same writer.
type JSONLogger struct {
	out  *sink
	base map[string]any
}

func NewJSONLogger(path string, min Level) (*JSONLogger, error) {
	if path == "" {
		return NewWriterLogger(nopCloser{Writer: io.Discard}, min), nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, err
	}
	return NewWriterLogger(f, min), nil
}

func NewWriterLogger(w io.WriteCloser, min Level) *JSONLogger {
	return &JSONLogger{out: &sink{w: w, min: min, now: time.Now}}
}

// Nop discards everything.
func Nop() *JSONLogger {
	return NewWriterLogger(nopCloser{Writer: io.Discard}, LevelError+1)
}

// With returns a logger that adds fields to every entry.
func (l *JSONLogger) With(fields map[string]any) *JSONLogger {
	if l == nil {
		return nil
	}
	merged := make(map[string]any, len(l.base)+len(fields))
	for k, v := range l.base {
		merged[k] = v
	}
	for k, v := range fields {
		merged[k] = v
	}
	return &JSONLogger{out: l.out, base: merged}
}

func (l *JSONLogger) Debug(msg string, fields map[string]any) { l.log(LevelDebug, msg, fields) }
func (l *JSONLogger) Info(msg string, fields map[string]any)  { l.log(LevelInfo, msg, fields) }
func (l *JSONLogger) Warn(msg string, fields map[string]any)  { l.log(LevelWarn, msg, fields) }
func (l *JSONLogger) Error(msg string, fields map[string]any) { l.log(LevelError, msg, fields) }

func (l *JSONLogger) log(level Level, msg string, fields map[string]any) {
	if l == nil || l.out == nil || l.out.w == nil || level < l.out.min {
		return
	}
	entry := make(map[string]any, len(l.base)+len(fields)+3)
	for k, v := range l.base {
		entry[k] = v
	}
	for k, v := range fields {
		if err, ok := v.(error); ok {
			v = err.Error()
		}
		entry[k] = v
	}
	entry["ts"] = l.out.now().UTC().Format(time.RFC3339Nano)
	entry["level"] = level.String()
	entry["msg"] = msg
	b, err := json.Marshal(entry)
	if err != nil {
		b, _ = json.Marshal(map[string]any{"level": "error", "msg": "log.marshal_failed", "event": msg, "error": err.Error()})
	}
	l.out.mu.Lock()
	defer l.out.mu.Unlock()
	_, _ = l.out.w.Write(append(b, '\n'))
}

func (l *JSONLogger) Close() error {
	if l == nil || l.out == nil || l.out.w == nil {
		return nil
	}
	return l.out.w.Close()
}

type nopCloser struct{ io.Writer }

func (nopCloser) Close() error { return nil }

var _ Logger = (*JSONLogger)(nil)
