package logging

import "time"

// Level identifies the severity of a log entry.
type Level string

const (
	LevelDebug   Level = "debug"
	LevelInfo    Level = "info"
	LevelWarning Level = "warning"
	LevelError   Level = "error"
)

// LogEntry is one structured log line.
type LogEntry struct {
	Timestamp time.Time
	Level     Level
	Message   string
	Context   map[string]string
}
