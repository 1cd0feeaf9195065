package logging

import (
	"fmt"
	"io"
	"sync"
)

type writerLogger struct {
	mu    sync.Mutex
	w     io.Writer
	level Level
}

// NewWriterLogger returns a Logger that writes one redacted line per
// message to w. It backs the verbose console mirror; persistent logging
// goes through the file logger.
func NewWriterLogger(w io.Writer, level Level) Logger {
	return &writerLogger{w: w, level: level}
}

func (l *writerLogger) log(level Level, format string, args ...any) {
	if level < l.level || l.w == nil {
		return
	}
	line := fmt.Sprintf("%s %s", levelString(level), fmt.Sprintf(format, args...))

	l.mu.Lock()
	defer l.mu.Unlock()
	_, _ = fmt.Fprintln(l.w, redactLine(line))
}

func (l *writerLogger) Debug(format string, args ...any) {
	l.log(LevelDebug, format, args...)
}

func (l *writerLogger) Info(format string, args ...any) {
	l.log(LevelInfo, format, args...)
}

func (l *writerLogger) Warn(format string, args ...any) {
	l.log(LevelWarn, format, args...)
}

func (l *writerLogger) Error(format string, args ...any) {
	l.log(LevelError, format, args...)
}
