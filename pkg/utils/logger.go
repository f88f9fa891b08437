package utils

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

// LogLevel represents the verbosity level of logging
type LogLevel int

const (
	ErrorLevel LogLevel = iota
	WarningLevel
	InfoLevel
	DebugLevel
	TraceLevel
)

func (l LogLevel) logrus() logrus.Level {
	switch l {
	case ErrorLevel:
		return logrus.ErrorLevel
	case WarningLevel:
		return logrus.WarnLevel
	case InfoLevel:
		return logrus.InfoLevel
	case DebugLevel:
		return logrus.DebugLevel
	default:
		return logrus.TraceLevel
	}
}

// Logger is a leveled printf-style logger with indentation, backed by logrus
type Logger struct {
	Level      LogLevel
	Prefix     string
	IndentSize int
	indent     int // Current indentation level
	base       *logrus.Logger
	closer     io.Closer
}

// NewLogger creates a new logger with the specified verbosity level
func NewLogger(level LogLevel) *Logger {
	base := logrus.New()
	base.SetOutput(os.Stderr)
	base.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:          true,
		TimestampFormat:        "15:04:05.000",
		DisableLevelTruncation: true,
	})
	base.SetLevel(level.logrus())

	return &Logger{
		Level:      level,
		IndentSize: 2,
		base:       base,
	}
}

// NewFileLogger creates a new logger that writes to a file
func NewFileLogger(level LogLevel, filename string) (*Logger, error) {
	file, err := os.Create(filename)
	if err != nil {
		return nil, err
	}

	l := NewLogger(level)
	l.base.SetOutput(file)
	l.base.SetFormatter(&logrus.TextFormatter{
		DisableColors:   true,
		FullTimestamp:   true,
		TimestampFormat: "15:04:05.000",
	})
	l.closer = file
	return l, nil
}

// Close releases the log file, if any
func (l *Logger) Close() error {
	if l.closer == nil {
		return nil
	}
	err := l.closer.Close()
	l.closer = nil
	return err
}

// SetOutput sets the output writer
func (l *Logger) SetOutput(w io.Writer) {
	l.base.SetOutput(w)
}

// SetLevel changes the verbosity
func (l *Logger) SetLevel(level LogLevel) {
	l.Level = level
	l.base.SetLevel(level.logrus())
}

// SetPrefix sets a prefix for all log messages
func (l *Logger) SetPrefix(prefix string) {
	l.Prefix = prefix
}

// Indent increases the indentation level
func (l *Logger) Indent() {
	l.indent++
}

// Outdent decreases the indentation level
func (l *Logger) Outdent() {
	if l.indent > 0 {
		l.indent--
	}
}

// log logs a message at the specified level
func (l *Logger) log(level LogLevel, format string, args ...interface{}) {
	if level > l.Level {
		return
	}

	var builder strings.Builder
	if l.Prefix != "" {
		builder.WriteString(l.Prefix)
		builder.WriteString(": ")
	}
	if l.indent > 0 {
		builder.WriteString(strings.Repeat(" ", l.indent*l.IndentSize))
	}
	builder.WriteString(fmt.Sprintf(format, args...))

	l.base.Log(level.logrus(), builder.String())
}

// Error logs an error message
func (l *Logger) Error(format string, args ...interface{}) {
	l.log(ErrorLevel, format, args...)
}

// Warning logs a warning message
func (l *Logger) Warning(format string, args ...interface{}) {
	l.log(WarningLevel, format, args...)
}

// Info logs an informational message
func (l *Logger) Info(format string, args ...interface{}) {
	l.log(InfoLevel, format, args...)
}

// Debug logs a debug message
func (l *Logger) Debug(format string, args ...interface{}) {
	l.log(DebugLevel, format, args...)
}

// Trace logs a trace message (highest verbosity)
func (l *Logger) Trace(format string, args ...interface{}) {
	l.log(TraceLevel, format, args...)
}

// Header logs the start of a processing step and resets indentation
func (l *Logger) Header(format string, args ...interface{}) {
	l.indent = 0
	l.log(InfoLevel, "== "+format+" ==", args...)
}

// ABC logs one line of optimizer output
func (l *Logger) ABC(format string, args ...interface{}) {
	l.log(InfoLevel, "ABC: "+format, args...)
}

// DefaultLogger is the default logger instance
var DefaultLogger = NewLogger(InfoLevel)
