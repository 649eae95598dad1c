// Package logger provides the leveled logging used across scantag.
package logger

import (
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"sync"
)

// Level orders message severity. Messages below the current level are
// dropped.
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

var (
	mu      sync.Mutex
	current = LevelInfo

	// Errors go to stderr so progress output on stdout stays clean.
	sinks = [...]*log.Logger{
		LevelDebug: log.New(os.Stdout, "[DEBUG] ", log.LstdFlags),
		LevelInfo:  log.New(os.Stdout, "[INFO] ", log.LstdFlags),
		LevelWarn:  log.New(os.Stdout, "[WARN] ", log.LstdFlags),
		LevelError: log.New(os.Stderr, "[ERROR] ", log.LstdFlags),
	}
)

// Init picks up SCANTAG_LOG_LEVEL from the environment. The --log-level
// flag, applied later through SetLevel, overrides it.
func Init() {
	if env := os.Getenv("SCANTAG_LOG_LEVEL"); env != "" {
		SetLevel(env)
	}
}

// SetOutput redirects all levels to w, used by tests to capture output.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	for _, l := range sinks {
		l.SetOutput(w)
	}
}

// SetLevel sets the log level by name; unknown names fall back to info.
func SetLevel(name string) {
	mu.Lock()
	defer mu.Unlock()
	switch strings.ToLower(name) {
	case "debug":
		current = LevelDebug
	case "warn", "warning":
		current = LevelWarn
	case "error":
		current = LevelError
	default:
		current = LevelInfo
	}
}

func emit(lv Level, format string, v ...interface{}) {
	mu.Lock()
	enabled := lv >= current
	mu.Unlock()
	if enabled {
		sinks[lv].Output(3, fmt.Sprintf(format, v...))
	}
}

// Debug logs a debug message.
func Debug(format string, v ...interface{}) { emit(LevelDebug, format, v...) }

// Info logs an info message.
func Info(format string, v ...interface{}) { emit(LevelInfo, format, v...) }

// Warn logs a warning message.
func Warn(format string, v ...interface{}) { emit(LevelWarn, format, v...) }

// Error logs an error message.
func Error(format string, v ...interface{}) { emit(LevelError, format, v...) }
