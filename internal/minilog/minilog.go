// Package minilog extends the standard log package to allow multiple named
// sinks, each with its own severity filter. Call AddLogger for each sink
// (typically "stdio" and, if a logfile directive is set, "file"), then use
// the package-level Debug/Info/Warn/Error/Fatal functions everywhere else.
package minilog

import (
	"fmt"
	"io"
	golog "log"
	"os"
	"path/filepath"
	"runtime"
	"sync"
)

type sink struct {
	log   *golog.Logger
	level Level
}

var (
	mu    sync.RWMutex
	sinks = make(map[string]*sink)
)

// AddLogger registers a named sink. Adding a logger under a name that
// already exists replaces it.
func AddLogger(name string, output io.Writer, level Level) {
	mu.Lock()
	defer mu.Unlock()

	sinks[name] = &sink{
		log:   golog.New(output, "", golog.LstdFlags),
		level: level,
	}
}

// DelLogger removes a named sink.
func DelLogger(name string) {
	mu.Lock()
	defer mu.Unlock()

	delete(sinks, name)
}

// SetLevel changes the severity filter for a named sink.
func SetLevel(name string, level Level) error {
	mu.Lock()
	defer mu.Unlock()

	s, ok := sinks[name]
	if !ok {
		return fmt.Errorf("no such logger: %v", name)
	}
	s.level = level
	return nil
}

// WillLog reports whether logging at level would reach any registered sink.
// Callers with an expensive-to-format message can skip formatting entirely
// when this returns false.
func WillLog(level Level) bool {
	mu.RLock()
	defer mu.RUnlock()

	for _, s := range sinks {
		if s.level <= level {
			return true
		}
	}
	return false
}

func dispatch(level Level, format string, arg ...interface{}) {
	mu.RLock()
	defer mu.RUnlock()

	if len(sinks) == 0 {
		return
	}

	prefix := prologue(level)
	msg := prefix + fmt.Sprintf(format, arg...)
	for _, s := range sinks {
		if s.level <= level {
			s.log.Output(4, msg)
		}
	}
}

func prologue(level Level) string {
	tag := level.String()
	_, file, line, ok := runtime.Caller(3)
	if !ok {
		return fmt.Sprintf("%s: ", tag)
	}
	short := filepath.Base(file)
	return fmt.Sprintf("%s %s:%d: ", tag, short, line)
}

func Debug(format string, arg ...interface{}) { dispatch(DEBUG, format, arg...) }
func Info(format string, arg ...interface{})  { dispatch(INFO, format, arg...) }
func Warn(format string, arg ...interface{})  { dispatch(WARN, format, arg...) }
func Error(format string, arg ...interface{}) { dispatch(ERROR, format, arg...) }

// Fatal logs at FATAL to every sink and terminates the process. Used for
// the abort-on-OOM, bad-config and corrupt-snapshot paths.
func Fatal(format string, arg ...interface{}) {
	dispatch(FATAL, format, arg...)
	os.Exit(1)
}

// InitStdio is a convenience used by cmd/minikv-server to wire up the
// default stderr sink before config is parsed, so early config errors
// are still logged somewhere.
func InitStdio(level Level) {
	AddLogger("stdio", os.Stderr, level)
}

// InitFile adds a file sink, creating parent directories as needed. Backs
// the "logfile" config directive: "stdout" is handled by the caller, who
// should call InitStdio instead.
func InitFile(path string, level Level) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_APPEND|os.O_CREATE, 0660)
	if err != nil {
		return err
	}
	AddLogger("file", f, level)
	return nil
}
