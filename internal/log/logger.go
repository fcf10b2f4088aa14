package log

import (
	"fmt"
	"io"
	stdlog "log"
	"os"
	"strings"
	"sync/atomic"
)

type Level int32

const (
	Debug Level = iota
	Info
	Warn
	Error
)

func (l Level) String() string {
	switch l {
	case Debug:
		return "DEBUG"
	case Info:
		return "INFO"
	case Warn:
		return "WARN"
	case Error:
		return "ERROR"
	default:
		return "INFO"
	}
}

var current atomic.Int32

func init() { current.Store(int32(Info)) }

func ParseLevel(s string) Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return Debug
	case "info", "":
		return Info
	case "warn", "warning":
		return Warn
	case "err", "error":
		return Error
	default:
		return Info
	}
}

func SetLevel(l Level)    { current.Store(int32(l)) }
func CurrentLevel() Level { return Level(current.Load()) }

// SetOutput redirects all log output, mainly for tests.
func SetOutput(w io.Writer) { stdlog.SetOutput(w) }

func enabled(l Level) bool { return Level(current.Load()) <= l }

func logf(l Level, prefix, format string, v ...any) {
	if !enabled(l) {
		return
	}
	stdlog.Printf("["+l.String()+"] "+prefix+format, v...)
}

func Debugf(format string, v ...any) { logf(Debug, "", format, v...) }
func Infof(format string, v ...any)  { logf(Info, "", format, v...) }
func Warnf(format string, v ...any)  { logf(Warn, "", format, v...) }
func Errorf(format string, v ...any) { logf(Error, "", format, v...) }

// InitFromEnvFallback sets the level from cfgLevel unless SIDELAUNCHER_LOG_LEVEL is set.
func InitFromEnvFallback(cfgLevel string) {
	if env := os.Getenv("SIDELAUNCHER_LOG_LEVEL"); env != "" {
		cfgLevel = env
	}
	SetLevel(ParseLevel(cfgLevel))
}

// Logger is the printf-style contract components depend on.
type Logger interface {
	Debug(format string, args ...any)
	Info(format string, args ...any)
	Warn(format string, args ...any)
	Error(format string, args ...any)
}

type componentLogger struct{ prefix string }

// New returns a Logger that tags every line with [component].
func New(component string) Logger {
	if component == "" {
		return componentLogger{}
	}
	return componentLogger{prefix: fmt.Sprintf("[%s] ", component)}
}

func (c componentLogger) Debug(format string, args ...any) { logf(Debug, c.prefix, format, args...) }
func (c componentLogger) Info(format string, args ...any)  { logf(Info, c.prefix, format, args...) }
func (c componentLogger) Warn(format string, args ...any)  { logf(Warn, c.prefix, format, args...) }
func (c componentLogger) Error(format string, args ...any) { logf(Error, c.prefix, format, args...) }

type nopLogger struct{}

func (nopLogger) Debug(string, ...any) {}
func (nopLogger) Info(string, ...any)  {}
func (nopLogger) Warn(string, ...any)  {}
func (nopLogger) Error(string, ...any) {}

// Nop returns a logger that discards everything.
func Nop() Logger { return nopLogger{} }

// OrNop returns l, or a no-op logger when l is nil.
func OrNop(l Logger) Logger {
	if l == nil {
		return Nop()
	}
	return l
}
