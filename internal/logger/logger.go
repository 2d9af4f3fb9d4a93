package logger

import (
	"fmt"
	"io"
	"log"
)

type Logger struct {
	traceLogger *log.Logger
	debugLogger *log.Logger
	infoLogger  *log.Logger
	warnLogger  *log.Logger
	errorLogger *log.Logger
}

func (l *Logger) Trace(v ...any) {
	if l.traceLogger != nil {
		_ = l.traceLogger.Output(2, fmt.Sprintln(v...))
	}
}

func (l *Logger) Debug(v ...any) {
	if l.debugLogger != nil {
		_ = l.debugLogger.Output(2, fmt.Sprintln(v...))
	}
}

func (l *Logger) Info(v ...any) {
	if l.infoLogger != nil {
		_ = l.infoLogger.Output(2, fmt.Sprintln(v...))
	}
}

func (l *Logger) Warn(v ...any) {
	if l.warnLogger != nil {
		_ = l.warnLogger.Output(2, fmt.Sprintln(v...))
	}
}

func (l *Logger) Error(v ...any) {
	if l.errorLogger != nil {
		_ = l.errorLogger.Output(2, fmt.Sprintln(v...))
	}
}

func (l *Logger) Tracef(format string, v ...any) {
	if l.traceLogger != nil {
		_ = l.traceLogger.Output(2, fmt.Sprintf(format, v...))
	}
}

func (l *Logger) Debugf(format string, v ...any) {
	if l.debugLogger != nil {
		_ = l.debugLogger.Output(2, fmt.Sprintf(format, v...))
	}
}

func (l *Logger) Infof(format string, v ...any) {
	if l.infoLogger != nil {
		_ = l.infoLogger.Output(2, fmt.Sprintf(format, v...))
	}
}

func (l *Logger) Warnf(format string, v ...any) {
	if l.warnLogger != nil {
		_ = l.warnLogger.Output(2, fmt.Sprintf(format, v...))
	}
}

func (l *Logger) Errorf(format string, v ...any) {
	if l.errorLogger != nil {
		_ = l.errorLogger.Output(2, fmt.Sprintf(format, v...))
	}
}

// NewLogger creates a Logger that discards everything above the given Level.
func NewLogger(level Level, output io.Writer) *Logger {
	l := &Logger{}
	flag := log.LstdFlags | log.Lshortfile

	if level >= LevelTrace {
		l.traceLogger = log.New(output, "TRACE:", flag)
	}
	if level >= LevelDebug {
		l.debugLogger = log.New(output, "DEBUG:", flag)
	}
	if level >= LevelInfo {
		l.infoLogger = log.New(output, "INFO :", flag)
	}
	if level >= LevelWarn {
		l.warnLogger = log.New(output, "WARN :", flag)
	}
	if level >= LevelError {
		l.errorLogger = log.New(output, "ERROR:", flag)
	}

	return l
}
