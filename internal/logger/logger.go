package logger

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/fatih/color"
)

// Level is the severity of a log line.
type Level string

const (
	LevelDebug Level = "DEBUG"
	LevelInfo  Level = "INFO"
	LevelWarn  Level = "WARN"
	LevelError Level = "ERROR"
	LevelFatal Level = "FATAL"
)

var palette = map[Level]color.Attribute{
	LevelDebug: color.FgCyan,
	LevelInfo:  color.FgGreen,
	LevelWarn:  color.FgYellow,
	LevelError: color.FgRed,
	LevelFatal: color.FgRed,
}

type entry struct {
	Timestamp string `json:"timestamp"`
	Level     Level  `json:"level"`
	Category  string `json:"category"`
	Message   string `json:"message"`
	File      string `json:"file,omitempty"`
	Line      int    `json:"line,omitempty"`
}

// Logger writes colored lines to the terminal and JSON lines to a dated file
// under logs/. Categories are free-form tags like ORDER or KAFKA.
type Logger struct {
	file *os.File
}

func NewLogger() *Logger {
	if err := os.MkdirAll("logs", 0755); err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logs directory: %v\n", err)
		os.Exit(1)
	}

	name := fmt.Sprintf("logs/marketplace-%s.log", time.Now().Format("2006-01-02"))
	file, err := os.OpenFile(name, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to open log file: %v\n", err)
		os.Exit(1)
	}

	l := &Logger{file: file}
	l.Info("LOGGER", fmt.Sprintf("logging to %s", name))
	return l
}

func (l *Logger) emit(level Level, category, message string) {
	e := entry{
		Timestamp: time.Now().UTC().Format("2006-01-02T15:04:05.000Z"),
		Level:     level,
		Category:  strings.ToUpper(category),
		Message:   message,
	}
	if _, file, line, ok := runtime.Caller(2); ok {
		e.File = filepath.Base(file)
		e.Line = line
	}

	fmt.Print(l.renderLine(e))

	if l.file != nil {
		if jsonBytes, err := json.Marshal(e); err == nil {
			l.file.Write(append(jsonBytes, '\n'))
		}
	}
}

func (l *Logger) renderLine(e entry) string {
	attr, ok := palette[e.Level]
	if !ok {
		attr = color.FgWhite
	}

	clock := color.New(color.FgBlue).Sprint(e.Timestamp[11:19])
	level := color.New(attr).Sprintf("%-5s", e.Level)
	tag := color.New(attr, color.Bold).Sprintf("[%-10s]", e.Category)

	line := fmt.Sprintf("%s %s %s %s", clock, level, tag, e.Message)
	if e.File != "" {
		line += color.New(color.FgMagenta).Sprintf(" (%s:%d)", e.File, e.Line)
	}
	return line + "\n"
}

func (l *Logger) Debug(category, message string) { l.emit(LevelDebug, category, message) }
func (l *Logger) Info(category, message string)  { l.emit(LevelInfo, category, message) }
func (l *Logger) Warn(category, message string)  { l.emit(LevelWarn, category, message) }
func (l *Logger) Error(category, message string) { l.emit(LevelError, category, message) }

func (l *Logger) Fatal(category, message string) {
	l.emit(LevelFatal, category, message)
	l.Close()
	os.Exit(1)
}

// Domain helpers keep call sites terse and the category set consistent.

func (l *Logger) LogOrder(action, orderID, message string) {
	l.Info("ORDER", fmt.Sprintf("[%s] %s - %s", action, orderID, message))
}

func (l *Logger) LogInventory(action, ticketTypeID, message string) {
	l.Info("INVENTORY", fmt.Sprintf("[%s] %s - %s", action, ticketTypeID, message))
}

func (l *Logger) LogKafka(action, topic, message string) {
	l.Info("KAFKA", fmt.Sprintf("[%s] %s - %s", action, topic, message))
}

func (l *Logger) LogDatabase(operation, table, message string) {
	l.Info("DATABASE", fmt.Sprintf("[%s] %s - %s", operation, table, message))
}

func (l *Logger) LogWorkflow(action, entityID, message string) {
	l.Info("WORKFLOW", fmt.Sprintf("[%s] %s - %s", action, entityID, message))
}

func (l *Logger) Close() {
	if l.file != nil {
		l.file.Close()
		l.file = nil
	}
}
