// Package common provides shared utilities for dns-mcp.
package common

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"maps"
	"os"
	"slices"
	"strings"
	"time"

	"github.com/phuslu/log"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/arbor/models"
	"github.com/ternarybob/arbor/writers"
)

// Log formats accepted by LoggingConfig.Format.
const (
	FormatText = "text"
	FormatJSON = "json"
)

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level      string   `toml:"level" env:"DNS_MCP_LOG_LEVEL"`
	Format     string   `toml:"format" env:"DNS_MCP_LOG_FORMAT"`
	Outputs    []string `toml:"outputs" env:"DNS_MCP_LOG_OUTPUTS"`
	FilePath   string   `toml:"file_path" env:"DNS_MCP_LOG_FILE"`
	MaxSizeMB  int      `toml:"max_size_mb"`
	MaxBackups int      `toml:"max_backups"`
}

// ValidateFormat reports whether Format names a supported log format.
// An empty format means text.
func (c LoggingConfig) ValidateFormat() error {
	switch strings.ToLower(c.Format) {
	case "", FormatText, FormatJSON:
		return nil
	}
	return fmt.Errorf("unsupported log format %q (want %s or %s)", c.Format, FormatText, FormatJSON)
}

func (c LoggingConfig) jsonFormat() bool {
	return strings.EqualFold(c.Format, FormatJSON)
}

// Logger wraps arbor.ILogger to provide a consistent interface
type Logger struct {
	arbor.ILogger
}

// discardWriter implements writers.IWriter and discards all output.
type discardWriter struct{}

func (w *discardWriter) Write(p []byte) (int, error)           { return len(p), nil }
func (w *discardWriter) WithLevel(_ log.Level) writers.IWriter { return w }
func (w *discardWriter) GetFilePath() string                   { return "" }
func (w *discardWriter) Close() error                          { return nil }

// streamWriter is an arbor IWriter over a plain io.Writer. Events arrive as
// JSON; in text mode they are flattened to "message key=value" lines with
// keys sorted and the correlation id last, in JSON mode they are passed through one per line.
type streamWriter struct {
	out   io.Writer
	json  bool
	level log.Level
}

func (w *streamWriter) Write(p []byte) (int, error) {
	var evt models.LogEvent
	if err := json.Unmarshal(p, &evt); err != nil {
		return w.out.Write(p)
	}
	if evt.Level < w.level {
		return len(p), nil
	}
	if w.json {
		line := append(bytes.TrimRight(bytes.Clone(p), "\n"), '\n')
		if _, err := w.out.Write(line); err != nil {
			return 0, err
		}
		return len(p), nil
	}

	var b strings.Builder
	b.WriteString(evt.Message)
	for _, k := range slices.Sorted(maps.Keys(evt.Fields)) {
		fmt.Fprintf(&b, " %s=%v", k, evt.Fields[k])
	}
	if evt.Error != "" {
		fmt.Fprintf(&b, " error=%s", evt.Error)
	}
	if evt.CorrelationID != "" {
		fmt.Fprintf(&b, " correlation_id=%s", evt.CorrelationID)
	}
	b.WriteByte('\n')
	if _, err := io.WriteString(w.out, b.String()); err != nil {
		return 0, err
	}
	return len(p), nil
}

func (w *streamWriter) WithLevel(level log.Level) writers.IWriter {
	w.level = level
	return w
}

func (w *streamWriter) GetFilePath() string { return "" }
func (w *streamWriter) Close() error        { return nil }

// NewLoggerFromConfig creates a logger configured from LoggingConfig.
// Console output always goes to stderr: stdout carries protocol frames
// when serving over stdio. Format selects pretty text or JSON lines on the
// console and logfmt or JSON in the log file.
func NewLoggerFromConfig(cfg LoggingConfig) *Logger {
	return newLogger(cfg, os.Stderr)
}

func newLogger(cfg LoggingConfig, console io.Writer) *Logger {
	level := cfg.Level
	if level == "" {
		level = "info"
	}

	outputs := cfg.Outputs
	if len(outputs) == 0 {
		outputs = []string{"console"}
	}

	l := arbor.NewLogger()
	for _, out := range outputs {
		switch out {
		case "console":
			if cfg.jsonFormat() {
				arbor.RegisterWriter(arbor.WRITER_CONSOLE, &streamWriter{out: console, json: true, level: log.TraceLevel})
				continue
			}
			l = l.WithConsoleWriter(models.WriterConfiguration{
				Type:       models.LogWriterTypeConsole,
				Writer:     console,
				TimeFormat: time.RFC3339,
			})
		case "file":
			l = l.WithFileWriter(fileWriterConfig(cfg))
		}
	}

	l = l.WithMemoryWriter(models.WriterConfiguration{
		Type: models.LogWriterTypeMemory,
	}).WithLevelFromString(level)

	return &Logger{ILogger: l}
}

func fileWriterConfig(cfg LoggingConfig) models.WriterConfiguration {
	filePath := cfg.FilePath
	if filePath == "" {
		filePath = "logs/dns-mcp.log"
	}
	maxSize := int64(cfg.MaxSizeMB) * 1024 * 1024
	if maxSize <= 0 {
		maxSize = 500 * 1024
	}
	maxBackups := cfg.MaxBackups
	if maxBackups <= 0 {
		maxBackups = 20
	}
	outputType := models.OutputFormatLogfmt
	if cfg.jsonFormat() {
		outputType = models.OutputFormatJSON
	}
	return models.WriterConfiguration{
		Type:       models.LogWriterTypeFile,
		FileName:   filePath,
		MaxSize:    maxSize,
		MaxBackups: maxBackups,
		TimeFormat: time.RFC3339,
		OutputType: outputType,
	}
}

// NewLoggerWithOutput creates a logger writing plain text lines to w.
// Used by tests that need to inspect log output.
func NewLoggerWithOutput(level string, w io.Writer) *Logger {
	arbor.RegisterWriter(arbor.WRITER_CONSOLE, &streamWriter{out: w, level: log.TraceLevel})

	arborLogger := arbor.NewLogger().
		WithMemoryWriter(models.WriterConfiguration{
			Type: models.LogWriterTypeMemory,
		}).
		WithLevelFromString(level)

	return &Logger{ILogger: arborLogger}
}

// NewSilentLogger creates a logger that discards all output.
func NewSilentLogger() *Logger {
	arborLogger := arbor.NewLogger().WithWriters([]writers.IWriter{&discardWriter{}})
	return &Logger{ILogger: arborLogger}
}

// WithCorrelationId returns a new Logger with a correlation ID set.
// Used to trace a single tool invocation through all layers.
func (l *Logger) WithCorrelationId(id string) *Logger {
	return &Logger{ILogger: l.ILogger.WithCorrelationId(id)}
}
