package logging

import (
	"encoding/json"
	"fmt"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/bobergda/simple-gpt-shell/internal/redact"
)

// InteractionLogger appends one JSON line per noteworthy event: API
// requests and responses, proposed command batches, execution results and
// safe-mode decisions. Payloads are redacted before they hit disk.
type InteractionLogger struct {
	core   zapcore.Core
	closer func() error
}

// InteractionLoggerOptions configures NewInteractionLogger.
type InteractionLoggerOptions struct {
	// Path is the JSON-lines file to append to.
	Path string

	// Logger receives diagnostics about the interaction log itself.
	Logger *zap.Logger
}

// NewInteractionLogger opens (or creates) the interaction log file. If the
// file cannot be opened the session still runs: a warning is logged and a
// no-op logger is returned.
func NewInteractionLogger(opts InteractionLoggerOptions) *InteractionLogger {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	file, err := os.OpenFile(opts.Path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0600)
	if err != nil {
		logger.Warn("failed to open interaction log, continuing without it",
			zap.String("path", opts.Path),
			zap.Error(err),
		)
		return &InteractionLogger{core: zapcore.NewNopCore()}
	}

	encoderConfig := zapcore.EncoderConfig{
		TimeKey:    "ts",
		MessageKey: "event",
		EncodeTime: zapcore.ISO8601TimeEncoder,
	}
	core := zapcore.NewCore(
		zapcore.NewJSONEncoder(encoderConfig),
		zapcore.Lock(file),
		zapcore.InfoLevel,
	)

	return &InteractionLogger{
		core:   core,
		closer: file.Close,
	}
}

// NewNopInteractionLogger returns a logger that discards everything.
func NewNopInteractionLogger() *InteractionLogger {
	return &InteractionLogger{core: zapcore.NewNopCore()}
}

// LogEvent records a named event with an arbitrary payload. The payload is
// passed through a JSON round trip so that only plain values reach the
// redaction pass and the log.
func (l *InteractionLogger) LogEvent(event string, payload any) {
	l.write(event, []zapcore.Field{
		zap.Any("data", sanitize(payload)),
	})
}

// LogMessage records a conversational message by role.
func (l *InteractionLogger) LogMessage(role string, text string) {
	l.write("message", []zapcore.Field{
		zap.String("role", role),
		zap.String("text", redact.Text(text)),
	})
}

func (l *InteractionLogger) write(event string, fields []zapcore.Field) {
	entry := zapcore.Entry{
		Level:   zapcore.InfoLevel,
		Message: event,
	}
	if checked := l.core.Check(entry, nil); checked != nil {
		checked.Write(fields...)
	}
}

// Sync flushes buffered entries.
func (l *InteractionLogger) Sync() error {
	return l.core.Sync()
}

// Close flushes and closes the underlying file.
func (l *InteractionLogger) Close() error {
	err := l.core.Sync()
	if l.closer != nil {
		if closeErr := l.closer(); err == nil {
			err = closeErr
		}
	}
	return err
}

// sanitize converts payload into plain JSON values with secrets redacted.
func sanitize(payload any) any {
	if payload == nil {
		return nil
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return redact.Text(fmt.Sprint(payload))
	}
	var value any
	if err := json.Unmarshal(raw, &value); err != nil {
		return redact.Text(string(raw))
	}
	return redact.Value(value)
}
