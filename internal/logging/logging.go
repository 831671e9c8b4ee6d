// Package logging wires the application logger and the interaction log.
// The application log is a standard zap production logger writing to a
// file; the interaction log is a JSON-lines record of every exchange with
// the model and every command outcome, with secrets redacted.
package logging

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// NewAppLogger builds the file-backed application logger. Logs go to file
// only so they do not interleave with the interactive prompt; use
// `tail -f ~/.gpt-shell/gpt-shell.log` to follow them live.
func NewAppLogger(level string, path string) (*zap.Logger, error) {
	logLevel := zap.NewAtomicLevelAt(zapcore.InfoLevel)
	if parsed, err := zapcore.ParseLevel(level); err == nil {
		logLevel = zap.NewAtomicLevelAt(parsed)
	}

	loggerConfig := zap.NewProductionConfig()
	loggerConfig.Level = logLevel
	loggerConfig.OutputPaths = []string{
		path,
	}

	return loggerConfig.Build()
}
