// Package logging configures the sheetctl log stream.
//
// The TUI owns the terminal, so logs go to a file or nowhere. Components
// receive the logger by injection; nothing logs through a global.
package logging

import (
	"fmt"
	"io/fs"
	"os"

	"github.com/rs/zerolog"
)

// TimeFormat is the timestamp layout used in log lines.
const TimeFormat = "2006-01-02_15:04:05"

// Setup returns a logger writing to the given file at the given level. An
// empty file disables logging. The returned func closes the file.
func Setup(file, level string) (zerolog.Logger, func(), error) {
	if file == "" {
		return zerolog.Nop(), func() {}, nil
	}

	parsed, err := zerolog.ParseLevel(level)
	if err != nil {
		return zerolog.Nop(), nil, fmt.Errorf("parse log level %q: %w", level, err)
	}

	logFile, err := os.OpenFile(file, os.O_RDWR|os.O_CREATE|os.O_APPEND, fs.FileMode(0o644))
	if err != nil {
		return zerolog.Nop(), nil, fmt.Errorf("open log file: %w", err)
	}

	writer := zerolog.ConsoleWriter{Out: logFile, TimeFormat: TimeFormat, NoColor: true}
	logger := zerolog.New(writer).Level(parsed).With().Timestamp().Caller().Logger()
	return logger, func() { logFile.Close() }, nil
}
