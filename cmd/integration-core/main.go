package main

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"

	"github.com/opencomply/integration-core/internal/logging"
)

func main() {
	code := runMain(Execute, os.Stderr)
	if code != 0 {
		os.Exit(code)
	}
}

func runMain(execute func() error, stderr io.Writer) int {
	if err := execute(); err != nil {
		return exitCodeForError(err, stderr)
	}
	return 0
}

func exitCodeForError(err error, stderr io.Writer) int {
	var ee *exitError
	if errors.As(err, &ee) {
		if !ee.silent {
			fatalLogger(stderr).Error("command failed", "exit_code", ee.code, "error", resolveErrorForExitError(ee, err))
		}
		return ee.code
	}

	if errors.Is(err, context.Canceled) {
		fatalLogger(stderr).Error("command canceled", "exit_code", 130, "error", err)
		return 130
	}

	fatalLogger(stderr).Error("command failed", "exit_code", 1, "error", err)
	return 1
}

func fatalLogger(stderr io.Writer) *slog.Logger {
	cfg, err := logging.LoadConfigFromEnv()
	if err != nil {
		cfg = logging.DefaultConfig()
	}
	return logging.NewLogger(cfg, stderr, "integration-core")
}

func resolveErrorForExitError(ee *exitError, fallback error) error {
	if ee != nil && ee.err != nil {
		return ee.err
	}
	return fallback
}
