// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

// Package errutil logs and asserts oops errors.
package errutil

import (
	"context"
	"log/slog"

	"github.com/samber/oops"
)

// LogError logs err at ERROR level with its oops code and context.
func LogError(logger *slog.Logger, msg string, err error) {
	Log(context.Background(), logger, slog.LevelError, msg, err)
}

// LogWarn logs err at WARN level. Used for best-effort cleanup failures
// that must not fail the surrounding operation.
func LogWarn(ctx context.Context, logger *slog.Logger, msg string, err error, attrs ...any) {
	Log(ctx, logger, slog.LevelWarn, msg, err, attrs...)
}

// Log logs err at level, extracting code and context from oops errors.
// Extra attrs are appended after the error fields.
func Log(ctx context.Context, logger *slog.Logger, level slog.Level, msg string, err error, attrs ...any) {
	if logger == nil {
		logger = slog.Default()
	}
	fields := []any{"error", err.Error()}
	if oopsErr, ok := oops.AsOops(err); ok {
		if code := oopsErr.Code(); code != nil && code != "" {
			fields = append(fields, "code", code)
		}
		if errCtx := oopsErr.Context(); len(errCtx) > 0 {
			fields = append(fields, "context", errCtx)
		}
	}
	logger.Log(ctx, level, msg, append(fields, attrs...)...)
}
