// SPDX-License-Identifier: MPL-2.0
/*
 * Copyright (C) 2024 Damian Peckett <damian@pecke.tt>.
 *
 * This Source Code Form is subject to the terms of the Mozilla Public
 * License, v. 2.0. If a copy of the MPL was not distributed with this
 * file, You can obtain one at http://mozilla.org/MPL/2.0/.
 */

package logger_test

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/OpenPSG/drowsy/internal/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoggerWritesFields(t *testing.T) {
	var buf bytes.Buffer
	log, err := logger.New(&buf, "info")
	require.NoError(t, err)

	log.With(logger.String("run_id", "abc")).Info(context.Background(), "segmented",
		logger.Int("records", 3), logger.Error(errors.New("boom")))

	out := buf.String()
	assert.Contains(t, out, "msg=segmented")
	assert.Contains(t, out, "run_id=abc")
	assert.Contains(t, out, "records=3")
	assert.Contains(t, out, "error=boom")
	assert.Contains(t, out, "source=logger/logger_test.go:")
}

func TestLoggerLevelFilters(t *testing.T) {
	var buf bytes.Buffer
	log, err := logger.New(&buf, "warn")
	require.NoError(t, err)

	log.Info(context.Background(), "hidden")
	log.Debug(context.Background(), "hidden")
	assert.Empty(t, buf.String())

	log.Warn(context.Background(), "shown")
	assert.Contains(t, buf.String(), "msg=shown")
}

func TestParseLevel(t *testing.T) {
	for in, want := range map[string]slog.Level{
		"":        slog.LevelInfo,
		"DEBUG":   slog.LevelDebug,
		"warning": slog.LevelWarn,
		" error ": slog.LevelError,
	} {
		got, err := logger.ParseLevel(in)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}

	_, err := logger.ParseLevel("verbose")
	require.Error(t, err)
}

func TestLoggerNamedGroupsFields(t *testing.T) {
	var buf bytes.Buffer
	log, err := logger.New(&buf, "info")
	require.NoError(t, err)

	log.Named("pipeline").With(logger.String("run_id", "r1")).Warn(context.Background(), "blink counts skipped")

	out := buf.String()
	assert.Contains(t, out, "pipeline.run_id=r1")
	assert.Contains(t, out, "pipeline.source=logger/logger_test.go:")
}
