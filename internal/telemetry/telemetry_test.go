// SPDX-License-Identifier: MPL-2.0
/*
 * Copyright (C) 2024 Damian Peckett <damian@pecke.tt>.
 *
 * This Source Code Form is subject to the terms of the Mozilla Public
 * License, v. 2.0. If a copy of the MPL was not distributed with this
 * file, You can obtain one at http://mozilla.org/MPL/2.0/.
 */

package telemetry_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/OpenPSG/drowsy/internal/telemetry"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecorderTextfile(t *testing.T) {
	rec := telemetry.New()
	rec.Recording(telemetry.ResultOK)
	rec.Recording(telemetry.ResultOK)
	rec.Recording(telemetry.ResultMissingChannel)
	rec.TimingRecords(4)
	rec.BlinkBuckets(3)
	rec.BlinkSkipped("missing")
	rec.RowsWritten(6)

	count, err := testutil.GatherAndCount(rec.Gatherer(), "drowsy_recordings_total")
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	path := filepath.Join(t.TempDir(), "drowsy.prom")
	require.NoError(t, rec.WriteTextfile(path))

	b, err := os.ReadFile(path)
	require.NoError(t, err)
	out := string(b)
	assert.Contains(t, out, `drowsy_recordings_total{result="ok"} 2`)
	assert.Contains(t, out, `drowsy_recordings_total{result="missing_channel"} 1`)
	assert.Contains(t, out, "drowsy_timing_records_total 4")
	assert.Contains(t, out, "drowsy_blink_buckets_total 3")
	assert.Contains(t, out, `drowsy_blink_logs_skipped_total{reason="missing"} 1`)
	assert.Contains(t, out, "drowsy_rows_written_total 6")
}
