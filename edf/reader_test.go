// SPDX-License-Identifier: MPL-2.0
/*
 * Copyright (C) 2024 Damian Peckett <damian@pecke.tt>.
 *
 * This Source Code Form is subject to the terms of the Mozilla Public
 * License, v. 2.0. If a copy of the MPL was not distributed with this
 * file, You can obtain one at http://mozilla.org/MPL/2.0/.
 */

package edf_test

import (
	"io"
	"testing"
	"time"

	"github.com/OpenPSG/drowsy/edf"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReaderMultiChannel(t *testing.T) {
	f := createFile(t)

	ew, err := edf.Create(f, edf.Header{
		Version:            edf.Version0,
		PatientID:          "Subject 07",
		StartTime:          time.Date(2024, 5, 1, 9, 30, 0, 0, time.UTC),
		DataRecordDuration: time.Second,
		Signals: []edf.Signal{
			{Label: "Fp1-Ref", PhysicalMin: -100, PhysicalMax: 100, DigitalMin: -32768, DigitalMax: 32767, SamplesPerRecord: 8},
			{Label: "Status", PhysicalMin: 0, PhysicalMax: 255, DigitalMin: 0, DigitalMax: 255, SamplesPerRecord: 4},
		},
	})
	require.NoError(t, err)

	for r := 0; r < 3; r++ {
		eeg := make([]float64, 8)
		status := []float64{0, 0, float64(r + 2), 0}
		require.NoError(t, ew.WriteRecord([][]float64{eeg, status}))
	}
	require.NoError(t, ew.Close())

	_, err = f.Seek(0, io.SeekStart)
	require.NoError(t, err)

	er, err := edf.Open(f)
	require.NoError(t, err)

	hdr := er.Header()
	assert.Equal(t, "Subject 07", hdr.PatientID)
	assert.Equal(t, 3, hdr.DataRecords)
	assert.Equal(t, time.Second, hdr.DataRecordDuration)
	assert.Equal(t, []string{"Fp1-Ref", "Status"}, er.Labels())

	idx, err := er.FindSignal("STATUS")
	require.NoError(t, err)
	assert.Equal(t, 1, idx)

	rate, err := er.SampleRate(idx)
	require.NoError(t, err)
	assert.Equal(t, 4, rate)

	samples, err := er.ReadSignal(idx)
	require.NoError(t, err)
	assert.Equal(t, []float64{0, 0, 2, 0, 0, 0, 3, 0, 0, 0, 4, 0}, samples)
}

func TestReaderSignalNotFound(t *testing.T) {
	f := createFile(t)

	ew, err := edf.Create(f, edf.Header{
		Version:            edf.Version0,
		StartTime:          time.Now(),
		DataRecordDuration: time.Second,
		Signals:            []edf.Signal{{Label: "EOG", PhysicalMax: 1, DigitalMax: 1, SamplesPerRecord: 1}},
	})
	require.NoError(t, err)
	require.NoError(t, ew.Close())

	_, err = f.Seek(0, io.SeekStart)
	require.NoError(t, err)

	er, err := edf.Open(f)
	require.NoError(t, err)

	_, err = er.FindSignal("status")
	require.ErrorIs(t, err, edf.ErrSignalNotFound)

	_, err = er.Signal(3)
	require.ErrorIs(t, err, edf.ErrSignalIndex)
}

func TestReaderBDF(t *testing.T) {
	f := createFile(t)

	ew, err := edf.Create(f, edf.Header{
		Version:            edf.VersionBDF,
		StartTime:          time.Now(),
		DataRecordDuration: time.Second,
		Signals: []edf.Signal{
			{Label: "Status", PhysicalMin: -8388608, PhysicalMax: 8388607, DigitalMin: -8388608, DigitalMax: 8388607, SamplesPerRecord: 5},
		},
	})
	require.NoError(t, err)
	require.NoError(t, ew.WriteRecord([][]float64{{-8388608, -1, 0, 253, 8388607}}))
	require.NoError(t, ew.Close())

	_, err = f.Seek(0, io.SeekStart)
	require.NoError(t, err)

	er, err := edf.Open(f)
	require.NoError(t, err)
	hdr := er.Header()
	require.Equal(t, 3, hdr.SampleBytes())

	samples, err := er.ReadSignal(0)
	require.NoError(t, err)
	require.Len(t, samples, 5)
	for i, want := range []float64{-8388608, -1, 0, 253, 8388607} {
		assert.InDelta(t, want, samples[i], 0.5)
	}
}
