// SPDX-License-Identifier: MPL-2.0
/*
 * Copyright (C) 2024 Damian Peckett <damian@pecke.tt>.
 *
 * This Source Code Form is subject to the terms of the Mozilla Public
 * License, v. 2.0. If a copy of the MPL was not distributed with this
 * file, You can obtain one at http://mozilla.org/MPL/2.0/.
 */

package segment_test

import (
	"math"
	"math/rand"
	"testing"
	"time"

	"github.com/OpenPSG/drowsy/segment"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// pulses returns a silent signal of the given length with single-sample
// triggers at the given indices.
func pulses(length int, at ...int) []float64 {
	samples := make([]float64, length)
	for _, i := range at {
		samples[i] = 253
	}
	return samples
}

func TestSegmentSingleCycle(t *testing.T) {
	const rate = 500
	samples := pulses(15*rate, 10*rate, 10*rate+200, 11*rate+50)

	records, err := segment.Segment(samples, rate)
	require.NoError(t, err)
	require.Len(t, records, 1)

	assert.Equal(t, 10.0, records[0].EventSecond)
	assert.Equal(t, 0.4, records[0].ReactionDuration)
	assert.Equal(t, 0.7, records[0].RecoveryDuration)
}

func TestSegmentIncompleteTrailingCycle(t *testing.T) {
	const rate = 100

	for name, at := range map[string][]int{
		"one trigger":  {5*rate + 10, 6 * rate, 7 * rate, 20 * rate},
		"two triggers": {5*rate + 10, 6 * rate, 7 * rate, 20 * rate, 21 * rate},
	} {
		t.Run(name, func(t *testing.T) {
			records, err := segment.Segment(pulses(30*rate, at...), rate)
			require.NoError(t, err)
			require.Len(t, records, 1)
			assert.Equal(t, 5.1, records[0].EventSecond)
		})
	}
}

func TestSegmentIgnoresTrailingPartialSecond(t *testing.T) {
	const rate = 10
	// The third trigger sits in the last, incomplete second.
	samples := pulses(3*rate+5, 0, rate, 3*rate+2)

	records, err := segment.Segment(samples, rate)
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestSegmentThresholdIsStrict(t *testing.T) {
	samples := []float64{1, 1, 1, 1.5, 0, 2, 0, 3}

	records, err := segment.Segment(samples, 2)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, 1.5, records[0].EventSecond)
	assert.Equal(t, 1.0, records[0].ReactionDuration)
	assert.Equal(t, 1.0, records[0].RecoveryDuration)
}

func TestSegmentAdjacentTriggersAdvanceOnePhaseEach(t *testing.T) {
	const rate = 10
	// A three-sample pulse completes a whole cycle on its own.
	samples := pulses(2*rate, 3, 4, 5)

	records, err := segment.Segment(samples, rate)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, 0.3, records[0].EventSecond)
	assert.Equal(t, 0.1, records[0].ReactionDuration)
	assert.Equal(t, 0.1, records[0].RecoveryDuration)
}

func TestSegmentMinGapCoalescesPulses(t *testing.T) {
	const rate = 10
	samples := pulses(10*rate, 3, 4, 5, 20, 21, 40, 41, 42)

	records, err := segment.Segment(samples, rate, segment.WithMinGap(500*time.Millisecond))
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, 0.3, records[0].EventSecond)
	assert.Equal(t, 1.7, records[0].ReactionDuration)
	assert.Equal(t, 2.0, records[0].RecoveryDuration)
}

func TestSegmentCustomThreshold(t *testing.T) {
	samples := []float64{2, 0, 2, 0, 5, 0, 5, 0, 5, 0}

	records, err := segment.Segment(samples, 2, segment.WithThreshold(4))
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, 2.0, records[0].EventSecond)
}

func TestSegmentCountsCompleteCycles(t *testing.T) {
	const rate = 250
	rnd := rand.New(rand.NewSource(42))

	for k := 0; k < 20; k++ {
		var at []int
		pos := 0
		for c := 0; c < k; c++ {
			for p := 0; p < 3; p++ {
				pos += 1 + rnd.Intn(3*rate)
				at = append(at, pos)
			}
		}
		samples := pulses(pos+rate+1, at...)

		records, err := segment.Segment(samples, rate)
		require.NoError(t, err)
		require.Len(t, records, k)

		for i, rec := range records {
			assert.GreaterOrEqual(t, rec.ReactionDuration, 0.0)
			assert.GreaterOrEqual(t, rec.RecoveryDuration, 0.0)
			if i > 0 {
				assert.GreaterOrEqual(t, rec.EventSecond, records[i-1].EventSecond)
			}
		}
	}
}

func TestSegmenterPending(t *testing.T) {
	s, err := segment.New(4)
	require.NoError(t, err)
	assert.Equal(t, segment.AwaitingStimulus, s.Pending())

	_, ok := s.Feed(9)
	assert.False(t, ok)
	assert.Equal(t, segment.AwaitingReaction, s.Pending())

	_, ok = s.Feed(9)
	assert.False(t, ok)
	assert.Equal(t, segment.AwaitingRecovery, s.Pending())

	rec, ok := s.Feed(9)
	assert.True(t, ok)
	// 0.25 is an exact half and rounds to even.
	assert.Equal(t, segment.TimingRecord{EventSecond: 0, ReactionDuration: 0.2, RecoveryDuration: 0.2}, rec)
	assert.Equal(t, segment.AwaitingStimulus, s.Pending())
}

func TestInvalidSampleRate(t *testing.T) {
	_, err := segment.Segment([]float64{1, 2, 3}, 0)
	require.ErrorIs(t, err, segment.ErrInvalidSampleRate)
}

func TestSegmentRoundsHalvesToEven(t *testing.T) {
	const rate = 500
	// 10.25 s, 10.75 s and 11.5 s are exact in binary.
	samples := pulses(15*rate, 10*rate+125, 10*rate+375, 11*rate+250)

	records, err := segment.Segment(samples, rate)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, 10.2, records[0].EventSecond)
	assert.Equal(t, 0.5, records[0].ReactionDuration)
	assert.Equal(t, 0.8, records[0].RecoveryDuration)
}

func TestSegmentNaNIsNotATrigger(t *testing.T) {
	samples := []float64{math.NaN(), 2, math.NaN(), 2, math.NaN(), 2}

	records, err := segment.Segment(samples, 2)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, 0.5, records[0].EventSecond)
	assert.Equal(t, 1.0, records[0].ReactionDuration)
}

func TestScanReportsTrailingPhase(t *testing.T) {
	const rate = 10
	samples := pulses(5*rate, 1, 2, 3, 20, 30)

	records, phase, err := segment.Scan(samples, rate)
	require.NoError(t, err)
	assert.Len(t, records, 1)
	assert.Equal(t, segment.AwaitingRecovery, phase)

	_, phase, err = segment.Scan(samples[:15], rate)
	require.NoError(t, err)
	assert.Equal(t, segment.AwaitingStimulus, phase)
}
