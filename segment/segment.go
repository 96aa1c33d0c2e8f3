// SPDX-License-Identifier: MPL-2.0
/*
 * Copyright (C) 2024 Damian Peckett <damian@pecke.tt>.
 *
 * This Source Code Form is subject to the terms of the Mozilla Public
 * License, v. 2.0. If a copy of the MPL was not distributed with this
 * file, You can obtain one at http://mozilla.org/MPL/2.0/.
 */

// Package segment turns a sampled status channel into stimulus, reaction and
// recovery timings.
package segment

import (
	"errors"
	"fmt"
	"strconv"
	"time"
)

// DefaultThreshold is the level a status sample must exceed to count as a trigger.
const DefaultThreshold = 1.0

// ErrInvalidSampleRate is returned for a sample rate below one sample per second.
var ErrInvalidSampleRate = errors.New("invalid sample rate")

// Phase is the state of the event cycle.
type Phase int

const (
	AwaitingStimulus Phase = iota
	AwaitingReaction
	AwaitingRecovery
)

func (p Phase) String() string {
	switch p {
	case AwaitingStimulus:
		return "awaiting-stimulus"
	case AwaitingReaction:
		return "awaiting-reaction"
	case AwaitingRecovery:
		return "awaiting-recovery"
	default:
		return fmt.Sprintf("phase(%d)", int(p))
	}
}

// TimingRecord is one completed stimulus, reaction, recovery cycle. All values
// are in seconds rounded to one decimal place.
type TimingRecord struct {
	EventSecond      float64
	ReactionDuration float64
	RecoveryDuration float64
}

// Segmenter is the three phase trigger state machine.
type Segmenter struct {
	sampleRate int
	threshold  float64
	minGap     float64 // seconds; 0 disables debouncing

	phase       Phase
	n           int     // samples consumed
	stimulus    float64 // t1
	reaction    float64 // t2
	lastTrigger float64
	triggered   bool
}

// Option configures a Segmenter.
type Option func(*Segmenter)

// WithThreshold sets the trigger level. Samples strictly greater than it are triggers.
func WithThreshold(threshold float64) Option {
	return func(s *Segmenter) {
		s.threshold = threshold
	}
}

// WithMinGap ignores trigger samples that follow the previous trigger sample
// by less than gap, so one held pulse advances the cycle once. Zero, the
// default, treats every trigger sample as its own event.
func WithMinGap(gap time.Duration) Option {
	return func(s *Segmenter) {
		if gap > 0 {
			s.minGap = gap.Seconds()
		}
	}
}

// New creates a Segmenter for a signal sampled at sampleRate samples per second.
func New(sampleRate int, opts ...Option) (*Segmenter, error) {
	if sampleRate < 1 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidSampleRate, sampleRate)
	}

	s := &Segmenter{
		sampleRate: sampleRate,
		threshold:  DefaultThreshold,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Feed consumes the next sample. It returns a record and true when the sample
// completes a cycle.
func (s *Segmenter) Feed(sample float64) (TimingRecord, bool) {
	sec, idx := s.n/s.sampleRate, s.n%s.sampleRate
	s.n++

	if !(sample > s.threshold) {
		return TimingRecord{}, false
	}

	t := float64(sec) + float64(idx)/float64(s.sampleRate)
	debounced := s.minGap > 0 && s.triggered && t-s.lastTrigger < s.minGap
	s.lastTrigger, s.triggered = t, true
	if debounced {
		return TimingRecord{}, false
	}

	switch s.phase {
	case AwaitingStimulus:
		s.stimulus = t
		s.phase = AwaitingReaction
	case AwaitingReaction:
		s.reaction = t
		s.phase = AwaitingRecovery
	case AwaitingRecovery:
		s.phase = AwaitingStimulus
		return TimingRecord{
			EventSecond:      round1(s.stimulus),
			ReactionDuration: round1(s.reaction - s.stimulus),
			RecoveryDuration: round1(t - s.reaction),
		}, true
	}
	return TimingRecord{}, false
}

// Pending returns the phase the machine is in. Anything other than
// AwaitingStimulus means a cycle is incomplete.
func (s *Segmenter) Pending() Phase {
	return s.phase
}

// Segment scans whole seconds of samples and returns every completed cycle in
// time order. Samples past the last whole second are ignored, as is an
// incomplete trailing cycle.
func Segment(samples []float64, sampleRate int, opts ...Option) ([]TimingRecord, error) {
	records, _, err := Scan(samples, sampleRate, opts...)
	return records, err
}

// Scan is Segment that also returns the phase left at the end of the scan.
func Scan(samples []float64, sampleRate int, opts ...Option) ([]TimingRecord, Phase, error) {
	s, err := New(sampleRate, opts...)
	if err != nil {
		return nil, AwaitingStimulus, err
	}

	totalSeconds := len(samples) / sampleRate
	var records []TimingRecord
	for _, sample := range samples[:totalSeconds*sampleRate] {
		if rec, ok := s.Feed(sample); ok {
			records = append(records, rec)
		}
	}
	return records, s.Pending(), nil
}

// round1 rounds to one decimal place, exact halves to even, like %.1f.
func round1(x float64) float64 {
	v, _ := strconv.ParseFloat(strconv.FormatFloat(x, 'f', 1, 64), 64)
	return v
}
