// SPDX-License-Identifier: MPL-2.0
/*
 * Copyright (C) 2024 Damian Peckett <damian@pecke.tt>.
 *
 * This Source Code Form is subject to the terms of the Mozilla Public
 * License, v. 2.0. If a copy of the MPL was not distributed with this
 * file, You can obtain one at http://mozilla.org/MPL/2.0/.
 */

// Package synth writes synthetic recordings and blink logs with known
// event timings.
package synth

import (
	"fmt"
	"math"
	"math/rand"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/OpenPSG/drowsy/edf"
)

// PulseLevel is the status value written at each marker.
const PulseLevel = 253

// Event is one stimulus, reaction, recovery cycle in seconds from the start.
type Event struct {
	Stimulus float64
	Reaction float64
	Recovery float64
}

// Recording describes a synthetic recording.
type Recording struct {
	Version     edf.Version
	SampleRate  int
	Seconds     int
	StatusLabel string
	Events      []Event
	// Markers are extra single pulses, in seconds, outside any event.
	Markers []float64
}

// Write stores r as an EDF (or BDF) file at path with an EEG channel and a
// status channel carrying one single-sample pulse per marker.
func (r Recording) Write(path string) error {
	if r.SampleRate < 1 || r.Seconds < 1 {
		return fmt.Errorf("invalid recording: %d Hz, %d s", r.SampleRate, r.Seconds)
	}
	version := r.Version
	if version == "" {
		version = edf.Version0
	}
	label := r.StatusLabel
	if label == "" {
		label = "Status"
	}

	status := make([]float64, r.SampleRate*r.Seconds)
	markers := append([]float64(nil), r.Markers...)
	for _, ev := range r.Events {
		markers = append(markers, ev.Stimulus, ev.Reaction, ev.Recovery)
	}
	for _, t := range markers {
		i := int(math.Round(t * float64(r.SampleRate)))
		if i < 0 || i >= len(status) {
			return fmt.Errorf("marker at %.3fs is outside the recording", t)
		}
		status[i] = PulseLevel
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	ew, err := edf.Create(f, edf.Header{
		Version:            version,
		PatientID:          "X X X X",
		RecordingID:        "Startdate X X X synthetic",
		StartTime:          time.Now(),
		DataRecordDuration: time.Second,
		Signals: []edf.Signal{
			{Label: "EEG Fz", PhysicalDimension: "uV", PhysicalMin: -500, PhysicalMax: 500, DigitalMin: -32768, DigitalMax: 32767, SamplesPerRecord: r.SampleRate},
			{Label: label, PhysicalDimension: "Boolean", PhysicalMin: 0, PhysicalMax: 255, DigitalMin: 0, DigitalMax: 255, SamplesPerRecord: r.SampleRate},
		},
	})
	if err != nil {
		return err
	}

	eeg := make([]float64, r.SampleRate)
	for sec := 0; sec < r.Seconds; sec++ {
		chunk := status[sec*r.SampleRate : (sec+1)*r.SampleRate]
		if err := ew.WriteRecord([][]float64{eeg, chunk}); err != nil {
			return fmt.Errorf("error writing record %d: %w", sec, err)
		}
	}
	if err := ew.Close(); err != nil {
		return err
	}
	return f.Close()
}

// WriteBlinkLog writes a blink log: header followed by the blink seconds.
func WriteBlinkLog(path string, header int, blinks []int) error {
	tokens := make([]string, 0, len(blinks)+1)
	tokens = append(tokens, strconv.Itoa(header))
	for _, b := range blinks {
		tokens = append(tokens, strconv.Itoa(b))
	}
	return os.WriteFile(path, []byte(strings.Join(tokens, ",")), 0o644)
}

// Random returns a recording of the given length with an event roughly every
// 30 seconds, and blink times spread over the same span.
func Random(seed int64, seconds, sampleRate int) (Recording, []int) {
	rnd := rand.New(rand.NewSource(seed))
	rec := Recording{SampleRate: sampleRate, Seconds: seconds}

	for start := 5.0; start+10 < float64(seconds); start += 20 + rnd.Float64()*20 {
		reaction := start + 0.3 + rnd.Float64()*1.5
		recovery := reaction + 0.5 + rnd.Float64()*3
		rec.Events = append(rec.Events, Event{Stimulus: start, Reaction: reaction, Recovery: recovery})
	}

	blinks := make([]int, rnd.Intn(seconds/2+1))
	for i := range blinks {
		blinks[i] = rnd.Intn(seconds)
	}
	return rec, blinks
}
