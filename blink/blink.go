// SPDX-License-Identifier: MPL-2.0
/*
 * Copyright (C) 2024 Damian Peckett <damian@pecke.tt>.
 *
 * This Source Code Form is subject to the terms of the Mozilla Public
 * License, v. 2.0. If a copy of the MPL was not distributed with this
 * file, You can obtain one at http://mozilla.org/MPL/2.0/.
 */

// Package blink counts eye blinks per fixed-width interval.
//
// A blink log is a single line of comma-separated integers. The first value
// is a header field and is discarded; the rest are blink times in whole
// seconds from the start of the recording.
package blink

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
)

const (
	// DefaultWidth is the bucket width in seconds.
	DefaultWidth = 30
	// DefaultSuffix is appended to the recording's base name to find its blink log.
	DefaultSuffix = "_raw_arousal info.dat"
)

var (
	// ErrMissingAuxiliaryData is returned when a recording has no blink log.
	ErrMissingAuxiliaryData = errors.New("blink log not found")
	// ErrMalformedInput is returned when a blink log cannot be parsed.
	ErrMalformedInput = errors.New("malformed blink log")
)

// Bucket is the number of blinks in [IntervalStart, IntervalStart+width).
type Bucket struct {
	IntervalStart int
	Count         int
}

// Buckets maps interval start seconds to blink counts.
type Buckets map[int]int

// Sorted returns the buckets in ascending interval order.
func (b Buckets) Sorted() []Bucket {
	out := make([]Bucket, 0, len(b))
	for start, count := range b {
		out = append(out, Bucket{IntervalStart: start, Count: count})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].IntervalStart < out[j].IntervalStart })
	return out
}

// Total returns the number of blinks over all buckets.
func (b Buckets) Total() int {
	total := 0
	for _, count := range b {
		total += count
	}
	return total
}

// Parse returns the blink timestamps in text, without the leading header field.
func Parse(text string) ([]int, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, fmt.Errorf("%w: empty", ErrMalformedInput)
	}

	tokens := strings.Split(text, ",")
	if len(tokens) < 2 {
		return nil, fmt.Errorf("%w: expected a header and at least one timestamp", ErrMalformedInput)
	}

	timestamps := make([]int, 0, len(tokens)-1)
	for i, tok := range tokens[1:] {
		v, err := strconv.Atoi(strings.TrimSpace(tok))
		if err != nil {
			return nil, fmt.Errorf("%w: token %d: %q is not an integer", ErrMalformedInput, i+1, tok)
		}
		if v < 0 {
			return nil, fmt.Errorf("%w: token %d: negative timestamp %d", ErrMalformedInput, i+1, v)
		}
		timestamps = append(timestamps, v)
	}
	return timestamps, nil
}

// Aggregate counts timestamps into buckets of width seconds.
func Aggregate(timestamps []int, width int) Buckets {
	if width < 1 {
		width = DefaultWidth
	}

	buckets := make(Buckets)
	for _, t := range timestamps {
		buckets[(t/width)*width]++
	}
	return buckets
}

// LogPath returns the blink log that belongs to a recording: the recording
// path without its extension, plus suffix.
func LogPath(recordingPath, suffix string) string {
	base := strings.TrimSuffix(recordingPath, filepath.Ext(recordingPath))
	return base + suffix
}

// Load reads and aggregates the blink log at path. Nothing is returned unless
// the whole log parses.
func Load(path string, width int) (Buckets, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrMissingAuxiliaryData, path)
		}
		return nil, fmt.Errorf("error reading blink log: %w", err)
	}

	timestamps, err := Parse(string(content))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return Aggregate(timestamps, width), nil
}
