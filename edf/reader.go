// SPDX-License-Identifier: MPL-2.0
/*
 * Copyright (C) 2024 Damian Peckett <damian@pecke.tt>.
 *
 * This Source Code Form is subject to the terms of the Mozilla Public
 * License, v. 2.0. If a copy of the MPL was not distributed with this
 * file, You can obtain one at http://mozilla.org/MPL/2.0/.
 */

package edf

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
	"time"
)

// Reader reads EDF/EDF+ and BDF files.
type Reader struct {
	r   io.ReadSeeker
	hdr *Header
}

// Open opens an EDF/EDF+ or BDF file for reading.
func Open(r io.ReadSeeker) (*Reader, error) {
	reader := bufio.NewReader(r)

	b := make([]byte, 256)
	if _, err := io.ReadFull(reader, b); err != nil {
		return nil, fmt.Errorf("error reading header: %w", err)
	}

	// Parse fields based on EDF/EDF+ specifications
	hdr := &Header{}
	hdr.Version = Version(strings.TrimSpace(string(b[0:8])))
	hdr.PatientID = strings.TrimSpace(string(b[8:88]))
	hdr.RecordingID = strings.TrimSpace(string(b[88:168]))
	dateStr := strings.TrimSpace(string(b[168:176]))
	timeStr := strings.TrimSpace(string(b[176:184]))

	startDate, err := time.Parse("02.01.06", dateStr)
	if err != nil {
		return nil, fmt.Errorf("error parsing start date: %w", err)
	}
	startTime, err := time.Parse("15.04.05", timeStr)
	if err != nil {
		return nil, fmt.Errorf("error parsing start time: %w", err)
	}
	hdr.StartTime = time.Date(startDate.Year(), startDate.Month(), startDate.Day(),
		startTime.Hour(), startTime.Minute(), startTime.Second(), 0, time.UTC)

	if hdr.HeaderBytes, err = strconv.Atoi(strings.TrimSpace(string(b[184:192]))); err != nil {
		return nil, fmt.Errorf("error parsing header bytes: %w", err)
	}

	if hdr.DataRecords, err = strconv.Atoi(strings.TrimSpace(string(b[236:244]))); err != nil {
		return nil, fmt.Errorf("error parsing number of data records: %w", err)
	}

	hdr.DataRecordDuration, err = time.ParseDuration(fmt.Sprintf("%ss", strings.TrimSpace(string(b[244:252]))))
	if err != nil {
		return nil, fmt.Errorf("error parsing data record duration: %w", err)
	}

	if hdr.SignalCount, err = strconv.Atoi(strings.TrimSpace(string(b[252:256]))); err != nil {
		return nil, fmt.Errorf("error parsing signal count: %w", err)
	}

	// Signal headers are stored field by field, each field repeated for every signal.
	hdr.Signals = make([]Signal, hdr.SignalCount)
	fields := []struct {
		width int
		set   func(s *Signal, b []byte)
	}{
		{16, func(s *Signal, b []byte) { s.Label = strings.TrimSpace(string(b)) }},
		{80, func(s *Signal, b []byte) { s.TransducerType = strings.TrimSpace(string(b)) }},
		{8, func(s *Signal, b []byte) { s.PhysicalDimension = strings.TrimSpace(string(b)) }},
		{8, func(s *Signal, b []byte) { s.PhysicalMin = parseFloat(b) }},
		{8, func(s *Signal, b []byte) { s.PhysicalMax = parseFloat(b) }},
		{8, func(s *Signal, b []byte) { s.DigitalMin = parseInt(b) }},
		{8, func(s *Signal, b []byte) { s.DigitalMax = parseInt(b) }},
		{80, func(s *Signal, b []byte) { s.Prefiltering = strings.TrimSpace(string(b)) }},
		{8, func(s *Signal, b []byte) { s.SamplesPerRecord = parseInt(b) }},
		{32, func(s *Signal, b []byte) { s.Reserved = strings.TrimSpace(string(b)) }},
	}
	for _, field := range fields {
		b := make([]byte, field.width)
		for i := range hdr.Signals {
			if _, err := io.ReadFull(reader, b); err != nil {
				return nil, fmt.Errorf("error reading signal headers: %w", err)
			}
			field.set(&hdr.Signals[i], b)
		}
	}

	return &Reader{
		r:   r,
		hdr: hdr,
	}, nil
}

// Header returns the parsed file header.
func (er *Reader) Header() Header {
	return *er.hdr
}

// Labels returns the label of every signal in header order.
func (er *Reader) Labels() []string {
	labels := make([]string, len(er.hdr.Signals))
	for i, sig := range er.hdr.Signals {
		labels[i] = sig.Label
	}
	return labels
}

// FindSignal returns the index of the first signal whose label contains
// substr, ignoring case.
func (er *Reader) FindSignal(substr string) (int, error) {
	needle := strings.ToLower(substr)
	for i, sig := range er.hdr.Signals {
		if strings.Contains(strings.ToLower(sig.Label), needle) {
			return i, nil
		}
	}
	return -1, fmt.Errorf("%w: no label contains %q", ErrSignalNotFound, substr)
}

// SampleRate returns the sampling frequency of a signal in samples per second.
func (er *Reader) SampleRate(signalIndex int) (int, error) {
	if signalIndex < 0 || signalIndex >= len(er.hdr.Signals) {
		return 0, ErrSignalIndex
	}

	seconds := er.hdr.DataRecordDuration.Seconds()
	if seconds <= 0 {
		return 0, fmt.Errorf("invalid data record duration: %s", er.hdr.DataRecordDuration)
	}

	rate := int(math.Round(float64(er.hdr.Signals[signalIndex].SamplesPerRecord) / seconds))
	if rate < 1 {
		rate = 1
	}
	return rate, nil
}

// ReadSignal reads every sample of a signal as physical values.
func (er *Reader) ReadSignal(signalIndex int) ([]float64, error) {
	if er.hdr.DataRecords < 0 {
		return nil, ErrUnknownDataRecords
	}

	sr, err := er.Signal(signalIndex)
	if err != nil {
		return nil, err
	}

	samples := make([]float64, er.hdr.DataRecords*sr.samplesPerRecord)
	n, err := sr.Read(samples)
	if err != nil && err != io.EOF {
		return nil, err
	}
	return samples[:n], nil
}

// SignalReader reads continuous signal data from an EDF/EDF+ or BDF file.
type SignalReader struct {
	r                io.ReadSeeker
	hdr              *Header
	signalIndex      int       // Index of the signal to read
	currentRecord    int       // Next record to load
	recordSize       int       // Total size of one data record
	signalOffset     int       // Byte offset of the signal in a record
	samplesPerRecord int       // Number of samples per record for the signal
	sampleBytes      int       // Width of one stored sample
	raw              []byte    // Raw bytes of the signal within one record
	buf              []float64 // Decoded samples of the current record
	pos              int       // Next unread sample in buf
}

// Signal creates a new SignalReader for a specified signal index.
func (er *Reader) Signal(signalIndex int) (*SignalReader, error) {
	if signalIndex < 0 || signalIndex >= len(er.hdr.Signals) {
		return nil, ErrSignalIndex
	}

	width := er.hdr.SampleBytes()
	signal := er.hdr.Signals[signalIndex]
	recordSize := 0
	signalOffset := 0
	for i, sig := range er.hdr.Signals {
		if i < signalIndex {
			signalOffset += sig.SamplesPerRecord * width
		}
		recordSize += sig.SamplesPerRecord * width
	}

	return &SignalReader{
		r:                er.r,
		hdr:              er.hdr,
		signalIndex:      signalIndex,
		recordSize:       recordSize,
		signalOffset:     signalOffset,
		samplesPerRecord: signal.SamplesPerRecord,
		sampleBytes:      width,
		raw:              make([]byte, signal.SamplesPerRecord*width),
		buf:              make([]float64, 0, signal.SamplesPerRecord),
	}, nil
}

// Read fills the provided float64 slice with the physical values from the signal.
func (sr *SignalReader) Read(data []float64) (int, error) {
	n := 0
	for n < len(data) {
		if sr.pos >= len(sr.buf) {
			if sr.currentRecord >= sr.hdr.DataRecords {
				return n, io.EOF // End of data records
			}
			if err := sr.loadRecord(); err != nil {
				return n, err
			}
		}

		copied := copy(data[n:], sr.buf[sr.pos:])
		sr.pos += copied
		n += copied
	}

	return n, nil
}

// loadRecord decodes this signal's slice of the next data record.
func (sr *SignalReader) loadRecord() error {
	pos := int64(sr.hdr.HeaderBytes) + int64(sr.currentRecord)*int64(sr.recordSize) + int64(sr.signalOffset)
	if _, err := sr.r.Seek(pos, io.SeekStart); err != nil {
		return fmt.Errorf("error seeking to position: %w", err)
	}

	if _, err := io.ReadFull(sr.r, sr.raw); err != nil {
		return fmt.Errorf("error reading sample data: %w", err)
	}

	signal := sr.hdr.Signals[sr.signalIndex]
	sr.buf = sr.buf[:0]
	for i := 0; i < len(sr.raw); i += sr.sampleBytes {
		digital := decodeSample(sr.raw[i : i+sr.sampleBytes])
		sr.buf = append(sr.buf, convertDigitalToPhysical(digital, signal.DigitalMin, signal.DigitalMax, signal.PhysicalMin, signal.PhysicalMax))
	}
	sr.pos = 0
	sr.currentRecord++

	return nil
}

// decodeSample decodes a little-endian two's-complement sample of 2 or 3 bytes.
func decodeSample(b []byte) int32 {
	if len(b) == 3 {
		v := int32(b[0]) | int32(b[1])<<8 | int32(b[2])<<16
		return v << 8 >> 8
	}
	return int32(int16(uint16(b[0]) | uint16(b[1])<<8))
}

// convertDigitalToPhysical converts a digital value from the data record to a physical value using the calibration factors.
func convertDigitalToPhysical(digital int32, dmin, dmax int, pmin, pmax float64) float64 {
	if dmax == dmin {
		return 0 // Avoid division by zero
	}
	return pmin + (float64(digital)-float64(dmin))*(pmax-pmin)/float64(dmax-dmin)
}

func parseFloat(b []byte) float64 {
	f, err := strconv.ParseFloat(strings.TrimSpace(string(b)), 64)
	if err != nil {
		return 0.0
	}
	return f
}

func parseInt(b []byte) int {
	i, err := strconv.Atoi(strings.TrimSpace(string(b)))
	if err != nil {
		return 0
	}
	return i
}
