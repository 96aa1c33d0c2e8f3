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
)

// Maximum size of one data record, as recommended by the EDF standard.
const maxRecordBytes = 61440

// Writer writes EDF and BDF files.
type Writer struct {
	w           io.WriteSeeker
	hdr         *Header
	dataRecords int // Number of data records written so far.
}

// Create creates a new writer that writes to the given writer. The sample
// width follows hdr.Version.
func Create(w io.WriteSeeker, hdr Header) (*Writer, error) {
	hdr.DataRecords = -1 // Unknown number of data records (at this time).
	hdr.SignalCount = len(hdr.Signals)

	ew := &Writer{w: w, hdr: &hdr}

	// Write the initial header
	if err := ew.writeHeader(); err != nil {
		return nil, fmt.Errorf("error writing header: %w", err)
	}

	return ew, nil
}

// Close finalizes the file by updating the header with the total number of data records.
func (ew *Writer) Close() error {
	ew.hdr.DataRecords = ew.dataRecords
	if err := ew.writeHeader(); err != nil {
		return fmt.Errorf("error writing header: %w", err)
	}

	return nil
}

// WriteRecord writes a single data record. signals holds one slice of
// physical values per signal, each SamplesPerRecord long.
func (ew *Writer) WriteRecord(signals [][]float64) error {
	if len(signals) != ew.hdr.SignalCount {
		return fmt.Errorf("expected %d signals, got %d", ew.hdr.SignalCount, len(signals))
	}

	width := ew.hdr.SampleBytes()
	var totalSamples int
	for i, signal := range signals {
		if len(signal) != ew.hdr.Signals[i].SamplesPerRecord {
			return fmt.Errorf("signal %d: expected %d samples, got %d", i, ew.hdr.Signals[i].SamplesPerRecord, len(signal))
		}
		totalSamples += len(signal)
	}

	if width == 2 && totalSamples*width > maxRecordBytes {
		return fmt.Errorf("data record too large: %d bytes, max is %d bytes", totalSamples*width, maxRecordBytes)
	}

	// Data records follow the header, in order.
	offset := int64(ew.hdr.HeaderBytes) + int64(ew.dataRecords)*int64(totalSamples*width)
	if _, err := ew.w.Seek(offset, io.SeekStart); err != nil {
		return err
	}

	writer := bufio.NewWriter(ew.w)
	sample := make([]byte, width)

	for i, signal := range ew.hdr.Signals {
		for _, value := range signals[i] {
			digital := convertPhysicalToDigital(value, signal.PhysicalMin, signal.PhysicalMax, signal.DigitalMin, signal.DigitalMax)
			encodeSample(sample, digital)
			if _, err := writer.Write(sample); err != nil {
				return err
			}
		}
	}

	if err := writer.Flush(); err != nil {
		return err
	}

	ew.dataRecords++
	return nil
}

// writeHeader writes the header at the start of the file.
func (ew *Writer) writeHeader() error {
	// Rewind to the beginning of the file.
	if _, err := ew.w.Seek(0, io.SeekStart); err != nil {
		return err
	}

	writer := bufio.NewWriter(ew.w)
	ew.hdr.HeaderBytes = 256 + (ew.hdr.SignalCount * 256)

	fixed := []string{
		fmt.Sprintf("%-8s", ew.hdr.Version),
		fmt.Sprintf("%-80s", ew.hdr.PatientID),
		fmt.Sprintf("%-80s", ew.hdr.RecordingID),
		fmt.Sprintf("%-8s", ew.hdr.StartTime.Format("02.01.06")),
		fmt.Sprintf("%-8s", ew.hdr.StartTime.Format("15.04.05")),
		fmt.Sprintf("%-8d", ew.hdr.HeaderBytes),
		fmt.Sprintf("%-44s", ""), // Reserved
		fmt.Sprintf("%-8d", ew.hdr.DataRecords),
		fmt.Sprintf("%-8d", int(math.Ceil(ew.hdr.DataRecordDuration.Seconds()))),
		fmt.Sprintf("%-4d", ew.hdr.SignalCount),
	}
	for _, s := range fixed {
		if _, err := writer.WriteString(s); err != nil {
			return err
		}
	}

	fields := []func(s Signal) string{
		func(s Signal) string { return fmt.Sprintf("%-16s", s.Label) },
		func(s Signal) string { return fmt.Sprintf("%-80s", s.TransducerType) },
		func(s Signal) string { return fmt.Sprintf("%-8s", s.PhysicalDimension) },
		func(s Signal) string { return formatPhysicalValue(s.PhysicalMin) },
		func(s Signal) string { return formatPhysicalValue(s.PhysicalMax) },
		func(s Signal) string { return fmt.Sprintf("%-8d", s.DigitalMin) },
		func(s Signal) string { return fmt.Sprintf("%-8d", s.DigitalMax) },
		func(s Signal) string { return fmt.Sprintf("%-80s", s.Prefiltering) },
		func(s Signal) string { return fmt.Sprintf("%-8d", s.SamplesPerRecord) },
		func(Signal) string { return fmt.Sprintf("%-32s", "") },
	}
	for _, field := range fields {
		for _, signal := range ew.hdr.Signals {
			if _, err := writer.WriteString(field(signal)); err != nil {
				return err
			}
		}
	}

	return writer.Flush()
}

// encodeSample stores digital as little-endian two's complement in len(b) bytes.
func encodeSample(b []byte, digital int32) {
	for i := range b {
		b[i] = byte(digital >> (8 * i))
	}
}

// convertPhysicalToDigital converts a physical value to a digital value using
// the calibration factors, clamped to the digital range.
func convertPhysicalToDigital(physical float64, pmin, pmax float64, dmin, dmax int) int32 {
	if pmax == pmin {
		return 0 // Avoid division by zero
	}
	digital := math.Round(((physical - pmin) * (float64(dmax - dmin)) / (pmax - pmin)) + float64(dmin))
	digital = math.Max(float64(dmin), math.Min(float64(dmax), digital))
	return int32(digital)
}

func formatPhysicalValue(val float64) string {
	// Try with 2 decimal places
	s := fmt.Sprintf("%.2f", val)
	if len(s) > 8 {
		// Fall back to no decimal
		s = fmt.Sprintf("%.0f", val)
	}
	return fmt.Sprintf("%-8s", s)
}
