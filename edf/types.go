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
	"errors"
	"time"
)

type Version string

const (
	// Version0 is the version field of EDF/EDF+ files.
	Version0 Version = "0"
	// VersionBDF is the version field of BioSemi BDF files (24-bit samples).
	VersionBDF Version = "\xffBIOSEMI"
)

var (
	// ErrSignalNotFound is returned when no signal label matches a lookup.
	ErrSignalNotFound = errors.New("signal not found")
	// ErrSignalIndex is returned for a signal index outside the header.
	ErrSignalIndex = errors.New("signal index out of range")
	// ErrUnknownDataRecords is returned when the header does not state the number of data records.
	ErrUnknownDataRecords = errors.New("unknown number of data records")
)

// Header represents the EDF/EDF+ file header.
type Header struct {
	Version            Version       // Version of the standard ("0", or "\xffBIOSEMI" for BDF)
	PatientID          string        // Identification of the patient
	RecordingID        string        // Identification of the recording session
	StartTime          time.Time     // Start date of the recording
	HeaderBytes        int           // Number of bytes in the header
	DataRecordDuration time.Duration // Duration of a single data record
	DataRecords        int           // Number of data records, -1 if unknown
	SignalCount        int           // Number of signals in each data record
	Signals            []Signal      // Details of each signal
}

// SampleBytes is the width of one stored sample: 3 for BDF, 2 otherwise.
func (h *Header) SampleBytes() int {
	if len(h.Version) > 0 && h.Version[0] == 0xff {
		return 3
	}
	return 2
}

// Signal represents the characteristics of each signal in the EDF/EDF+ file.
type Signal struct {
	Label             string  // Label of the signal (e.g., Status, EEG Fpz-Cz)
	TransducerType    string  // Type of transducer used
	PhysicalDimension string  // Physical dimension (e.g., uV, mV)
	PhysicalMin       float64 // Minimum physical value
	PhysicalMax       float64 // Maximum physical value
	DigitalMin        int     // Minimum digital value
	DigitalMax        int     // Maximum digital value
	Prefiltering      string  // Pre-filtering information
	SamplesPerRecord  int     // Number of samples in each data record for this signal
	Reserved          string  // Reserved for future use
}
