// SPDX-License-Identifier: MPL-2.0
/*
 * Copyright (C) 2024 Damian Peckett <damian@pecke.tt>.
 *
 * This Source Code Form is subject to the terms of the Mozilla Public
 * License, v. 2.0. If a copy of the MPL was not distributed with this
 * file, You can obtain one at http://mozilla.org/MPL/2.0/.
 */

// Package telemetry counts what a processing run produced. Counters live on a
// private registry and are exported as a Prometheus textfile at the end of a
// run, for node_exporter's textfile collector.
package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "drowsy"

// Recording outcomes.
const (
	ResultOK             = "ok"
	ResultMissingChannel = "missing_channel"
	ResultFailed         = "failed"
)

// Recorder holds the run counters.
type Recorder struct {
	registry      *prometheus.Registry
	recordings    *prometheus.CounterVec
	timingRecords prometheus.Counter
	blinkBuckets  prometheus.Counter
	blinkSkipped  *prometheus.CounterVec
	rowsWritten   prometheus.Counter
}

// New creates a Recorder with its own registry.
func New() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		recordings: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "recordings_total",
			Help:      "Recordings processed, by result.",
		}, []string{"result"}),
		timingRecords: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "timing_records_total",
			Help:      "Completed stimulus, reaction, recovery cycles.",
		}),
		blinkBuckets: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "blink_buckets_total",
			Help:      "Blink count intervals merged into tables.",
		}),
		blinkSkipped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "blink_logs_skipped_total",
			Help:      "Blink logs not merged, by reason.",
		}, []string{"reason"}),
		rowsWritten: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rows_written_total",
			Help:      "Table rows persisted.",
		}),
	}
	r.registry.MustRegister(r.recordings, r.timingRecords, r.blinkBuckets, r.blinkSkipped, r.rowsWritten)
	return r
}

// Recording counts one processed recording with the given result.
func (r *Recorder) Recording(result string) {
	r.recordings.WithLabelValues(result).Inc()
}

// TimingRecords adds n completed cycles.
func (r *Recorder) TimingRecords(n int) {
	r.timingRecords.Add(float64(n))
}

// BlinkBuckets adds n merged intervals.
func (r *Recorder) BlinkBuckets(n int) {
	r.blinkBuckets.Add(float64(n))
}

// BlinkSkipped counts a blink log that was not merged.
func (r *Recorder) BlinkSkipped(reason string) {
	r.blinkSkipped.WithLabelValues(reason).Inc()
}

// RowsWritten adds n persisted rows.
func (r *Recorder) RowsWritten(n int) {
	r.rowsWritten.Add(float64(n))
}

// Gatherer exposes the registry.
func (r *Recorder) Gatherer() prometheus.Gatherer {
	return r.registry
}

// WriteTextfile writes all counters to path in the Prometheus text format.
func (r *Recorder) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, r.registry)
}
