// SPDX-License-Identifier: MPL-2.0
/*
 * Copyright (C) 2024 Damian Peckett <damian@pecke.tt>.
 *
 * This Source Code Form is subject to the terms of the Mozilla Public
 * License, v. 2.0. If a copy of the MPL was not distributed with this
 * file, You can obtain one at http://mozilla.org/MPL/2.0/.
 */

// Package pipeline processes one recording at a time: it segments the status
// channel, merges the blink log and writes the metrics table next to the
// recording.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/OpenPSG/drowsy/blink"
	"github.com/OpenPSG/drowsy/edf"
	"github.com/OpenPSG/drowsy/internal/config"
	"github.com/OpenPSG/drowsy/internal/logger"
	"github.com/OpenPSG/drowsy/internal/telemetry"
	"github.com/OpenPSG/drowsy/segment"
	"github.com/OpenPSG/drowsy/table"
	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
)

// Result describes one processed recording.
type Result struct {
	Recording    string
	Output       string
	SampleRate   int
	TotalSeconds int
	Records      []segment.TimingRecord
	Buckets      []blink.Bucket
	Table        *table.Table

	// TrailingPhase is not AwaitingStimulus when the recording ends mid-cycle.
	TrailingPhase segment.Phase
	// BlinkErr is set when the blink log was missing or malformed.
	BlinkErr error
}

// Pipeline runs the per-recording processing.
type Pipeline struct {
	cfg *config.Config
	log logger.Logger
	rec *telemetry.Recorder
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithConfig sets the configuration. Defaults to config.New().
func WithConfig(cfg *config.Config) Option {
	return func(p *Pipeline) {
		if cfg != nil {
			p.cfg = cfg
		}
	}
}

// WithLogger sets the logger. Defaults to a discarding logger.
func WithLogger(log logger.Logger) Option {
	return func(p *Pipeline) {
		if log != nil {
			p.log = log
		}
	}
}

// WithTelemetry sets the run counters.
func WithTelemetry(rec *telemetry.Recorder) Option {
	return func(p *Pipeline) {
		if rec != nil {
			p.rec = rec
		}
	}
}

// New creates a Pipeline.
func New(opts ...Option) *Pipeline {
	p := &Pipeline{
		cfg: config.New(),
		log: logger.Nop(),
		rec: telemetry.New(),
	}
	for _, opt := range opts {
		opt(p)
	}
	p.log = p.log.Named("pipeline")
	return p
}

// OutputPath returns where the table for a recording is written.
func (p *Pipeline) OutputPath(recordingPath string) string {
	return strings.TrimSuffix(recordingPath, filepath.Ext(recordingPath)) + p.cfg.Extension()
}

// Process runs the whole pipeline for one recording. A missing status channel
// returns ErrMissingChannel and writes nothing; blink log problems are logged,
// set on Result.BlinkErr and do not fail the run.
func (p *Pipeline) Process(ctx context.Context, recordingPath string) (*Result, error) {
	log := p.log.With(logger.String("run_id", uuid.NewString()), logger.String("recording", recordingPath))

	res, err := p.process(ctx, log, recordingPath)
	switch {
	case err == nil:
		p.rec.Recording(telemetry.ResultOK)
	case errors.Is(err, ErrMissingChannel):
		p.rec.Recording(telemetry.ResultMissingChannel)
		log.Warn(ctx, "no status channel, recording skipped", logger.String("label", p.cfg.StatusLabel))
	default:
		p.rec.Recording(telemetry.ResultFailed)
		log.Error(ctx, "processing failed", logger.Error(err))
	}
	return res, err
}

func (p *Pipeline) process(ctx context.Context, log logger.Logger, recordingPath string) (*Result, error) {
	res := &Result{Recording: recordingPath}

	samples, rate, err := p.readStatus(ctx, log, recordingPath)
	if err != nil {
		return nil, err
	}
	res.SampleRate = rate
	res.TotalSeconds = len(samples) / rate
	log.Info(ctx, "status channel loaded",
		logger.Int("sample_rate", rate),
		logger.Int("total_seconds", res.TotalSeconds),
		logger.String("samples", humanize.Comma(int64(len(samples)))))

	res.Records, res.TrailingPhase, err = segment.Scan(samples, rate,
		segment.WithThreshold(p.cfg.TriggerThreshold),
		segment.WithMinGap(p.cfg.MinTriggerGap))
	if err != nil {
		return nil, err
	}
	if res.TrailingPhase != segment.AwaitingStimulus {
		log.Debug(ctx, "incomplete trailing cycle discarded", logger.String("trailing_phase", res.TrailingPhase.String()))
	}

	res.Table = table.New()
	for _, r := range res.Records {
		res.Table.UpsertReaction(r)
		log.Debug(ctx, "event",
			logger.Float64("second", r.EventSecond),
			logger.Float64("reaction", r.ReactionDuration),
			logger.Float64("recovery", r.RecoveryDuration))
	}
	p.rec.TimingRecords(len(res.Records))
	log.Info(ctx, "segmented status channel", logger.Int("events", len(res.Records)))

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	res.Buckets, res.BlinkErr = p.mergeBlinks(ctx, log, recordingPath, res.Table)

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	res.Output = p.OutputPath(recordingPath)
	if err := p.write(res.Table, res.Output); err != nil {
		return nil, fmt.Errorf("error writing %s: %w", res.Output, err)
	}
	p.rec.RowsWritten(res.Table.Len())
	log.Info(ctx, "table written", logger.String("output", res.Output), logger.Int("rows", res.Table.Len()))

	return res, nil
}

// readStatus opens the recording and returns the status channel and its rate.
func (p *Pipeline) readStatus(ctx context.Context, log logger.Logger, path string) ([]float64, int, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, 0, fmt.Errorf("error opening recording: %w", err)
	}
	defer f.Close()

	er, err := edf.Open(f)
	if err != nil {
		return nil, 0, fmt.Errorf("error reading recording header: %w", err)
	}
	log.Debug(ctx, "channels", logger.Any("labels", er.Labels()))

	idx, err := er.FindSignal(p.cfg.StatusLabel)
	if err != nil {
		if errors.Is(err, edf.ErrSignalNotFound) {
			return nil, 0, fmt.Errorf("%w: %s", ErrMissingChannel, path)
		}
		return nil, 0, err
	}

	rate, err := er.SampleRate(idx)
	if err != nil {
		return nil, 0, err
	}

	samples, err := er.ReadSignal(idx)
	if err != nil {
		return nil, 0, fmt.Errorf("error reading status channel: %w", err)
	}
	return samples, rate, nil
}

// mergeBlinks loads the recording's blink log and merges it into t in
// ascending interval order. On any error t is left untouched.
func (p *Pipeline) mergeBlinks(ctx context.Context, log logger.Logger, recordingPath string, t *table.Table) ([]blink.Bucket, error) {
	path := blink.LogPath(recordingPath, p.cfg.BlinkSuffix)

	buckets, err := blink.Load(path, p.cfg.BucketSeconds)
	if err != nil {
		reason := "error"
		switch {
		case errors.Is(err, blink.ErrMissingAuxiliaryData):
			reason = "missing"
		case errors.Is(err, blink.ErrMalformedInput):
			reason = "malformed"
		}
		p.rec.BlinkSkipped(reason)
		log.Warn(ctx, "blink counts skipped", logger.String("blink_log", path), logger.Error(err))
		return nil, err
	}

	sorted := buckets.Sorted()
	for _, b := range sorted {
		t.MergeBlinkBucket(b.IntervalStart, b.Count)
	}
	p.rec.BlinkBuckets(len(sorted))
	log.Info(ctx, "blink counts merged", logger.Int("buckets", len(sorted)), logger.Int("blinks", buckets.Total()))

	return sorted, nil
}

func (p *Pipeline) write(t *table.Table, path string) error {
	if p.cfg.OutputFormat == config.FormatCSV {
		f, err := os.Create(path)
		if err != nil {
			return err
		}
		if err := table.WriteCSV(t, f); err != nil {
			f.Close()
			return err
		}
		return f.Close()
	}
	return table.WriteXLSX(t, path, p.cfg.SheetName)
}
