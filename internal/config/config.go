// SPDX-License-Identifier: MPL-2.0
/*
 * Copyright (C) 2024 Damian Peckett <damian@pecke.tt>.
 *
 * This Source Code Form is subject to the terms of the Mozilla Public
 * License, v. 2.0. If a copy of the MPL was not distributed with this
 * file, You can obtain one at http://mozilla.org/MPL/2.0/.
 */

// Package config defines the processing configuration and how it is loaded.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/OpenPSG/drowsy/blink"
	"github.com/OpenPSG/drowsy/segment"
	"github.com/OpenPSG/drowsy/table"
)

// Output formats.
const (
	FormatXLSX = "xlsx"
	FormatCSV  = "csv"
)

// ErrInvalidConfig is returned by Validate and Load for unusable settings.
var ErrInvalidConfig = errors.New("invalid config")

// Config controls how recordings are processed.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// StatusLabel is matched case-insensitively against channel labels.
	StatusLabel string `koanf:"status_label"`

	// TriggerThreshold is the level a status sample must exceed.
	TriggerThreshold float64 `koanf:"trigger_threshold"`

	// MinTriggerGap debounces trigger samples; zero disables it.
	MinTriggerGap time.Duration `koanf:"min_trigger_gap"`

	// BlinkSuffix locates the blink log next to a recording.
	BlinkSuffix string `koanf:"blink_suffix"`

	// BucketSeconds is the blink counting interval.
	BucketSeconds int `koanf:"bucket_seconds"`

	// OutputFormat is xlsx or csv.
	OutputFormat string `koanf:"output_format"`

	// SheetName is the worksheet name for xlsx output.
	SheetName string `koanf:"sheet_name"`

	// MetricsTextfile, when set, receives run counters in Prometheus text format.
	MetricsTextfile string `koanf:"metrics_textfile"`
}

// New returns a Config populated with defaults.
func New() *Config {
	return &Config{
		LogLevel:         "info",
		StatusLabel:      "status",
		TriggerThreshold: segment.DefaultThreshold,
		BlinkSuffix:      blink.DefaultSuffix,
		BucketSeconds:    blink.DefaultWidth,
		OutputFormat:     FormatXLSX,
		SheetName:        table.DefaultSheet,
	}
}

// Validate reports settings the pipeline cannot run with.
func (c *Config) Validate() error {
	var errs []error
	if strings.TrimSpace(c.StatusLabel) == "" {
		errs = append(errs, errors.New("status_label must not be empty"))
	}
	if c.BucketSeconds < 1 {
		errs = append(errs, fmt.Errorf("bucket_seconds must be positive, got %d", c.BucketSeconds))
	}
	if c.MinTriggerGap < 0 {
		errs = append(errs, fmt.Errorf("min_trigger_gap must not be negative, got %s", c.MinTriggerGap))
	}
	if c.BlinkSuffix == "" {
		errs = append(errs, errors.New("blink_suffix must not be empty"))
	}
	switch c.OutputFormat {
	case FormatXLSX, FormatCSV:
	default:
		errs = append(errs, fmt.Errorf("output_format must be %s or %s, got %q", FormatXLSX, FormatCSV, c.OutputFormat))
	}

	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, errors.Join(errs...))
	}
	return nil
}

// Extension returns the file extension of the configured output format.
func (c *Config) Extension() string {
	return "." + c.OutputFormat
}
