// SPDX-License-Identifier: MPL-2.0
/*
 * Copyright (C) 2024 Damian Peckett <damian@pecke.tt>.
 *
 * This Source Code Form is subject to the terms of the Mozilla Public
 * License, v. 2.0. If a copy of the MPL was not distributed with this
 * file, You can obtain one at http://mozilla.org/MPL/2.0/.
 */

package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"
)

func TestDefaults(t *testing.T) {
	Convey("Given the default config", t, func() {
		cfg := New()

		Convey("Then it matches the processing constants", func() {
			So(cfg.StatusLabel, ShouldEqual, "status")
			So(cfg.TriggerThreshold, ShouldEqual, 1.0)
			So(cfg.BucketSeconds, ShouldEqual, 30)
			So(cfg.BlinkSuffix, ShouldEqual, "_raw_arousal info.dat")
			So(cfg.OutputFormat, ShouldEqual, FormatXLSX)
			So(cfg.SheetName, ShouldEqual, "result")
			So(cfg.MinTriggerGap, ShouldEqual, time.Duration(0))
			So(cfg.Extension(), ShouldEqual, ".xlsx")
		})

		Convey("Then it validates", func() {
			So(cfg.Validate(), ShouldBeNil)
		})
	})
}

func TestValidate(t *testing.T) {
	Convey("Given an invalid config", t, func() {
		cfg := New()
		cfg.StatusLabel = " "
		cfg.BucketSeconds = 0
		cfg.OutputFormat = "ods"

		Convey("When validating", func() {
			err := cfg.Validate()

			Convey("Then every problem is reported as ErrInvalidConfig", func() {
				So(errors.Is(err, ErrInvalidConfig), ShouldBeTrue)
				So(err.Error(), ShouldContainSubstring, "status_label")
				So(err.Error(), ShouldContainSubstring, "bucket_seconds")
				So(err.Error(), ShouldContainSubstring, "output_format")
			})
		})
	})
}

func TestLoad(t *testing.T) {
	Convey("Given a config file and environment overrides", t, func() {
		path := filepath.Join(t.TempDir(), "drowsy.yaml")
		So(os.WriteFile(path, []byte("status_label: trigger\nbucket_seconds: 60\nmin_trigger_gap: 250ms\noutput_format: csv\n"), 0o644), ShouldBeNil)
		t.Setenv("DROWSY_BUCKET_SECONDS", "15")
		t.Setenv("DROWSY_LOG_LEVEL", "debug")

		Convey("When loading", func() {
			cfg, err := Load(path)

			Convey("Then the environment wins over the file and the file over defaults", func() {
				So(err, ShouldBeNil)
				So(cfg.StatusLabel, ShouldEqual, "trigger")
				So(cfg.BucketSeconds, ShouldEqual, 15)
				So(cfg.LogLevel, ShouldEqual, "debug")
				So(cfg.MinTriggerGap, ShouldEqual, 250*time.Millisecond)
				So(cfg.OutputFormat, ShouldEqual, FormatCSV)
				So(cfg.SheetName, ShouldEqual, "result")
			})
		})
	})

	Convey("Given an environment override that fails validation", t, func() {
		t.Setenv("DROWSY_OUTPUT_FORMAT", "pdf")

		Convey("When loading without a file", func() {
			_, err := Load("")

			Convey("Then ErrInvalidConfig is returned", func() {
				So(errors.Is(err, ErrInvalidConfig), ShouldBeTrue)
			})
		})
	})

	Convey("Given a missing config file", t, func() {
		_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))

		Convey("Then loading fails", func() {
			So(err, ShouldNotBeNil)
		})
	})
}
