// SPDX-License-Identifier: MPL-2.0
/*
 * Copyright (C) 2024 Damian Peckett <damian@pecke.tt>.
 *
 * This Source Code Form is subject to the terms of the Mozilla Public
 * License, v. 2.0. If a copy of the MPL was not distributed with this
 * file, You can obtain one at http://mozilla.org/MPL/2.0/.
 */

// Command drowsy extracts event timings and blink counts from driving
// simulator recordings into a per-second metrics table.
package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/OpenPSG/drowsy/blink"
	"github.com/OpenPSG/drowsy/edf"
	"github.com/OpenPSG/drowsy/internal/config"
	"github.com/OpenPSG/drowsy/internal/logger"
	"github.com/OpenPSG/drowsy/internal/synth"
	"github.com/OpenPSG/drowsy/internal/telemetry"
	"github.com/OpenPSG/drowsy/pipeline"
	"github.com/urfave/cli/v2"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newApp(os.Stdin, os.Stderr).RunContext(ctx, os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newApp(stdin io.Reader, stderr io.Writer) *cli.App {
	return &cli.App{
		Name:      "drowsy",
		Usage:     "reaction, recovery and blink metrics from driving simulator recordings",
		ErrWriter: stderr,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "YAML configuration file",
				EnvVars: []string{config.EnvPrefix + "CONFIG"},
			},
		},
		Commands: []*cli.Command{
			{
				Name:      "process",
				Usage:     "write the metrics table for each recording",
				ArgsUsage: "[recording.edf|.bdf ...]",
				Action: func(c *cli.Context) error {
					return runProcess(c, stdin, stderr)
				},
			},
			{
				Name:      "synth",
				Usage:     "write a synthetic recording and blink log",
				ArgsUsage: "<out.edf>",
				Flags: []cli.Flag{
					&cli.IntFlag{Name: "seconds", Value: 600, Usage: "recording length"},
					&cli.IntFlag{Name: "rate", Value: 500, Usage: "sample rate in Hz"},
					&cli.Int64Flag{Name: "seed", Value: 1, Usage: "random seed"},
					&cli.BoolFlag{Name: "bdf", Usage: "write 24-bit BDF instead of EDF"},
				},
				Action: runSynth,
			},
		},
	}
}

func runProcess(c *cli.Context, stdin io.Reader, stderr io.Writer) error {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return cli.Exit(fmt.Sprintf("failed to load config: %v", err), 2)
	}

	log, err := logger.New(stderr, cfg.LogLevel)
	if err != nil {
		return cli.Exit(err.Error(), 2)
	}

	paths := c.Args().Slice()
	if len(paths) == 0 {
		path, err := promptPath(stdin, c.App.Writer)
		if err != nil {
			return cli.Exit(err.Error(), 2)
		}
		paths = []string{path}
	}

	rec := telemetry.New()
	p := pipeline.New(pipeline.WithConfig(cfg), pipeline.WithLogger(log), pipeline.WithTelemetry(rec))

	var failed int
	for _, path := range paths {
		res, err := p.Process(c.Context, path)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return err
			}
			failed++
			continue
		}
		fmt.Fprintf(c.App.Writer, "%s: %d events, %d blink intervals -> %s\n",
			path, len(res.Records), len(res.Buckets), res.Output)
	}

	if cfg.MetricsTextfile != "" {
		if err := rec.WriteTextfile(cfg.MetricsTextfile); err != nil {
			log.Warn(c.Context, "failed to write metrics textfile", logger.String("path", cfg.MetricsTextfile), logger.Error(err))
		}
	}

	if failed > 0 {
		return cli.Exit(fmt.Sprintf("%d of %d recordings failed", failed, len(paths)), 1)
	}
	return nil
}

// promptPath asks for a single recording path on stdin. Quotes left by
// drag-and-drop or "copy as path" are removed.
func promptPath(stdin io.Reader, w io.Writer) (string, error) {
	fmt.Fprint(w, "Recording path: ")
	line, err := bufio.NewReader(stdin).ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		return "", fmt.Errorf("no recording given: %w", err)
	}
	path := strings.TrimSpace(strings.ReplaceAll(line, `"`, ""))
	if path == "" {
		return "", errors.New("no recording given")
	}
	return path, nil
}

func runSynth(c *cli.Context) error {
	out := c.Args().First()
	if out == "" {
		return cli.Exit("output path required", 2)
	}

	seconds, rate := c.Int("seconds"), c.Int("rate")
	if seconds < 1 || rate < 1 {
		return cli.Exit(fmt.Sprintf("seconds and rate must be positive, got %d s at %d Hz", seconds, rate), 2)
	}

	rec, blinks := synth.Random(c.Int64("seed"), seconds, rate)
	if c.Bool("bdf") {
		rec.Version = edf.VersionBDF
	}
	if err := rec.Write(out); err != nil {
		return err
	}

	logPath := blink.LogPath(out, blink.DefaultSuffix)
	if err := synth.WriteBlinkLog(logPath, len(blinks), blinks); err != nil {
		return err
	}

	fmt.Fprintf(c.App.Writer, "wrote %s (%d events) and %s (%d blinks)\n", out, len(rec.Events), logPath, len(blinks))
	return nil
}
