// SPDX-License-Identifier: MPL-2.0
/*
 * Copyright (C) 2024 Damian Peckett <damian@pecke.tt>.
 *
 * This Source Code Form is subject to the terms of the Mozilla Public
 * License, v. 2.0. If a copy of the MPL was not distributed with this
 * file, You can obtain one at http://mozilla.org/MPL/2.0/.
 */

package pipeline

import (
	"errors"

	"github.com/OpenPSG/drowsy/blink"
)

var (
	// ErrMissingChannel is returned when a recording has no status channel.
	// Nothing is written for that recording.
	ErrMissingChannel = errors.New("status channel not found")

	// ErrMissingAuxiliaryData and ErrMalformedInput are reported on
	// Result.BlinkErr; the table is still written, without blink counts.
	ErrMissingAuxiliaryData = blink.ErrMissingAuxiliaryData
	ErrMalformedInput       = blink.ErrMalformedInput
)
