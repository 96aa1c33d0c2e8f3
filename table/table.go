// SPDX-License-Identifier: MPL-2.0
/*
 * Copyright (C) 2024 Damian Peckett <damian@pecke.tt>.
 *
 * This Source Code Form is subject to the terms of the Mozilla Public
 * License, v. 2.0. If a copy of the MPL was not distributed with this
 * file, You can obtain one at http://mozilla.org/MPL/2.0/.
 */

// Package table holds the per-recording metrics table: one row per distinct
// second, kept in ascending order.
package table

import (
	"sort"

	"github.com/OpenPSG/drowsy/segment"
)

// SleepState marks the bounds of a sleep interval for shaded-region plots.
type SleepState int

const (
	SleepNone  SleepState = 0
	SleepStart SleepState = 1
	SleepEnd   SleepState = 2
)

// Row is one line of the metrics table. Nil fields are empty cells.
type Row struct {
	Second       float64
	ReactionTime *float64
	AlphaTime    *float64 // filled in by hand downstream, never by this package
	RecoveryTime *float64
	SleepState   *SleepState
	BlinkCount   *int
}

// Table is a set of rows unique and ascending by Second.
type Table struct {
	rows []Row
}

// New returns an empty table.
func New() *Table {
	return &Table{}
}

// Len returns the number of rows.
func (t *Table) Len() int {
	return len(t.rows)
}

// Rows returns a copy of the rows in ascending order.
func (t *Table) Rows() []Row {
	out := make([]Row, len(t.rows))
	copy(out, t.rows)
	return out
}

// Lookup returns the row stored for second.
func (t *Table) Lookup(second float64) (Row, bool) {
	i, ok := t.search(second)
	if !ok {
		return Row{}, false
	}
	return t.rows[i], true
}

// UpsertReaction writes the timings of one event cycle at its event second.
// Records arrive in time order, so this is normally an append.
func (t *Table) UpsertReaction(rec segment.TimingRecord) {
	reaction, recovery := rec.ReactionDuration, rec.RecoveryDuration

	i, ok := t.search(rec.EventSecond)
	if !ok {
		t.insert(i, Row{Second: rec.EventSecond})
	}
	t.rows[i].ReactionTime = &reaction
	t.rows[i].RecoveryTime = &recovery
}

// MergeBlinkBucket sets the blink count of the row at intervalStart, inserting
// that row in order if no row has exactly that whole second. A later merge for
// the same interval replaces the count.
func (t *Table) MergeBlinkBucket(intervalStart, count int) {
	key := float64(intervalStart)

	// First row strictly after the interval start; an exact match sits just before it.
	i := sort.Search(len(t.rows), func(i int) bool { return t.rows[i].Second > key })
	if i == 0 || t.rows[i-1].Second != key {
		t.insert(i, Row{Second: key})
	} else {
		i--
	}
	t.rows[i].BlinkCount = &count
}

// put stores row, replacing any row with the same second.
func (t *Table) put(row Row) {
	i, ok := t.search(row.Second)
	if ok {
		t.rows[i] = row
		return
	}
	t.insert(i, row)
}

// search returns the index of second, or the index it would be inserted at.
func (t *Table) search(second float64) (int, bool) {
	i := sort.Search(len(t.rows), func(i int) bool { return t.rows[i].Second >= second })
	return i, i < len(t.rows) && t.rows[i].Second == second
}

func (t *Table) insert(i int, row Row) {
	t.rows = append(t.rows, Row{})
	copy(t.rows[i+1:], t.rows[i:])
	t.rows[i] = row
}
