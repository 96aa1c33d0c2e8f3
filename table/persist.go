// SPDX-License-Identifier: MPL-2.0
/*
 * Copyright (C) 2024 Damian Peckett <damian@pecke.tt>.
 *
 * This Source Code Form is subject to the terms of the Mozilla Public
 * License, v. 2.0. If a copy of the MPL was not distributed with this
 * file, You can obtain one at http://mozilla.org/MPL/2.0/.
 */

package table

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"
)

// DefaultSheet is the worksheet the table is written to.
const DefaultSheet = "result"

// Header is the fixed column header of a persisted table.
var Header = []string{
	"seconds",
	"event-reaction-time",
	"alpha-wave-time",
	"recovery-time",
	"asleep-state",
	"blink-count",
}

// cells renders a row in column order; empty cells are nil.
func (r Row) cells() []any {
	out := []any{r.Second, nil, nil, nil, nil, nil}
	if r.ReactionTime != nil {
		out[1] = *r.ReactionTime
	}
	if r.AlphaTime != nil {
		out[2] = *r.AlphaTime
	}
	if r.RecoveryTime != nil {
		out[3] = *r.RecoveryTime
	}
	if r.SleepState != nil {
		out[4] = int(*r.SleepState)
	}
	if r.BlinkCount != nil {
		out[5] = *r.BlinkCount
	}
	return out
}

// WriteXLSX writes the table to a new workbook at path with a single sheet.
func WriteXLSX(t *Table, path, sheet string) error {
	if sheet == "" {
		sheet = DefaultSheet
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), sheet); err != nil {
		return fmt.Errorf("error naming sheet: %w", err)
	}

	for col, title := range Header {
		if err := setCell(f, sheet, col+1, 1, title); err != nil {
			return err
		}
	}

	for i, row := range t.rows {
		for col, v := range row.cells() {
			if v == nil {
				continue
			}
			if err := setCell(f, sheet, col+1, i+2, v); err != nil {
				return err
			}
		}
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("error saving workbook: %w", err)
	}
	return nil
}

func setCell(f *excelize.File, sheet string, col, row int, v any) error {
	cell, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		return err
	}
	if err := f.SetCellValue(sheet, cell, v); err != nil {
		return fmt.Errorf("error writing cell %s: %w", cell, err)
	}
	return nil
}

// ReadXLSX loads a table previously written by WriteXLSX.
func ReadXLSX(path, sheet string) (*Table, error) {
	if sheet == "" {
		sheet = DefaultSheet
	}

	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("error opening workbook: %w", err)
	}
	defer f.Close()

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("error reading sheet %q: %w", sheet, err)
	}

	t := New()
	for i, cells := range rows {
		if i == 0 {
			continue // header
		}
		row, ok, err := parseRow(cells)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+1, err)
		}
		if ok {
			t.put(row)
		}
	}
	return t, nil
}

// parseRow decodes one persisted row. Rows without a second are skipped.
func parseRow(cells []string) (Row, bool, error) {
	cell := func(i int) string {
		if i < len(cells) {
			return strings.TrimSpace(cells[i])
		}
		return ""
	}

	if cell(0) == "" {
		return Row{}, false, nil
	}

	var row Row
	var err error
	if row.Second, err = strconv.ParseFloat(cell(0), 64); err != nil {
		return Row{}, false, fmt.Errorf("seconds: %w", err)
	}
	if row.ReactionTime, err = optionalFloat(cell(1)); err != nil {
		return Row{}, false, fmt.Errorf("event-reaction-time: %w", err)
	}
	if row.AlphaTime, err = optionalFloat(cell(2)); err != nil {
		return Row{}, false, fmt.Errorf("alpha-wave-time: %w", err)
	}
	if row.RecoveryTime, err = optionalFloat(cell(3)); err != nil {
		return Row{}, false, fmt.Errorf("recovery-time: %w", err)
	}
	if s := cell(4); s != "" {
		v, err := strconv.Atoi(s)
		if err != nil {
			return Row{}, false, fmt.Errorf("asleep-state: %w", err)
		}
		state := SleepState(v)
		row.SleepState = &state
	}
	if s := cell(5); s != "" {
		v, err := strconv.Atoi(s)
		if err != nil {
			return Row{}, false, fmt.Errorf("blink-count: %w", err)
		}
		row.BlinkCount = &v
	}
	return row, true, nil
}

func optionalFloat(s string) (*float64, error) {
	if s == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

// WriteCSV writes the table as comma-separated values with a header line.
func WriteCSV(t *Table, w io.Writer) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Header); err != nil {
		return err
	}

	record := make([]string, len(Header))
	for _, row := range t.rows {
		for col, v := range row.cells() {
			switch v := v.(type) {
			case float64:
				record[col] = strconv.FormatFloat(v, 'f', -1, 64)
			case int:
				record[col] = strconv.Itoa(v)
			default:
				record[col] = ""
			}
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}
