// Copyright 2021, 2026 Tamás Gulácsi.
//
// SPDX-License-Identifier: Apache-2.0

// Package render renders dynamic rows as HTML or PDF tables.
package render

import (
	"math"

	"github.com/UNO-SOFT/sheetmap"
)

// Table is a header and rows of cell texts.
type Table struct {
	Title  string
	Header []string
	Rows   [][]string
}

// FromBags returns the table of the bags: the header is the union of their names,
// in order of appearance.
func FromBags(bags []*sheetmap.Bag) Table {
	var t Table
	index := make(map[string]int)
	for _, b := range bags {
		for name := range b.All() {
			if _, ok := index[name]; !ok {
				index[name] = len(t.Header)
				t.Header = append(t.Header, name)
			}
		}
	}
	t.Rows = make([][]string, 0, len(bags))
	for _, b := range bags {
		row := make([]string, len(t.Header))
		for name, v := range b.All() {
			row[index[name]] = sheetmap.ValueOf(v).String()
		}
		t.Rows = append(t.Rows, row)
	}
	return t
}

// gridSizes distributes the columns proportionally to their average text length,
// each column getting at least 1.
func (t Table) gridSizes() []int {
	widths := make([]float64, len(t.Header))
	var avg float64
	for i, s := range t.Header {
		widths[i] = float64(len(s))
		avg += widths[i]
	}
	for _, row := range t.Rows {
		for i, s := range row {
			if i < len(widths) {
				widths[i] += float64(len(s))
				avg += float64(len(s))
			}
		}
	}
	sizes := make([]int, len(widths))
	if len(widths) == 0 {
		return sizes
	}
	avg /= float64(len(widths))
	for i, w := range widths {
		if avg > 0 {
			sizes[i] = int(math.Round(w / avg * 2))
		}
		if sizes[i] == 0 {
			sizes[i] = 1
		}
	}
	return sizes
}
