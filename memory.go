// Copyright 2026 Tamás Gulácsi.
//
// SPDX-License-Identifier: Apache-2.0

package sheetmap

import (
	"fmt"
	"maps"
	"slices"
	"strings"
)

// MemoryWorkbook is an in-memory Workbook.
type MemoryWorkbook struct {
	sheets []*memorySheet
}

var _ Workbook = (*MemoryWorkbook)(nil)

// NewMemoryWorkbook returns an empty in-memory workbook.
func NewMemoryWorkbook() *MemoryWorkbook { return &MemoryWorkbook{} }

func (wb *MemoryWorkbook) SheetCount() int { return len(wb.sheets) }

func (wb *MemoryWorkbook) SheetAt(i int) (Sheet, error) {
	if i < 0 || i >= len(wb.sheets) {
		return nil, fmt.Errorf("sheet %d of %d: %w", i, len(wb.sheets), ErrSheetIndex)
	}
	return wb.sheets[i], nil
}

func (wb *MemoryWorkbook) SheetNamed(name string) (Sheet, bool) {
	for _, sh := range wb.sheets {
		if strings.EqualFold(sh.name, name) {
			return sh, true
		}
	}
	return nil, false
}

func (wb *MemoryWorkbook) CreateSheet(name string) (Sheet, error) {
	if _, exists := wb.SheetNamed(name); exists {
		return nil, fmt.Errorf("sheet %q already exists", name)
	}
	sh := &memorySheet{name: name, rows: make(map[int]*memoryRow)}
	wb.sheets = append(wb.sheets, sh)
	return sh, nil
}

type memorySheet struct {
	rows map[int]*memoryRow
	name string
}

func (sh *memorySheet) Name() string { return sh.name }
func (sh *memorySheet) FirstRowIndex() int {
	if len(sh.rows) == 0 {
		return -1
	}
	return slices.Min(slices.Collect(maps.Keys(sh.rows)))
}
func (sh *memorySheet) LastRowIndex() int {
	if len(sh.rows) == 0 {
		return -1
	}
	return slices.Max(slices.Collect(maps.Keys(sh.rows)))
}
func (sh *memorySheet) RowAt(i int) Row {
	if r := sh.rows[i]; r != nil {
		return r
	}
	return nil
}
func (sh *memorySheet) CreateRow(i int) (Row, error) {
	if i < 0 || i >= MaxRowCount {
		return nil, fmt.Errorf("row %d: %w", i, ErrTooManyRows)
	}
	r := sh.rows[i]
	if r == nil {
		r = &memoryRow{index: i, cells: make(map[int]*memoryCell)}
		sh.rows[i] = r
	}
	return r, nil
}
func (sh *memorySheet) RemoveRow(i int) error { delete(sh.rows, i); return nil }

type memoryRow struct {
	cells map[int]*memoryCell
	index int
}

func (r *memoryRow) Index() int { return r.index }
func (r *memoryRow) CellAt(j int) Cell {
	if c := r.cells[j]; c != nil {
		return c
	}
	return nil
}
func (r *memoryRow) CreateCell(j int) (Cell, error) {
	if j < 0 || j >= MaxColumnCount {
		return nil, fmt.Errorf("column %d: %w", j, ErrInvalidArgument)
	}
	c := r.cells[j]
	if c == nil {
		c = &memoryCell{col: j}
		r.cells[j] = c
	}
	return c, nil
}
func (r *memoryRow) Cells() []Cell {
	cells := make([]Cell, 0, len(r.cells))
	for _, j := range slices.Sorted(maps.Keys(r.cells)) {
		cells = append(cells, r.cells[j])
	}
	return cells
}

type memoryCell struct {
	style Style
	value Value
	col   int
}

func (c *memoryCell) ColumnIndex() int       { return c.col }
func (c *memoryCell) Value() Value           { return c.value }
func (c *memoryCell) SetValue(v Value) error { c.value = v; return nil }
func (c *memoryCell) Style() Style           { return c.style }
func (c *memoryCell) SetStyle(s Style) error { c.style = s; return nil }
func (c *memoryCell) IsDateFormatted() bool {
	return c.value.Kind == KindDate || c.style.Format != "" && IsDateFormat(c.style.Format)
}
