// Copyright 2020, 2026 Tamás Gulácsi.
//
// SPDX-License-Identifier: Apache-2.0

// Package xlsx implements sheetmap.Workbook over Office Open XML (.xlsx) files, with excelize.
package xlsx

import (
	"errors"
	"fmt"
	"io"
	"os"
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/UNO-SOFT/sheetmap"
	"github.com/xuri/excelize/v2"
)

var _ = (sheetmap.Workbook)((*Workbook)(nil))

// MaxRowCount is the number of maximum rows.
const MaxRowCount = excelize.TotalRows

// Workbook is an xlsx workbook.
//
// It keeps the raw cell values of the sheets it has read in memory,
// so the file must not be modified through File while the Workbook is in use.
type Workbook struct {
	xl     *excelize.File
	styles map[string]int
	dates  map[int]bool
	sheets map[string]*Sheet
	// fresh is true while the default "Sheet1" of a new file is untouched.
	fresh bool
	mu    sync.Mutex
}

// NewFile returns a new, empty workbook.
// The first CreateSheet renames its default sheet.
func NewFile() *Workbook {
	wb := New(excelize.NewFile())
	wb.fresh = true
	return wb
}

// New returns a Workbook over the excelize File.
func New(xl *excelize.File) *Workbook {
	return &Workbook{xl: xl, sheets: make(map[string]*Sheet)}
}

// Open the named xlsx file. A missing file is sheetmap.ErrFileNotFound.
func Open(path string) (*Workbook, error) {
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%q: %w", path, sheetmap.ErrFileNotFound)
		}
		return nil, err
	}
	xl, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open %q: %w", path, err)
	}
	return New(xl), nil
}

// OpenReader reads the xlsx from r.
func OpenReader(r io.Reader) (*Workbook, error) {
	xl, err := excelize.OpenReader(r)
	if err != nil {
		return nil, err
	}
	return New(xl), nil
}

// File returns the underlying excelize.File.
func (wb *Workbook) File() *excelize.File { return wb.xl }

// WriteTo writes the workbook as xlsx to w.
func (wb *Workbook) WriteTo(w io.Writer) (int64, error) {
	wb.mu.Lock()
	defer wb.mu.Unlock()
	return wb.xl.WriteTo(w)
}

// SaveAs writes the workbook into the named file.
func (wb *Workbook) SaveAs(path string) error {
	wb.mu.Lock()
	defer wb.mu.Unlock()
	return wb.xl.SaveAs(path)
}

func (wb *Workbook) Close() error {
	if wb == nil || wb.xl == nil {
		return nil
	}
	wb.mu.Lock()
	defer wb.mu.Unlock()
	xl := wb.xl
	wb.xl = nil
	return xl.Close()
}

func (wb *Workbook) SheetCount() int { return len(wb.xl.GetSheetList()) }

func (wb *Workbook) SheetAt(i int) (sheetmap.Sheet, error) {
	names := wb.xl.GetSheetList()
	if i < 0 || i >= len(names) {
		return nil, fmt.Errorf("sheet %d of %d: %w", i, len(names), sheetmap.ErrSheetIndex)
	}
	return wb.sheet(names[i]), nil
}

func (wb *Workbook) SheetNamed(name string) (sheetmap.Sheet, bool) {
	for _, nm := range wb.xl.GetSheetList() {
		if strings.EqualFold(nm, name) {
			return wb.sheet(nm), true
		}
	}
	return nil, false
}

func (wb *Workbook) CreateSheet(name string) (sheetmap.Sheet, error) {
	wb.mu.Lock()
	defer wb.mu.Unlock()
	if wb.fresh {
		wb.fresh = false
		if err := wb.xl.SetSheetName("Sheet1", name); err != nil {
			return nil, err
		}
		delete(wb.sheets, "Sheet1")
	} else if _, err := wb.xl.NewSheet(name); err != nil {
		return nil, err
	}
	sh := &Sheet{wb: wb, name: name, loaded: true}
	wb.sheets[name] = sh
	return sh, nil
}

func (wb *Workbook) sheet(name string) *Sheet {
	wb.mu.Lock()
	defer wb.mu.Unlock()
	sh := wb.sheets[name]
	if sh == nil {
		sh = &Sheet{wb: wb, name: name}
		wb.sheets[name] = sh
	}
	return sh
}

// getStyle returns the id of the style, 0 for the default style.
func (wb *Workbook) getStyle(style sheetmap.Style) (int, error) {
	if style.IsZero() {
		return 0, nil
	}
	wb.mu.Lock()
	defer wb.mu.Unlock()
	k := fmt.Sprintf("%t\t%s", style.FontBold, style.Format)
	s, ok := wb.styles[k]
	if ok {
		return s, nil
	}
	var st excelize.Style
	if style.FontBold {
		st.Font = &excelize.Font{Bold: true}
	}
	if style.Format != "" {
		st.CustomNumFmt = &style.Format
	}
	s, err := wb.xl.NewStyle(&st)
	if err != nil {
		return 0, fmt.Errorf("new style %+v: %w", style, err)
	}
	if wb.styles == nil {
		wb.styles = make(map[string]int)
	}
	wb.styles[k] = s
	if wb.dates == nil {
		wb.dates = make(map[int]bool)
	}
	wb.dates[s] = style.Format != "" && sheetmap.IsDateFormat(style.Format)
	return s, nil
}

// isDateStyle reports whether the style with the given id has a date number format.
func (wb *Workbook) isDateStyle(id int) bool {
	if id == 0 {
		return false
	}
	wb.mu.Lock()
	defer wb.mu.Unlock()
	if isDate, ok := wb.dates[id]; ok {
		return isDate
	}
	var isDate bool
	if st, err := wb.xl.GetStyle(id); err == nil && st != nil {
		if st.CustomNumFmt != nil && *st.CustomNumFmt != "" {
			isDate = sheetmap.IsDateFormat(*st.CustomNumFmt)
		} else {
			isDate = isBuiltInDateFormat(st.NumFmt)
		}
	}
	if wb.dates == nil {
		wb.dates = make(map[int]bool)
	}
	wb.dates[id] = isDate
	return isDate
}

func isBuiltInDateFormat(id int) bool {
	return 14 <= id && id <= 22 || 27 <= id && id <= 36 || 45 <= id && id <= 47 || 50 <= id && id <= 58
}

func (wb *Workbook) styleOf(id int) sheetmap.Style {
	var style sheetmap.Style
	if id == 0 {
		return style
	}
	st, err := wb.xl.GetStyle(id)
	if err != nil || st == nil {
		return style
	}
	style.FontBold = st.Font != nil && st.Font.Bold
	if st.CustomNumFmt != nil {
		style.Format = *st.CustomNumFmt
	}
	return style
}

// Sheet is one worksheet of the Workbook.
type Sheet struct {
	wb   *Workbook
	name string
	// rows holds the raw values, read at first use and kept in sync by the writes.
	rows   [][]string
	loaded bool
}

func (sh *Sheet) Name() string { return sh.name }

func (sh *Sheet) load() [][]string {
	if !sh.loaded {
		rows, err := sh.wb.xl.GetRows(sh.name, excelize.Options{RawCellValue: true})
		if err == nil {
			sh.rows = rows
		}
		sh.loaded = true
	}
	return sh.rows
}

func populated(row []string) bool {
	return slices.ContainsFunc(row, func(s string) bool { return s != "" })
}

func (sh *Sheet) FirstRowIndex() int { return slices.IndexFunc(sh.load(), populated) }

func (sh *Sheet) LastRowIndex() int {
	rows := sh.load()
	for i := len(rows) - 1; i >= 0; i-- {
		if populated(rows[i]) {
			return i
		}
	}
	return -1
}

func (sh *Sheet) RowAt(i int) sheetmap.Row {
	if rows := sh.load(); i < 0 || i >= len(rows) || !populated(rows[i]) {
		return nil
	}
	return &Row{sheet: sh, index: i}
}

func (sh *Sheet) CreateRow(i int) (sheetmap.Row, error) {
	if i < 0 || i >= MaxRowCount {
		return nil, fmt.Errorf("row %d: %w", i, sheetmap.ErrTooManyRows)
	}
	return &Row{sheet: sh, index: i}, nil
}

// RemoveRow removes the row; the rows below it move up.
func (sh *Sheet) RemoveRow(i int) error {
	if err := sh.wb.xl.RemoveRow(sh.name, i+1); err != nil {
		return err
	}
	if rows := sh.load(); i < len(rows) {
		sh.rows = slices.Delete(rows, i, i+1)
	}
	return nil
}

func (sh *Sheet) raw(i, j int) string {
	if rows := sh.load(); i < len(rows) && j < len(rows[i]) {
		return rows[i][j]
	}
	return ""
}

func (sh *Sheet) setRaw(i, j int, s string) {
	rows := sh.load()
	for len(rows) <= i {
		rows = append(rows, nil)
	}
	for len(rows[i]) <= j {
		rows[i] = append(rows[i], "")
	}
	rows[i][j] = s
	sh.rows = rows
}

// Row is one row of a Sheet.
type Row struct {
	sheet *Sheet
	index int
}

func (r *Row) Index() int { return r.index }

func (r *Row) CellAt(j int) sheetmap.Cell {
	if j < 0 || r.sheet.raw(r.index, j) == "" {
		return nil
	}
	return r.cell(j)
}

func (r *Row) CreateCell(j int) (sheetmap.Cell, error) {
	if j < 0 || j >= excelize.MaxColumns {
		return nil, fmt.Errorf("column %d: %w", j, sheetmap.ErrInvalidArgument)
	}
	return r.cell(j), nil
}

func (r *Row) cell(j int) *Cell {
	axis, _ := excelize.CoordinatesToCellName(j+1, r.index+1)
	return &Cell{sheet: r.sheet, row: r.index, col: j, axis: axis}
}

func (r *Row) Cells() []sheetmap.Cell {
	rows := r.sheet.load()
	if r.index >= len(rows) {
		return nil
	}
	cells := make([]sheetmap.Cell, 0, len(rows[r.index]))
	for j, s := range rows[r.index] {
		if s != "" {
			cells = append(cells, r.cell(j))
		}
	}
	return cells
}

// Cell is one cell of a Sheet.
type Cell struct {
	sheet    *Sheet
	axis     string
	row, col int
}

func (c *Cell) ColumnIndex() int { return c.col }

func (c *Cell) xl() *excelize.File { return c.sheet.wb.xl }

// Value returns the raw value of the cell: numbers of date formatted cells are dates.
func (c *Cell) Value() sheetmap.Value {
	s := c.sheet.raw(c.row, c.col)
	if s == "" {
		return sheetmap.Value{}
	}
	typ, err := c.xl().GetCellType(c.sheet.name, c.axis)
	if err != nil {
		return sheetmap.StringValue(s)
	}
	switch typ {
	case excelize.CellTypeBool:
		return sheetmap.BoolValue(s == "1" || strings.EqualFold(s, "true"))
	case excelize.CellTypeSharedString, excelize.CellTypeInlineString, excelize.CellTypeError:
		return sheetmap.StringValue(s)
	case excelize.CellTypeDate:
		for _, layout := range []string{time.RFC3339Nano, "2006-01-02T15:04:05", "2006-01-02"} {
			if t, err := time.Parse(layout, s); err == nil {
				return sheetmap.DateValue(t.UTC())
			}
		}
		return sheetmap.StringValue(s)
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return sheetmap.StringValue(s)
	}
	if c.IsDateFormatted() {
		if t, ok := sheetmap.SerialTime(f); ok {
			return sheetmap.DateValue(t)
		}
	}
	return sheetmap.NumberValue(f)
}

// SetValue writes the value; dates are written as serial numbers with a date format.
func (c *Cell) SetValue(v sheetmap.Value) error {
	var err error
	var raw string
	switch v.Kind {
	case sheetmap.KindString:
		raw = v.Str
		err = c.xl().SetCellStr(c.sheet.name, c.axis, v.Str)
	case sheetmap.KindNumber:
		err = c.xl().SetCellFloat(c.sheet.name, c.axis, v.Num, -1, 64)
		raw = strconv.FormatFloat(v.Num, 'f', -1, 64)
	case sheetmap.KindBool:
		raw = "0"
		if v.Bool {
			raw = "1"
		}
		err = c.xl().SetCellBool(c.sheet.name, c.axis, v.Bool)
	case sheetmap.KindDate:
		serial := sheetmap.DateSerial(v.Time)
		if err = c.xl().SetCellFloat(c.sheet.name, c.axis, serial, -1, 64); err == nil && !c.IsDateFormatted() {
			err = c.SetStyle(sheetmap.Style{Format: sheetmap.DefaultDateFormat})
		}
		raw = strconv.FormatFloat(serial, 'f', -1, 64)
	default:
		err = c.xl().SetCellValue(c.sheet.name, c.axis, nil)
	}
	if err != nil {
		return fmt.Errorf("%s[%s]: %w", c.sheet.name, c.axis, err)
	}
	c.sheet.wb.fresh = false
	c.sheet.setRaw(c.row, c.col, raw)
	return nil
}

func (c *Cell) styleID() int {
	id, err := c.xl().GetCellStyle(c.sheet.name, c.axis)
	if err != nil {
		return 0
	}
	return id
}

func (c *Cell) Style() sheetmap.Style { return c.sheet.wb.styleOf(c.styleID()) }

func (c *Cell) SetStyle(style sheetmap.Style) error {
	id, err := c.sheet.wb.getStyle(style)
	if err != nil {
		return err
	}
	return c.xl().SetCellStyle(c.sheet.name, c.axis, c.axis, id)
}

func (c *Cell) IsDateFormatted() bool { return c.sheet.wb.isDateStyle(c.styleID()) }
