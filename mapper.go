// Copyright 2020, 2026 Tamás Gulácsi.
//
// SPDX-License-Identifier: Apache-2.0

package sheetmap

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"reflect"
	"strings"
)

// Mapper maps the rows of the sheets of a Workbook to Go values and back.
//
// A Mapper is configured once (Map, Ignore, Format...), then used by Take and Put.
// It is not safe for concurrent use.
type Mapper struct {
	wb     Workbook
	Logger *slog.Logger

	converter   Converter
	types       map[reflect.Type]*typeMapping
	typeFormats map[reflect.Type]string
	filters     []columnFilter
	styleHeader func(Cell)

	// FirstRowIndex is the index of the header row (or the first data row without header).
	FirstRowIndex int
	// HasHeader tells whether the row at FirstRowIndex is a header row. Defaults to true.
	HasHeader bool
}

type columnFilter struct {
	filter ColumnFilter
	take   TakeFunc
	put    PutFunc
}

// New returns a Mapper over the given Workbook, a new in-memory one if wb is nil.
func New(wb Workbook) *Mapper {
	if wb == nil {
		wb = NewMemoryWorkbook()
	}
	return &Mapper{
		wb:          wb,
		Logger:      slog.Default(),
		HasHeader:   true,
		types:       make(map[reflect.Type]*typeMapping),
		typeFormats: make(map[reflect.Type]string),
	}
}

// Workbook returns the underlying Workbook.
func (m *Mapper) Workbook() Workbook { return m.wb }

// Converter returns the type conversion engine of the Mapper,
// knowing the enums registered with RegisterEnum.
func (m *Mapper) Converter() *Converter { return &m.converter }

// Save writes the workbook to w. The Workbook must implement io.WriterTo.
func (m *Mapper) Save(w io.Writer) error {
	wt, ok := m.wb.(io.WriterTo)
	if !ok {
		return fmt.Errorf("%T cannot be saved: %w", m.wb, errors.ErrUnsupported)
	}
	_, err := wt.WriteTo(w)
	return err
}

// SaveAs writes the workbook into the named file.
func (m *Mapper) SaveAs(path string) error {
	if sa, ok := m.wb.(interface{ SaveAs(string) error }); ok {
		return sa.SaveAs(path)
	}
	fh, err := os.Create(path)
	if err != nil {
		return err
	}
	if err = m.Save(fh); err != nil {
		fh.Close()
		return fmt.Errorf("save %q: %w", path, err)
	}
	return fh.Close()
}

// PutAndSave puts the items with Put, then saves the workbook into the named file.
func PutAndSave[T any](m *Mapper, path string, items []T, sel Selector, overwrite bool) error {
	if err := Put(m, items, sel, overwrite); err != nil {
		return err
	}
	return m.SaveAs(path)
}

// Selector selects a sheet of the workbook by index or by name.
// The zero Selector selects the first sheet.
type Selector struct {
	name   string
	index  int
	byName bool
}

// SheetIndex selects the i-th (0-based) sheet.
func SheetIndex(i int) Selector { return Selector{index: i} }

// SheetName selects the sheet by its name, case-insensitively.
func SheetName(name string) Selector { return Selector{name: name, byName: true} }

func (s Selector) String() string {
	if s.byName {
		return fmt.Sprintf("%q", s.name)
	}
	return fmt.Sprintf("#%d", s.index)
}

// takeSheet returns the selected sheet; nil (without error) for a missing name.
func (m *Mapper) takeSheet(sel Selector) (Sheet, error) {
	if sel.byName {
		sh, _ := m.wb.SheetNamed(sel.name)
		return sh, nil
	}
	if sel.index < 0 || sel.index >= m.wb.SheetCount() {
		return nil, fmt.Errorf("sheet %d of %d: %w", sel.index, m.wb.SheetCount(), ErrSheetIndex)
	}
	return m.wb.SheetAt(sel.index)
}

// putSheet returns the selected sheet, creating it (and the sheets before it) if missing.
func (m *Mapper) putSheet(sel Selector) (Sheet, error) {
	if sel.byName {
		if sh, ok := m.wb.SheetNamed(sel.name); ok {
			return sh, nil
		}
		m.Logger.Debug("create sheet", "name", sel.name)
		return m.wb.CreateSheet(sel.name)
	}
	if sel.index < 0 {
		return nil, fmt.Errorf("sheet %d: %w", sel.index, ErrSheetIndex)
	}
	for n := m.wb.SheetCount(); n <= sel.index; n = m.wb.SheetCount() {
		name := fmt.Sprintf("sheet%d", n+1)
		for i := n + 2; ; i++ {
			if _, exists := m.wb.SheetNamed(name); !exists {
				break
			}
			name = fmt.Sprintf("sheet%d", i)
		}
		m.Logger.Debug("create sheet", "name", name)
		if _, err := m.wb.CreateSheet(name); err != nil {
			return nil, err
		}
	}
	return m.wb.SheetAt(sel.index)
}

// mappingOf returns the configuration of the type, creating it on first use.
// Pointers to structs share the configuration of the struct.
func (m *Mapper) mappingOf(t reflect.Type) (*typeMapping, error) {
	if t != bagType && t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t != bagType && t.Kind() != reflect.Struct {
		return nil, configError(t, "", fmt.Errorf("%w: not a struct nor *Bag", ErrInvalidArgument))
	}
	tm := m.types[t]
	if tm == nil {
		tm = newTypeMapping(t)
		m.types[t] = tm
	}
	return tm, nil
}

// typeFormat returns the format set by UseFormat for the type, or its element type.
func (m *Mapper) typeFormat(t reflect.Type) string {
	if f, ok := m.typeFormats[t]; ok {
		return f
	}
	if t.Kind() == reflect.Pointer {
		return m.typeFormats[t.Elem()]
	}
	return ""
}

// readHeader returns the header cells of the sheet, or the synthetic
// letter-named header when HasHeader is false.
func (m *Mapper) readHeader(sheet Sheet) []headerCell {
	if m.HasHeader {
		row := sheet.RowAt(m.FirstRowIndex)
		if row == nil {
			return nil
		}
		cells := row.Cells()
		header := make([]headerCell, 0, len(cells))
		for _, c := range cells {
			v := c.Value()
			header = append(header, headerCell{
				index: c.ColumnIndex(), value: v,
				name: strings.TrimSpace(v.String()),
			})
		}
		return header
	}
	maxCol := -1
	for i, last := m.FirstRowIndex, sheet.LastRowIndex(); i <= last; i++ {
		row := sheet.RowAt(i)
		if row == nil {
			continue
		}
		for _, c := range row.Cells() {
			maxCol = max(maxCol, c.ColumnIndex())
		}
	}
	header := make([]headerCell, maxCol+1)
	for i := range header {
		header[i] = headerCell{index: i, name: ColumnLetters(i)}
	}
	return header
}

// firstDataRow is the index of the first row after the header.
func (m *Mapper) firstDataRow() int {
	if m.HasHeader {
		return m.FirstRowIndex + 1
	}
	return m.FirstRowIndex
}

func logColumns(cols []*boundColumn) slog.Attr {
	attrs := make([]any, 0, len(cols))
	for _, c := range cols {
		name := c.memberName()
		if name == "" {
			name = c.Name
		}
		attrs = append(attrs, slog.Int(name, c.Index))
	}
	return slog.Group("columns", attrs...)
}
