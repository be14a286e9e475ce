// Copyright 2026 Tamás Gulácsi.
//
// SPDX-License-Identifier: Apache-2.0

package sheetmap

import (
	"iter"
	"reflect"
)

// NoError is the ErrorColumnIndex of a row without conversion error.
const NoError = -1

// RowResult is one data row read by Take.
type RowResult[T any] struct {
	Value T
	// Err is the *ConversionError of the first failing column, nil if none failed.
	Err error
	// Row is the 0-based index of the row in the sheet.
	Row int
	// ErrorColumnIndex is the index of the first column that failed to convert, or NoError.
	ErrorColumnIndex int
}

// Take reads the data rows of the selected sheet into values of T.
//
// T is a struct, a pointer to a struct, or *Bag for dynamic rows, keyed by
// the names DynamicName synthesizes from the header.
//
// The returned sequence is lazy: rows are read and converted as the consumer advances.
// Each iteration starts from the first data row again, with fresh carry-forward state.
// A sheet name that does not exist yields an empty sequence; a sheet index out of range
// is an error.
func Take[T any](m *Mapper, sel Selector) (iter.Seq[RowResult[T]], error) {
	t := reflect.TypeFor[T]()
	tm, err := m.mappingOf(t)
	if err != nil {
		return nil, err
	}
	sheet, err := m.takeSheet(sel)
	if err != nil {
		return nil, err
	}
	if sheet == nil {
		m.Logger.Debug("no such sheet", "sheet", sel)
		return func(func(RowResult[T]) bool) {}, nil
	}
	cols := m.resolve(tm, m.readHeader(sheet), nil, false)
	m.Logger.Debug("take", "type", t, "sheet", sheet.Name(), logColumns(cols))

	return func(yield func(RowResult[T]) bool) {
		for _, c := range cols {
			c.reset()
		}
		for i, last := m.firstDataRow(), sheet.LastRowIndex(); i <= last; i++ {
			row := sheet.RowAt(i)
			if row == nil || isBlankRow(row) {
				continue
			}
			res := takeRow[T](m, tm, row, cols)
			if res.Err != nil {
				m.Logger.Debug("take", "row", i, "error", res.Err)
			}
			if !yield(res) {
				return
			}
		}
	}, nil
}

// isBlankRow reports whether every cell of the row is blank.
// Empty strings are not blank here.
func isBlankRow(row Row) bool {
	for _, c := range row.Cells() {
		if c.Value().Kind != KindBlank {
			return false
		}
	}
	return true
}

func takeRow[T any](m *Mapper, tm *typeMapping, row Row, cols []*boundColumn) RowResult[T] {
	res := RowResult[T]{Row: row.Index(), ErrorColumnIndex: NoError}

	var target any
	var obj reflect.Value
	var bag *Bag
	if tm.dynamic() {
		bag = NewBag()
		target = bag
	} else {
		p := reflect.New(tm.typ)
		target, obj = p.Interface(), p.Elem()
	}

	for _, c := range cols {
		var raw Value
		if cell := row.CellAt(c.Index); cell != nil {
			raw = cell.Value()
		}
		if c.UseLastNonBlank {
			if !raw.IsBlank() {
				c.last, c.hasLast = raw, true
			} else if c.hasLast {
				raw = c.last
			}
		}

		ok := true
		var typ reflect.Type
		switch {
		case c.Take != nil:
			c.info.CurrentValue = raw.Interface()
			ok = c.Take(&c.info, target)
		case c.source == sourceFilter:
		case bag != nil:
			bag.Set(c.Key, inferValue(raw))
		case c.Member != nil:
			typ = c.Member.Type
			f := c.Member.field(obj)
			var v reflect.Value
			if v, ok = m.converter.convert(raw, typ, c.Format, f); ok {
				f.Set(v)
			}
		}
		if !ok && !c.IgnoreErrors && res.ErrorColumnIndex == NoError {
			res.ErrorColumnIndex = c.Index
			res.Err = &ConversionError{
				Row: res.Row, Column: c.Index, Raw: raw,
				Type: typ, Member: c.memberName(),
			}
		}
	}

	switch {
	case bag != nil:
		res.Value = any(bag).(T)
	case reflect.TypeFor[T]().Kind() == reflect.Pointer:
		res.Value = target.(T)
	default:
		res.Value = obj.Interface().(T)
	}
	return res
}

// TakeAll collects the values of Take, and the first conversion error.
func TakeAll[T any](m *Mapper, sel Selector) ([]T, error) {
	seq, err := Take[T](m, sel)
	if err != nil {
		return nil, err
	}
	var values []T
	for r := range seq {
		if r.Err != nil && err == nil {
			err = r.Err
		}
		values = append(values, r.Value)
	}
	return values, err
}
