// Copyright 2020, 2026 Tamás Gulácsi.
//
// SPDX-License-Identifier: Apache-2.0

package sheetmap

import (
	"fmt"
	"reflect"
)

// Put writes the items as rows of the selected sheet, creating the sheet if missing.
//
// If HasHeader is set and the header row is missing (or overwrite is true), the header
// is written, with a new column for each member that has none yet.
// Otherwise only the members bound to existing columns (or to explicit indexes) are written.
//
// With overwrite the existing data rows are removed first,
// otherwise the rows are appended after the last row of the sheet.
func Put[T any](m *Mapper, items []T, sel Selector, overwrite bool) error {
	t := reflect.TypeFor[T]()
	tm, err := m.mappingOf(t)
	if err != nil {
		return err
	}
	sheet, err := m.putSheet(sel)
	if err != nil {
		return err
	}

	var keys []string
	if tm.dynamic() {
		seen := make(map[string]struct{})
		for _, item := range items {
			bag := any(item).(*Bag)
			if bag == nil {
				continue
			}
			for _, k := range bag.names {
				if _, ok := seen[k]; !ok {
					seen[k] = struct{}{}
					keys = append(keys, k)
				}
			}
		}
		if keys == nil {
			keys = []string{}
		}
	}

	var headerRow Row
	var header []headerCell
	if m.HasHeader {
		headerRow = sheet.RowAt(m.FirstRowIndex)
		header = m.readHeader(sheet)
	}
	writeHeader := m.HasHeader && (headerRow == nil || overwrite)
	cols := m.resolve(tm, header, keys, writeHeader || !m.HasHeader)
	placeColumns(cols, header)
	m.Logger.Debug("put", "type", t, "sheet", sheet.Name(), "items", len(items), logColumns(cols))

	if writeHeader {
		if headerRow == nil {
			if headerRow, err = sheet.CreateRow(m.FirstRowIndex); err != nil {
				return err
			}
		}
		if err = m.writeHeader(headerRow, cols); err != nil {
			return err
		}
	}

	first := m.firstDataRow()
	start := first
	if last := sheet.LastRowIndex(); overwrite {
		for i := last; i >= first; i-- {
			if err = sheet.RemoveRow(i); err != nil {
				return fmt.Errorf("remove row %d: %w", i, err)
			}
		}
	} else if last >= first {
		start = last + 1
	}

	for _, c := range cols {
		c.reset()
	}
	for k, item := range items {
		ri := start + k
		if ri >= MaxRowCount {
			return fmt.Errorf("row %d: %w", ri, ErrTooManyRows)
		}
		row, err := sheet.CreateRow(ri)
		if err != nil {
			return err
		}
		if err = m.putRow(row, any(item), cols); err != nil {
			return fmt.Errorf("row %d: %w", ri, err)
		}
	}
	return nil
}

// placeColumns gives the columns without index new indexes,
// after the header and the columns already placed.
func placeColumns(cols []*boundColumn, header []headerCell) {
	next := 0
	for _, h := range header {
		next = max(next, h.index+1)
	}
	for _, c := range cols {
		next = max(next, c.Index+1)
	}
	for _, c := range cols {
		if c.Index < 0 {
			c.Index = next
			next++
		}
	}
}

func (m *Mapper) writeHeader(row Row, cols []*boundColumn) error {
	for _, c := range cols {
		cell := row.CellAt(c.Index)
		if cell == nil || cell.Value().IsBlank() || c.DisplayName != "" {
			var err error
			if cell == nil {
				if cell, err = row.CreateCell(c.Index); err != nil {
					return err
				}
			}
			if err = cell.SetValue(StringValue(c.headerText())); err != nil {
				return err
			}
		}
		c.info.HeaderValue = cell.Value().Interface()
		if m.styleHeader != nil {
			m.styleHeader(cell)
		}
	}
	return nil
}

func (m *Mapper) putRow(row Row, item any, cols []*boundColumn) error {
	var obj reflect.Value
	var bag *Bag
	if b, ok := item.(*Bag); ok {
		bag = b
	} else {
		obj = reflect.ValueOf(item)
		for obj.Kind() == reflect.Pointer {
			if obj.IsNil() {
				return nil
			}
			obj = obj.Elem()
		}
	}
	if bag == nil && !obj.IsValid() {
		return nil
	}

	for _, c := range cols {
		var current any
		switch {
		case bag != nil:
			current = bag.Get(c.Key)
		case c.Member != nil:
			if v, ok := c.Member.Get(obj); ok {
				current = v.Interface()
			}
		}

		var raw Value
		var numFmt string
		switch {
		case c.Put != nil:
			c.info.CurrentValue = current
			if !c.Put(&c.info, item) {
				continue
			}
			raw, numFmt = m.converter.toRaw(c.info.CurrentValue, c.Format)
		case c.source == sourceFilter:
			continue
		default:
			format := c.Format
			if format == "" && bag != nil && current != nil {
				format = m.typeFormat(reflect.TypeOf(current))
			}
			raw, numFmt = m.converter.toRaw(current, format)
		}

		cell := row.CellAt(c.Index)
		if raw.Kind == KindBlank && cell == nil {
			continue
		}
		if cell == nil {
			var err error
			if cell, err = row.CreateCell(c.Index); err != nil {
				return err
			}
		}
		if err := cell.SetValue(raw); err != nil {
			return err
		}
		if numFmt != "" && (raw.Kind == KindNumber || raw.Kind == KindDate) {
			if !c.styled {
				c.style, c.styled = cell.Style(), true
				c.style.Format = numFmt
			}
			if err := cell.SetStyle(c.style); err != nil {
				return err
			}
		}
	}
	return nil
}
