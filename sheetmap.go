// Copyright 2020, 2026 Tamás Gulácsi.
//
// SPDX-License-Identifier: Apache-2.0

// Package sheetmap maps the rows of a spreadsheet grid to Go values and back.
//
// A Mapper binds struct fields (or the keys of a dynamic Bag) to the columns
// of a sheet: explicitly with Map, declaratively with struct tags, or by
// matching the header text against the field names.
// Take reads the data rows into values, Put writes values as rows.
//
// The grid itself is an external collaborator described by the Workbook,
// Sheet, Row and Cell interfaces; see the xlsx subpackage for an
// excelize-backed implementation and NewMemoryWorkbook for an in-memory one.
package sheetmap

import (
	"errors"
	"time"
)

// Workbook is a collection of sheets.
type Workbook interface {
	SheetCount() int
	// SheetAt returns the i-th sheet, ErrSheetIndex if there is no such.
	SheetAt(i int) (Sheet, error)
	// SheetNamed finds the sheet case-insensitively.
	SheetNamed(name string) (Sheet, bool)
	CreateSheet(name string) (Sheet, error)
}

// Sheet is a 2-D collection of rows, indexed from 0.
type Sheet interface {
	Name() string
	// FirstRowIndex returns the index of the first populated row, -1 for an empty sheet.
	FirstRowIndex() int
	// LastRowIndex returns the index of the last populated row, -1 for an empty sheet.
	LastRowIndex() int
	// RowAt returns nil if the row does not exist.
	RowAt(i int) Row
	CreateRow(i int) (Row, error)
	RemoveRow(i int) error
}

// Row is one row of a Sheet.
type Row interface {
	Index() int
	// CellAt returns nil if the cell does not exist.
	CellAt(j int) Cell
	CreateCell(j int) (Cell, error)
	// Cells returns the existing cells in column order.
	Cells() []Cell
}

// Cell holds one raw Value.
type Cell interface {
	ColumnIndex() int
	Value() Value
	SetValue(Value) error
	Style() Style
	SetStyle(Style) error
	// IsDateFormatted reports whether the number format of the cell is a date format.
	IsDateFormatted() bool
}

// Style is a style for a column/row/cell.
type Style struct {
	// Format is the number format
	Format string
	// FontBold is true if the font is bold
	FontBold bool
}

// IsZero reports whether the style is the default one.
func (s Style) IsZero() bool { return s.Format == "" && !s.FontBold }

//go:generate stringer -type=Kind -trimprefix=Kind

// Kind is the variant of a raw Value.
type Kind uint8

const (
	KindBlank Kind = iota
	KindString
	KindNumber
	KindBool
	KindDate
)

// Value is the raw content of a cell.
type Value struct {
	Time time.Time
	Str  string
	Num  float64
	Kind Kind
	Bool bool
}

func StringValue(s string) Value  { return Value{Kind: KindString, Str: s} }
func NumberValue(f float64) Value { return Value{Kind: KindNumber, Num: f} }
func BoolValue(b bool) Value      { return Value{Kind: KindBool, Bool: b} }
func DateValue(t time.Time) Value { return Value{Kind: KindDate, Time: t} }

// IsBlank reports whether the value carries no content: a blank cell or an empty string.
func (v Value) IsBlank() bool {
	return v.Kind == KindBlank || v.Kind == KindString && v.Str == ""
}

// Interface returns the value as string, float64, bool, time.Time or nil.
func (v Value) Interface() any {
	switch v.Kind {
	case KindString:
		return v.Str
	case KindNumber:
		return v.Num
	case KindBool:
		return v.Bool
	case KindDate:
		return v.Time
	default:
		return nil
	}
}

// String returns the natural string representation of the value.
func (v Value) String() string { return formatRaw(v) }

// ValueOf converts a native value (as returned by Interface) to a Value.
// Other types go through ToRaw without format.
func ValueOf(x any) Value {
	switch x := x.(type) {
	case nil:
		return Value{}
	case Value:
		return x
	case string:
		return StringValue(x)
	case float64:
		return NumberValue(x)
	case bool:
		return BoolValue(x)
	case time.Time:
		return DateValue(x)
	}
	return defaultConverter.ToRaw(x, "")
}

// Number is a string that contains a number.
type Number string

// MaxRowCount is the number of maximum rows.
const MaxRowCount = 1_048_576

// MaxColumnCount is the number of maximum columns.
const MaxColumnCount = 16_384

var (
	ErrTooManyRows  = errors.New("too many rows")
	ErrSheetIndex   = errors.New("sheet index out of range")
	ErrFileNotFound = errors.New("file not found")
)
