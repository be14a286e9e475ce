// Copyright 2026 Tamás Gulácsi.
//
// SPDX-License-Identifier: Apache-2.0

package sheetmap

import "strings"

// Column identifies a column by position or by header text.
type Column struct {
	name  string
	index int
}

// ColumnIndex identifies the column by its 0-based position.
func ColumnIndex(i int) Column { return Column{index: i} }

// ColumnName identifies the column by its header text (case-insensitive, trimmed).
// If more than one header has this text, the last one is used.
func ColumnName(name string) Column { return Column{index: -1, name: strings.TrimSpace(name)} }

func (c Column) String() string {
	if c.index >= 0 {
		return ColumnLetters(c.index)
	}
	return c.name
}

// TakeFunc sets the target (a pointer to the struct, or a *Bag) from the column.
// It returns false if the value cannot be taken, which counts as a conversion error.
type TakeFunc func(col *ColumnInfo, target any) bool

// PutFunc sets col.CurrentValue from the source (the item given to Put).
// It returns false if the value cannot be put; the cell is left untouched then.
type PutFunc func(col *ColumnInfo, source any) bool

// ColumnFilter decides whether an otherwise unmapped column takes part
// in the mapping, with the resolvers given to MapColumns.
type ColumnFilter func(col *ColumnInfo) bool

// ColumnInfo is the mutable context of one column during one Take or Put call.
type ColumnInfo struct {
	// HeaderValue is the native value of the header cell (string, float64, bool, time.Time or nil).
	// Resolvers may replace it; the replacement is seen by the following rows.
	HeaderValue any
	// CurrentValue is the native value of the cell of the current row.
	CurrentValue any
	Binding      *Binding
}

// Binding is the association of one column with one member.
type Binding struct {
	Member *Member
	Take   TakeFunc
	Put    PutFunc
	// Name is the (trimmed) header text, or the name to look it up by.
	Name string
	// DisplayName is written as header text when the header cell has to be created.
	DisplayName string
	// Key is the name of the value in a dynamic Bag.
	Key             string
	Format          string
	Index           int
	Ignored         bool
	UseLastNonBlank bool
	IgnoreErrors    bool
	source          bindingSource
}

type bindingSource uint8

const (
	sourceAuto bindingSource = iota
	sourceTag
	sourceExplicit
	sourceFilter
)

// headerText returns the text for a newly written header cell.
func (b *Binding) headerText() string {
	switch {
	case b.DisplayName != "":
		return b.DisplayName
	case b.Name != "":
		return b.Name
	case b.Member != nil:
		return b.Member.Name
	default:
		return b.Key
	}
}

func (b *Binding) memberName() string {
	if b.Member != nil {
		return b.Member.Name
	}
	return b.Key
}
