// Copyright 2026 Tamás Gulácsi.
//
// SPDX-License-Identifier: Apache-2.0

package sheetmap

import (
	"iter"
	"reflect"
	"strings"
	"unicode"

	"github.com/xuri/excelize/v2"
)

// Bag is an ordered set of named values, the dynamic target of Take and
// source of Put.
type Bag struct {
	values map[string]any
	names  []string
}

// NewBag returns an empty Bag.
func NewBag() *Bag { return &Bag{values: make(map[string]any)} }

// Set sets the value under name. A new name is appended to the order,
// an existing one is overwritten in place.
func (b *Bag) Set(name string, value any) {
	if b.values == nil {
		b.values = make(map[string]any)
	}
	if _, ok := b.values[name]; !ok {
		b.names = append(b.names, name)
	}
	b.values[name] = value
}

// Get returns the value under name, nil if there is no such.
func (b *Bag) Get(name string) any { return b.values[name] }

// Lookup returns the value under name, and whether it exists.
func (b *Bag) Lookup(name string) (any, bool) {
	v, ok := b.values[name]
	return v, ok
}

// Delete removes the name.
func (b *Bag) Delete(name string) {
	if _, ok := b.values[name]; !ok {
		return
	}
	delete(b.values, name)
	for i, n := range b.names {
		if n == name {
			b.names = append(b.names[:i], b.names[i+1:]...)
			break
		}
	}
}

// Names returns the names in insertion order.
func (b *Bag) Names() []string { return append([]string(nil), b.names...) }

func (b *Bag) Len() int { return len(b.names) }

// All iterates over the name-value pairs in insertion order.
func (b *Bag) All() iter.Seq2[string, any] {
	return func(yield func(string, any) bool) {
		for _, n := range b.names {
			if !yield(n, b.values[n]) {
				return
			}
		}
	}
}

// Map returns a copy of the values as a map.
func (b *Bag) Map() map[string]any {
	m := make(map[string]any, len(b.values))
	for k, v := range b.values {
		m[k] = v
	}
	return m
}

var bagType = reflect.TypeFor[*Bag]()

// ColumnLetters returns the spreadsheet-style name of the 0-based column index:
// 0 is "A", 25 is "Z", 26 is "AA".
func ColumnLetters(i int) string {
	if s, err := excelize.ColumnNumberToName(i + 1); err == nil {
		return s
	}
	var b []byte
	for n := i + 1; n > 0; n = (n - 1) / 26 {
		b = append(b, byte('A'+(n-1)%26))
	}
	for l, r := 0, len(b)-1; l < r; l, r = l+1, r-1 {
		b[l], b[r] = b[r], b[l]
	}
	return string(b)
}

// DynamicName derives a member name from the header text: the runes that are
// not valid in an identifier are dropped; a leading digit gets an underscore prefix.
// A header without any usable rune gets the letters of the column index.
func DynamicName(header string, index int) string {
	var b strings.Builder
	for _, r := range strings.TrimSpace(header) {
		if r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r) {
			if b.Len() == 0 && unicode.IsDigit(r) {
				b.WriteByte('_')
			}
			b.WriteRune(r)
		}
	}
	if b.Len() == 0 {
		return ColumnLetters(index)
	}
	return b.String()
}

// normalizeName folds the case and drops everything but letters and digits,
// so "Order ID", "order_id" and "OrderID" are equal.
func normalizeName(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(unicode.ToLower(r))
		}
	}
	return b.String()
}

// inferValue is the typed value of a raw value in a dynamic Bag.
func inferValue(v Value) any {
	if v.Kind == KindString && v.Str == "" {
		return nil
	}
	return v.Interface()
}
