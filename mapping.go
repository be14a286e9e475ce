// Copyright 2026 Tamás Gulácsi.
//
// SPDX-License-Identifier: Apache-2.0

package sheetmap

import (
	"fmt"
	"reflect"
	"strings"
)

// MapOption modifies an explicit binding.
type MapOption func(*Binding)

// WithDisplayName sets the header text written for a new header cell.
func WithDisplayName(name string) MapOption {
	return func(b *Binding) { b.DisplayName = strings.TrimSpace(name) }
}

// WithFormat sets the column format, overriding the tag and the type format.
func WithFormat(format string) MapOption { return func(b *Binding) { b.Format = format } }

// WithResolvers replaces the conversion of the column with the given functions.
// Either may be nil.
func WithResolvers(take TakeFunc, put PutFunc) MapOption {
	return func(b *Binding) { b.Take, b.Put = take, put }
}

// Map binds the member of T to the column.
//
// T is a struct type, a pointer to it, or *Bag for dynamic rows.
// member is the name of the member (the key for *Bag),
// or a selector func(*T) any returning the address of a field: func(x *T) any { return &x.Field }.
//
// A later Map of the same member replaces the earlier one.
// Members tagged `sheet:"-"` cannot be mapped.
func Map[T any](m *Mapper, col Column, member any, opts ...MapOption) error {
	tm, err := m.mappingOf(reflect.TypeFor[T]())
	if err != nil {
		return err
	}
	mem, key, err := memberOf[T](tm, member)
	if err != nil {
		return err
	}
	if col.index < 0 && col.name == "" {
		return configError(tm.typ, key, fmt.Errorf("%w: empty column name", ErrInvalidArgument))
	}
	if mem != nil && mem.tag.Ignore {
		return configError(tm.typ, key, fmt.Errorf("%w: member is tagged to be ignored", ErrInvalidArgument))
	}
	b := &Binding{Member: mem, Key: key, Index: col.index, Name: col.name, source: sourceExplicit}
	for _, o := range opts {
		o(b)
	}
	tm.setExplicit(b)
	return nil
}

// Ignore marks the members of T as never mapped, overriding any other binding.
// For *Bag the names are keys or header texts.
func Ignore[T any](m *Mapper, members ...any) error {
	return setFlag[T](m, members, func(tm *typeMapping, name string) { tm.ignored[name] = true })
}

// UseLastNonBlank makes the members of T carry the last non-blank value of
// their column forward into the blank cells below it.
func UseLastNonBlank[T any](m *Mapper, members ...any) error {
	return setFlag[T](m, members, func(tm *typeMapping, name string) { tm.lastNonBlank[name] = true })
}

// IgnoreErrorsFor suppresses the conversion errors of the members:
// the member keeps its zero value and the row is not marked as erroneous.
func IgnoreErrorsFor[T any](m *Mapper, members ...any) error {
	return setFlag[T](m, members, func(tm *typeMapping, name string) { tm.ignoreErrors[name] = true })
}

// Format sets the column format of the members of T, overriding the type format.
func Format[T any](m *Mapper, format string, members ...any) error {
	return setFlag[T](m, members, func(tm *typeMapping, name string) { tm.formats[name] = format })
}

// UseFormat sets the format used for every member of type V without a column format,
// both for parsing (dates) and for writing (dates, numbers).
func UseFormat[V any](m *Mapper, format string) error {
	t := reflect.TypeFor[V]()
	if strings.TrimSpace(format) == "" {
		return configError(t, "", fmt.Errorf("%w: empty format", ErrInvalidArgument))
	}
	m.typeFormats[t] = format
	return nil
}

type integer interface {
	~int | ~int8 | ~int16 | ~int32 | ~int64 |
		~uint | ~uint8 | ~uint16 | ~uint32 | ~uint64
}

// RegisterEnum registers the values of the named integer type E as an enumeration:
// cells hold their names (fmt.Sprint, so the String method if E has one),
// matched case-insensitively on Take; numbers are accepted if they are registered values.
func RegisterEnum[E integer](m *Mapper, values ...E) error {
	t := reflect.TypeFor[E]()
	if len(values) == 0 {
		return configError(t, "", fmt.Errorf("%w: no values", ErrInvalidArgument))
	}
	names := make(map[int64]string, len(values))
	for _, v := range values {
		names[int64(v)] = fmt.Sprint(v)
	}
	m.converter.registerEnum(t, names)
	return nil
}

// MapColumns offers every column that no member claimed to the filter, once per Take or Put call.
// The columns accepted by the filter are mapped with the given resolvers.
// ColumnInfo.Binding.Index and Name are set for the filter.
func (m *Mapper) MapColumns(filter ColumnFilter, take TakeFunc, put PutFunc) error {
	if filter == nil {
		return configError(nil, "", fmt.Errorf("%w: nil filter", ErrInvalidArgument))
	}
	m.filters = append(m.filters, columnFilter{filter: filter, take: take, put: put})
	return nil
}

// ForHeader sets the function called with each header cell Put writes.
func (m *Mapper) ForHeader(styleHeader func(Cell)) { m.styleHeader = styleHeader }

func setFlag[T any](m *Mapper, members []any, set func(*typeMapping, string)) error {
	tm, err := m.mappingOf(reflect.TypeFor[T]())
	if err != nil {
		return err
	}
	if len(members) == 0 {
		return configError(tm.typ, "", fmt.Errorf("%w: no members", ErrInvalidArgument))
	}
	for _, member := range members {
		_, key, err := memberOf[T](tm, member)
		if err != nil {
			return err
		}
		set(tm, key)
	}
	return nil
}

// memberOf returns the member and its name given by name or by selector.
func memberOf[T any](tm *typeMapping, member any) (*Member, string, error) {
	switch x := member.(type) {
	case string:
		name := strings.TrimSpace(x)
		if name == "" {
			return nil, "", configError(tm.typ, "", fmt.Errorf("%w: empty member name", ErrInvalidArgument))
		}
		if tm.dynamic() {
			return nil, name, nil
		}
		mem, err := lookupMember(tm.members, name)
		if err != nil {
			return nil, "", configError(tm.typ, name, err)
		}
		return mem, mem.Name, nil

	case func(*T) any:
		if tm.dynamic() || reflect.TypeFor[T]().Kind() != reflect.Struct {
			return nil, "", configError(tm.typ, "", fmt.Errorf("%w: selector needs a struct type", ErrInvalidArgument))
		}
		var zero T
		base := reflect.ValueOf(&zero)
		if mem, ok := memberByPointer(tm.members, base, reflect.ValueOf(x(&zero))); ok {
			return mem, mem.Name, nil
		}
		return nil, "", configError(tm.typ, "", fmt.Errorf("%w: selector does not point to a field", ErrUnknownMember))

	case nil:
		return nil, "", configError(tm.typ, "", fmt.Errorf("%w: nil member", ErrInvalidArgument))
	}
	return nil, "", configError(tm.typ, "", fmt.Errorf("%w: member must be a name or a selector, not %T", ErrInvalidArgument, member))
}

