// Copyright 2026 Tamás Gulácsi.
//
// SPDX-License-Identifier: Apache-2.0

package sheetmap

import (
	"reflect"
	"strconv"
	"strings"
	"sync"
)

// Member describes one exported field of a struct type, promoted fields of
// embedded structs included.
type Member struct {
	Type reflect.Type
	Name string
	tag  memberTag
	// index is the field index path for FieldByIndex.
	index []int
	// offset of the field from the start of the outermost struct, if there is no pointer indirection on the path.
	offset   uintptr
	indirect bool
}

// memberTag is the declarative metadata of a field:
//
//	`sheet:"Header Name,index=3,lastnonblank,ignoreerrors,format=0.00%" display:"Display Name"`
//	`sheet:"-"`
//
// format must be the last option, as it takes the rest of the tag.
type memberTag struct {
	Name            string
	Display         string
	Format          string
	Index           int
	Ignore          bool
	UseLastNonBlank bool
	IgnoreErrors    bool
}

func parseTag(f reflect.StructField) memberTag {
	mt := memberTag{Index: -1, Display: f.Tag.Get("display")}
	tag, ok := f.Tag.Lookup("sheet")
	if !ok {
		return mt
	}
	if tag == "-" {
		mt.Ignore = true
		return mt
	}
	name, rest, _ := strings.Cut(tag, ",")
	mt.Name = strings.TrimSpace(name)
	for rest != "" {
		var opt string
		if strings.HasPrefix(rest, "format=") {
			opt, rest = rest, ""
		} else {
			opt, rest, _ = strings.Cut(rest, ",")
		}
		k, v, _ := strings.Cut(opt, "=")
		switch strings.TrimSpace(k) {
		case "index":
			if i, err := strconv.Atoi(strings.TrimSpace(v)); err == nil && i >= 0 {
				mt.Index = i
			}
		case "format":
			mt.Format = v
		case "lastnonblank":
			mt.UseLastNonBlank = true
		case "ignoreerrors":
			mt.IgnoreErrors = true
		case "ignore":
			mt.Ignore = true
		}
	}
	return mt
}

// Get returns the value of the member in the struct value.
// It returns false when a nil embedded pointer is in the way.
func (m *Member) Get(obj reflect.Value) (reflect.Value, bool) {
	v, err := obj.FieldByIndexErr(m.index)
	return v, err == nil
}

// field returns the settable field, allocating nil embedded pointers.
func (m *Member) field(obj reflect.Value) reflect.Value {
	v := obj
	for i, x := range m.index {
		if i > 0 && v.Kind() == reflect.Pointer {
			if v.IsNil() {
				v.Set(reflect.New(v.Type().Elem()))
			}
			v = v.Elem()
		}
		v = v.Field(x)
	}
	return v
}

// Set sets the member of the (addressable) struct value.
func (m *Member) Set(obj, value reflect.Value) { m.field(obj).Set(value) }

var membersCache sync.Map // reflect.Type -> []*Member

// Members returns the descriptors of the exported fields of the struct type t,
// in declaration order. Fields promoted through a pointer to an unexported
// embedded struct are left out.
func Members(t reflect.Type) []*Member {
	if v, ok := membersCache.Load(t); ok {
		return v.([]*Member)
	}
	var members []*Member
	for _, f := range reflect.VisibleFields(t) {
		if f.Anonymous || !f.IsExported() {
			continue
		}
		m := &Member{Name: f.Name, Type: f.Type, index: f.Index, tag: parseTag(f)}
		// sum the offsets along the path
		st := t
		settable := true
		for i, x := range f.Index {
			sf := st.Field(x)
			m.offset += sf.Offset
			if i < len(f.Index)-1 {
				st = sf.Type
				if st.Kind() == reflect.Pointer {
					// a nil pointer to an unexported embedded struct cannot be allocated
					if !sf.IsExported() {
						settable = false
						break
					}
					m.indirect = true
					st = st.Elem()
				}
			}
		}
		if settable {
			members = append(members, m)
		}
	}
	v, _ := membersCache.LoadOrStore(t, members)
	return v.([]*Member)
}

// lookupMember finds the member by name: an exact match wins,
// otherwise the case-insensitive match must be unique.
func lookupMember(members []*Member, name string) (*Member, error) {
	var found *Member
	var n int
	for _, m := range members {
		if m.Name == name {
			return m, nil
		}
		if strings.EqualFold(m.Name, name) {
			found = m
			n++
		}
	}
	switch n {
	case 0:
		return nil, ErrUnknownMember
	case 1:
		return found, nil
	default:
		return nil, ErrAmbiguousMember
	}
}

// memberByPointer finds the member whose address within base is ptr.
func memberByPointer(members []*Member, base, ptr reflect.Value) (*Member, bool) {
	if ptr.Kind() != reflect.Pointer || ptr.IsNil() {
		return nil, false
	}
	off := ptr.Pointer() - base.Pointer()
	for _, m := range members {
		if !m.indirect && m.offset == off && m.Type == ptr.Type().Elem() {
			return m, true
		}
	}
	return nil, false
}
