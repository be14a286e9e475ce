// Copyright 2026 Tamás Gulácsi.
//
// SPDX-License-Identifier: Apache-2.0

package sheetmap

import (
	"reflect"
	"slices"
	"strings"
)

// typeMapping is the configuration of one target type.
type typeMapping struct {
	typ          reflect.Type
	ignored      map[string]bool
	lastNonBlank map[string]bool
	ignoreErrors map[string]bool
	formats      map[string]string
	members      []*Member
	// explicit bindings in registration order, at most one per member.
	explicit []*Binding
}

func newTypeMapping(t reflect.Type) *typeMapping {
	tm := &typeMapping{
		typ:          t,
		ignored:      make(map[string]bool),
		lastNonBlank: make(map[string]bool),
		ignoreErrors: make(map[string]bool),
		formats:      make(map[string]string),
	}
	if t != bagType {
		tm.members = Members(t)
	}
	return tm
}

func (tm *typeMapping) dynamic() bool { return tm.typ == bagType }

// setExplicit registers b, replacing the previous explicit binding of the same member.
// Bindings without member (dynamic keys) are replaced by key.
func (tm *typeMapping) setExplicit(b *Binding) {
	tm.explicit = slices.DeleteFunc(tm.explicit, func(e *Binding) bool {
		return e.memberName() == b.memberName()
	})
	tm.explicit = append(tm.explicit, b)
}

func (tm *typeMapping) isIgnored(name string) bool { return tm.ignored[name] }

// headerCell is one cell of the header row; synthetic when the sheet has no header.
type headerCell struct {
	value Value
	name  string
	index int
}

// boundColumn is a Binding with the state of one Take or Put call.
type boundColumn struct {
	*Binding
	info    ColumnInfo
	last    Value
	style   Style
	hasLast bool
	styled  bool
}

func (c *boundColumn) reset() {
	c.last, c.hasLast = Value{}, false
	c.style, c.styled = Style{}, false
}

type resolver struct {
	tm      *typeMapping
	m       *Mapper
	claimed map[int]bool
	bound   map[string]bool
	header  []headerCell
	out     []*boundColumn
	create  bool
}

// resolve returns the bindings of tm against the header for one Take or Put call.
//
// The precedence is: explicit configuration, struct tags (index over name
// over display name), header text equal to the member name, header text
// equal to the member name after normalization. Columns nobody claimed are
// offered to the column filters. Ignored members are never bound.
//
// keys are the names of the dynamic values to put; for dynamic Take (keys == nil)
// every header cell becomes a binding.
// If create is true, members without a column get Index -1, to be placed by the caller.
func (m *Mapper) resolve(tm *typeMapping, header []headerCell, keys []string, create bool) []*boundColumn {
	r := resolver{
		m: m, tm: tm, header: header, create: create,
		claimed: make(map[int]bool), bound: make(map[string]bool),
	}
	r.explicit()
	if tm.dynamic() {
		r.dynamicKeys(keys)
	} else {
		r.tags()
		r.names()
	}
	r.filters()
	if tm.dynamic() && keys == nil {
		r.dynamicColumns()
	}
	for _, c := range r.out {
		r.flags(c)
		if c.info.Binding != nil {
			continue
		}
		c.info.Binding = c.Binding
		if h := r.headerAt(c.Index); h != nil {
			c.info.HeaderValue = h.value.Interface()
		}
	}
	// claimed columns in index order, the ones to be created after them
	slices.SortStableFunc(r.out, func(a, b *boundColumn) int {
		switch {
		case a.Index < 0 && b.Index < 0:
			return 0
		case a.Index < 0:
			return 1
		case b.Index < 0:
			return -1
		}
		return a.Index - b.Index
	})
	return r.out
}

func (r *resolver) headerAt(index int) *headerCell {
	for i := range r.header {
		if r.header[i].index == index {
			return &r.header[i]
		}
	}
	return nil
}

// lastMatch returns the index of the last unclaimed header cell matching the name.
func (r *resolver) lastMatch(name string, match func(h *headerCell) bool) int {
	idx := -1
	if name == "" {
		return idx
	}
	for i := range r.header {
		h := &r.header[i]
		if !r.claimed[h.index] && match(h) {
			idx = h.index
		}
	}
	return idx
}

func (r *resolver) byName(name string) int {
	return r.lastMatch(name, func(h *headerCell) bool { return strings.EqualFold(h.name, name) })
}

func (r *resolver) add(b *Binding) {
	if b.Index >= 0 {
		r.claimed[b.Index] = true
		if b.Name == "" {
			if h := r.headerAt(b.Index); h != nil {
				b.Name = h.name
			}
		}
	}
	if name := b.memberName(); name != "" {
		r.bound[name] = true
	}
	r.out = append(r.out, &boundColumn{Binding: b})
}

func (r *resolver) explicit() {
	// the later registration wins a column
	for i := len(r.tm.explicit) - 1; i >= 0; i-- {
		e := r.tm.explicit[i]
		if r.tm.isIgnored(e.memberName()) {
			continue
		}
		b := *e
		if b.Index >= 0 {
			if r.claimed[b.Index] {
				continue
			}
		} else if b.Index = r.byName(b.Name); b.Index < 0 && !r.create {
			continue
		}
		r.add(&b)
	}
}

func (r *resolver) tags() {
	for _, mem := range r.tm.members {
		t := mem.tag
		if r.bound[mem.Name] || t.Ignore || r.tm.isIgnored(mem.Name) {
			continue
		}
		b := Binding{Member: mem, Index: -1, Name: t.Name, DisplayName: t.Display, source: sourceTag}
		if t.Index >= 0 && !r.claimed[t.Index] {
			b.Index = t.Index
			r.add(&b)
			continue
		}
		if b.Index = r.byName(t.Name); b.Index < 0 {
			b.Index = r.byName(t.Display)
		}
		if b.Index >= 0 || r.create && (t.Name != "" || t.Display != "" || t.Index >= 0) {
			r.add(&b)
		}
	}
}

func (r *resolver) names() {
	for _, mem := range r.tm.members {
		if r.bound[mem.Name] || mem.tag.Ignore || r.tm.isIgnored(mem.Name) {
			continue
		}
		b := Binding{Member: mem, Index: r.byName(mem.Name), source: sourceAuto}
		if b.Index < 0 {
			norm := normalizeName(mem.Name)
			b.Index = r.lastMatch(norm, func(h *headerCell) bool { return normalizeName(h.name) == norm })
		}
		if b.Index >= 0 || r.create {
			r.add(&b)
		}
	}
}

// dynamicKeys binds the keys of the Bags to put.
func (r *resolver) dynamicKeys(keys []string) {
	for _, k := range keys {
		if r.bound[k] || r.tm.isIgnored(k) {
			continue
		}
		b := Binding{Key: k, source: sourceAuto}
		b.Index = r.lastMatch(k, func(h *headerCell) bool {
			return DynamicName(h.name, h.index) == k || strings.EqualFold(h.name, k)
		})
		if b.Index >= 0 || r.create {
			r.add(&b)
		}
	}
}

// dynamicColumns binds every remaining header cell, by its synthesized name.
func (r *resolver) dynamicColumns() {
	for _, h := range r.header {
		if r.claimed[h.index] {
			continue
		}
		key := DynamicName(h.name, h.index)
		if r.tm.isIgnored(key) || r.tm.isIgnored(h.name) {
			continue
		}
		r.add(&Binding{Key: key, Name: h.name, Index: h.index, source: sourceAuto})
	}
}

func (r *resolver) filters() {
	if len(r.m.filters) == 0 {
		return
	}
	for _, h := range r.header {
		if r.claimed[h.index] {
			continue
		}
		b := &Binding{Index: h.index, Name: h.name, source: sourceFilter}
		info := ColumnInfo{HeaderValue: h.value.Interface(), Binding: b}
		for _, f := range r.m.filters {
			if f.filter(&info) {
				b.Take, b.Put = f.take, f.put
				r.claimed[h.index] = true
				r.out = append(r.out, &boundColumn{Binding: b, info: info})
				break
			}
		}
	}
}

// flags applies the per-member settings and computes the effective format.
func (r *resolver) flags(c *boundColumn) {
	name := c.memberName()
	if name == "" {
		return
	}
	c.UseLastNonBlank = c.UseLastNonBlank || r.tm.lastNonBlank[name]
	c.IgnoreErrors = c.IgnoreErrors || r.tm.ignoreErrors[name]
	if c.Member != nil {
		c.UseLastNonBlank = c.UseLastNonBlank || c.Member.tag.UseLastNonBlank
		c.IgnoreErrors = c.IgnoreErrors || c.Member.tag.IgnoreErrors
	}
	if c.Format == "" {
		c.Format = r.tm.formats[name]
	}
	if c.Format == "" && c.Member != nil {
		if c.Member.tag.Format != "" {
			c.Format = c.Member.tag.Format
		} else {
			c.Format = r.m.typeFormat(c.Member.Type)
		}
	}
}
