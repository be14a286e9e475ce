// Copyright 2026 Tamás Gulácsi.
//
// SPDX-License-Identifier: Apache-2.0

package sheetmap

import (
	"database/sql"
	"database/sql/driver"
	"encoding"
	"fmt"
	"math"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

var (
	timeType        = reflect.TypeFor[time.Time]()
	uuidType        = reflect.TypeFor[uuid.UUID]()
	anyType         = reflect.TypeFor[any]()
	stringType      = reflect.TypeFor[string]()
	scannerType     = reflect.TypeFor[sql.Scanner]()
	unmarshalerType = reflect.TypeFor[encoding.TextUnmarshaler]()
)

// Converter converts between raw cell values and typed Go values.
//
// The zero Converter is usable; enum types are known only after RegisterEnum.
type Converter struct {
	enums map[reflect.Type]*enumType
}

var defaultConverter = &Converter{}

type enumType struct {
	byName map[string]int64
	names  map[int64]string
}

func (c *Converter) registerEnum(t reflect.Type, values map[int64]string) {
	if c.enums == nil {
		c.enums = make(map[reflect.Type]*enumType)
	}
	e := c.enums[t]
	if e == nil {
		e = &enumType{byName: make(map[string]int64), names: make(map[int64]string)}
		c.enums[t] = e
	}
	for k, v := range values {
		e.names[k] = v
		e.byName[strings.ToLower(v)] = k
	}
}

// ToTyped converts raw into a value of type t, using format for parsing dates.
// Blank input yields the zero value of t.
// It never panics: failure is reported only by the second return value.
func (c *Converter) ToTyped(raw Value, t reflect.Type, format string) (any, bool) {
	v, ok := c.convert(raw, t, format, reflect.Value{})
	if !ok {
		return nil, false
	}
	return v.Interface(), true
}

// Convert is the generic form of Converter.ToTyped.
func Convert[V any](c *Converter, raw Value, format string) (V, bool) {
	var zero V
	if c == nil {
		c = defaultConverter
	}
	v, ok := c.convert(raw, reflect.TypeFor[V](), format, reflect.Value{})
	if !ok {
		return zero, false
	}
	return v.Interface().(V), true
}

// convert is ToTyped with the current value of the target, needed to append
// to collections.
func (c *Converter) convert(raw Value, t reflect.Type, format string, current reflect.Value) (reflect.Value, bool) {
	if raw.IsBlank() {
		if t.Kind() == reflect.Slice && current.IsValid() && !current.IsNil() {
			return current, true
		}
		return reflect.Zero(t), true
	}
	if t.Kind() == reflect.Pointer {
		var cur reflect.Value
		if current.IsValid() && !current.IsNil() {
			cur = current.Elem()
		}
		v, ok := c.convert(raw, t.Elem(), format, cur)
		if !ok {
			return reflect.Value{}, false
		}
		p := reflect.New(t.Elem())
		p.Elem().Set(v)
		return p, true
	}
	switch t {
	case timeType:
		tm, ok := toTime(raw, format)
		return reflect.ValueOf(tm), ok
	case uuidType:
		if raw.Kind != KindString {
			return reflect.Value{}, false
		}
		u, err := uuid.Parse(strings.TrimSpace(raw.Str))
		return reflect.ValueOf(u), err == nil
	}
	if e := c.enums[t]; e != nil {
		return convertEnum(raw, t, e)
	}
	if t.Kind() != reflect.Interface && reflect.PointerTo(t).Implements(scannerType) {
		p := reflect.New(t)
		if err := p.Interface().(sql.Scanner).Scan(raw.Interface()); err != nil {
			return reflect.Value{}, false
		}
		return p.Elem(), true
	}

	v := reflect.New(t).Elem()
	switch t.Kind() {
	case reflect.String:
		v.SetString(raw.String())
		return v, true

	case reflect.Bool:
		switch raw.Kind {
		case KindBool:
			v.SetBool(raw.Bool)
		case KindNumber:
			v.SetBool(raw.Num != 0)
		case KindString:
			s := strings.TrimSpace(raw.Str)
			switch {
			case strings.EqualFold(s, "true"):
				v.SetBool(true)
			case strings.EqualFold(s, "false"):
			default:
				return reflect.Value{}, false
			}
		default:
			return reflect.Value{}, false
		}
		return v, true

	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		if raw.Kind == KindString {
			if i, err := strconv.ParseInt(strings.TrimSpace(raw.Str), 10, 64); err == nil {
				if v.OverflowInt(i) {
					return reflect.Value{}, false
				}
				v.SetInt(i)
				return v, true
			}
		}
		f, ok := toFloat(raw)
		if !ok || math.IsNaN(f) || math.IsInf(f, 0) {
			return reflect.Value{}, false
		}
		f = math.RoundToEven(f)
		if f < math.MinInt64 || f >= math.MaxInt64 || v.OverflowInt(int64(f)) {
			return reflect.Value{}, false
		}
		v.SetInt(int64(f))
		return v, true

	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		f, ok := toFloat(raw)
		if !ok || math.IsNaN(f) || math.IsInf(f, 0) {
			return reflect.Value{}, false
		}
		f = math.RoundToEven(f)
		if f < 0 || f >= math.MaxUint64 || v.OverflowUint(uint64(f)) {
			return reflect.Value{}, false
		}
		v.SetUint(uint64(f))
		return v, true

	case reflect.Float32, reflect.Float64:
		f, ok := toFloat(raw)
		if !ok || v.OverflowFloat(f) {
			return reflect.Value{}, false
		}
		v.SetFloat(f)
		return v, true

	case reflect.Slice:
		switch t.Elem().Kind() {
		case reflect.Uint8:
			v.SetBytes([]byte(raw.String()))
			return v, true
		case reflect.String:
			if current.IsValid() && !current.IsNil() {
				v = current
			}
			elem := reflect.New(t.Elem()).Elem()
			elem.SetString(raw.String())
			return reflect.Append(v, elem), true
		}

	case reflect.Interface:
		if t == anyType {
			v.Set(reflect.ValueOf(raw.Interface()))
			return v, true
		}
		if stringType.AssignableTo(t) {
			v.Set(reflect.ValueOf(raw.String()))
			return v, true
		}
	}

	if reflect.PointerTo(t).Implements(unmarshalerType) {
		p := reflect.New(t)
		if err := p.Interface().(encoding.TextUnmarshaler).UnmarshalText([]byte(raw.String())); err != nil {
			return reflect.Value{}, false
		}
		return p.Elem(), true
	}
	return reflect.Value{}, false
}

func convertEnum(raw Value, t reflect.Type, e *enumType) (reflect.Value, bool) {
	var ordinal int64
	switch raw.Kind {
	case KindNumber:
		if raw.Num != math.Trunc(raw.Num) {
			return reflect.Value{}, false
		}
		ordinal = int64(raw.Num)
		if _, ok := e.names[ordinal]; !ok {
			return reflect.Value{}, false
		}
	case KindString:
		var ok bool
		if ordinal, ok = e.byName[strings.ToLower(strings.TrimSpace(raw.Str))]; !ok {
			return reflect.Value{}, false
		}
	default:
		return reflect.Value{}, false
	}
	v := reflect.New(t).Elem()
	switch t.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		v.SetInt(ordinal)
	default:
		v.SetUint(uint64(ordinal))
	}
	return v, true
}

func toFloat(raw Value) (float64, bool) {
	switch raw.Kind {
	case KindNumber:
		return raw.Num, true
	case KindString:
		f, err := strconv.ParseFloat(strings.TrimSpace(raw.Str), 64)
		return f, err == nil
	case KindDate:
		return DateSerial(raw.Time), true
	}
	return 0, false
}

func toTime(raw Value, format string) (time.Time, bool) {
	switch raw.Kind {
	case KindDate:
		return raw.Time, true
	case KindNumber:
		return SerialTime(raw.Num)
	case KindString:
		return parseTime(raw.Str, format)
	}
	return time.Time{}, false
}

// ToRaw converts a typed value to a raw cell value.
// nil, nil pointers and the zero time are blank.
func (c *Converter) ToRaw(x any, format string) Value {
	v, _ := c.toRaw(x, format)
	return v
}

// toRaw returns the raw value and the number format the cell should display it with.
func (c *Converter) toRaw(x any, format string) (Value, string) {
	if x == nil {
		return Value{}, ""
	}
	rv := reflect.ValueOf(x)
	for rv.Kind() == reflect.Pointer || rv.Kind() == reflect.Interface {
		if rv.IsNil() {
			return Value{}, ""
		}
		rv = rv.Elem()
	}
	x = rv.Interface()

	switch x := x.(type) {
	case Value:
		return x, ""
	case time.Time:
		if x.IsZero() {
			return Value{}, ""
		}
		if format == "" {
			format = DefaultDateFormat
		}
		return DateValue(x), format
	case uuid.UUID:
		return StringValue(x.String()), ""
	case Number:
		if x == "" {
			return Value{}, ""
		}
		if f, err := strconv.ParseFloat(string(x), 64); err == nil {
			return NumberValue(f), format
		}
		return StringValue(string(x)), ""
	}
	if e := c.enums[rv.Type()]; e != nil {
		var ordinal int64
		if rv.CanInt() {
			ordinal = rv.Int()
		} else {
			ordinal = int64(rv.Uint())
		}
		if name, ok := e.names[ordinal]; ok {
			return StringValue(name), ""
		}
		return NumberValue(float64(ordinal)), ""
	}
	if vr, ok := x.(driver.Valuer); ok {
		dv, err := vr.Value()
		if err != nil {
			return Value{}, ""
		}
		return c.toRaw(dv, format)
	}

	switch rv.Kind() {
	case reflect.Bool:
		return BoolValue(rv.Bool()), ""
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		if _, ok := x.(fmt.Stringer); !ok {
			return NumberValue(float64(rv.Int())), format
		}
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		if _, ok := x.(fmt.Stringer); !ok {
			return NumberValue(float64(rv.Uint())), format
		}
	case reflect.Float32, reflect.Float64:
		return NumberValue(rv.Float()), format
	case reflect.String:
		return StringValue(rv.String()), ""
	case reflect.Slice:
		if rv.Type().Elem().Kind() == reflect.Uint8 {
			return StringValue(string(rv.Bytes())), ""
		}
		if rv.Len() == 0 {
			return Value{}, ""
		}
		parts := make([]string, rv.Len())
		for i := range parts {
			parts[i] = c.ToRaw(rv.Index(i).Interface(), "").String()
		}
		return StringValue(strings.Join(parts, ", ")), ""
	}
	switch x := x.(type) {
	case fmt.Stringer:
		return StringValue(x.String()), ""
	case encoding.TextMarshaler:
		if b, err := x.MarshalText(); err == nil {
			return StringValue(string(b)), ""
		}
	}
	return StringValue(fmt.Sprint(x)), ""
}

// formatRaw returns the natural string form of v.
func formatRaw(v Value) string {
	switch v.Kind {
	case KindString:
		return v.Str
	case KindNumber:
		return strconv.FormatFloat(v.Num, 'f', -1, 64)
	case KindBool:
		return strconv.FormatBool(v.Bool)
	case KindDate:
		if h, m, s := v.Time.Clock(); h == 0 && m == 0 && s == 0 {
			return v.Time.Format("2006-01-02")
		}
		return v.Time.Format("2006-01-02 15:04:05")
	}
	return ""
}
