// Copyright 2026 Tamás Gulácsi.
//
// SPDX-License-Identifier: Apache-2.0

package sheetmap

import (
	"errors"
	"fmt"
	"reflect"
)

var (
	ErrUnknownMember   = errors.New("unknown member")
	ErrAmbiguousMember = errors.New("ambiguous member")
	ErrInvalidArgument = errors.New("invalid argument")
)

// ConfigurationError is returned by the mapping configuration functions.
type ConfigurationError struct {
	Type   reflect.Type
	Err    error
	Member string
}

func (e *ConfigurationError) Error() string {
	if e.Member == "" {
		return fmt.Sprintf("configure %v: %v", e.Type, e.Err)
	}
	return fmt.Sprintf("configure %v.%s: %v", e.Type, e.Member, e.Err)
}

func (e *ConfigurationError) Unwrap() error { return e.Err }

func configError(t reflect.Type, member string, err error) *ConfigurationError {
	return &ConfigurationError{Type: t, Member: member, Err: err}
}

// ConversionError describes the first cell of a row that could not be converted.
type ConversionError struct {
	Type   reflect.Type
	Member string
	Raw    Value
	Row    int
	Column int
}

func (e *ConversionError) Error() string {
	var typ string
	if e.Type != nil {
		typ = e.Type.String()
	}
	return fmt.Sprintf("row %d column %d (%s): cannot convert %s %q to %s",
		e.Row, e.Column, e.Member, e.Raw.Kind, e.Raw.String(), typ)
}
