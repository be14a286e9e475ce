// Copyright 2026 Tamás Gulácsi.
//
// SPDX-License-Identifier: Apache-2.0

package sheetmap

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is a mapping configuration file:
//
//	hasHeader: true
//	firstRowIndex: 2
//	dateFormat: yyyy.mm.dd
//	types:
//	  Order:
//	    columns:
//	      - {member: ID, index: 0}
//	      - {member: Customer, name: Customer Name, display: Customer}
//	    ignore: [Internal]
//	    lastNonBlank: [Region]
//	    ignoreErrors: [Discount]
//	    formats: {Amount: "#,##0.00"}
type Config struct {
	HasHeader     *bool                 `yaml:"hasHeader,omitempty"`
	Types         map[string]TypeConfig `yaml:"types,omitempty"`
	DateFormat    string                `yaml:"dateFormat,omitempty"`
	FirstRowIndex int                   `yaml:"firstRowIndex,omitempty"`
}

// TypeConfig is the configuration of one type.
type TypeConfig struct {
	Formats      map[string]string `yaml:"formats,omitempty"`
	Columns      []ColumnConfig    `yaml:"columns,omitempty"`
	Ignore       []string          `yaml:"ignore,omitempty"`
	LastNonBlank []string          `yaml:"lastNonBlank,omitempty"`
	IgnoreErrors []string          `yaml:"ignoreErrors,omitempty"`
}

// ColumnConfig binds a member to a column given by index or by name.
type ColumnConfig struct {
	Index   *int   `yaml:"index,omitempty"`
	Member  string `yaml:"member"`
	Name    string `yaml:"name,omitempty"`
	Display string `yaml:"display,omitempty"`
	Format  string `yaml:"format,omitempty"`
}

// LoadConfig loads and parses a YAML mapping configuration file.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read mapping config %s: %w", path, err)
	}
	return ParseConfig(data)
}

// ParseConfig parses YAML data into a Config.
func ParseConfig(data []byte) (*Config, error) {
	var c Config
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("parse mapping config: %w", err)
	}
	for name, tc := range c.Types {
		for i, col := range tc.Columns {
			if col.Member == "" {
				return nil, fmt.Errorf("types.%s.columns[%d]: member is required", name, i)
			}
			if col.Index == nil && col.Name == "" {
				return nil, fmt.Errorf("types.%s.columns[%d]: index or name is required", name, i)
			}
		}
	}
	return &c, nil
}

// Apply sets the sheet layout and the date format of the Mapper.
func (c *Config) Apply(m *Mapper) error {
	if c.HasHeader != nil {
		m.HasHeader = *c.HasHeader
	}
	m.FirstRowIndex = c.FirstRowIndex
	if c.DateFormat != "" {
		return UseFormat[time.Time](m, c.DateFormat)
	}
	return nil
}

// ApplyConfig applies the configuration of the named type to T.
// A type missing from the configuration is not an error.
func ApplyConfig[T any](m *Mapper, c *Config, typeName string) error {
	tc, ok := c.Types[typeName]
	if !ok {
		return nil
	}
	for _, col := range tc.Columns {
		column := ColumnName(col.Name)
		if col.Index != nil {
			column = ColumnIndex(*col.Index)
		}
		var opts []MapOption
		if col.Display != "" {
			opts = append(opts, WithDisplayName(col.Display))
		}
		if col.Format != "" {
			opts = append(opts, WithFormat(col.Format))
		}
		if err := Map[T](m, column, col.Member, opts...); err != nil {
			return err
		}
	}
	for _, x := range []struct {
		set   func(*Mapper, ...any) error
		names []string
	}{
		{Ignore[T], tc.Ignore},
		{UseLastNonBlank[T], tc.LastNonBlank},
		{IgnoreErrorsFor[T], tc.IgnoreErrors},
	} {
		if len(x.names) == 0 {
			continue
		}
		if err := x.set(m, toAny(x.names)...); err != nil {
			return err
		}
	}
	for member, format := range tc.Formats {
		if err := Format[T](m, format, member); err != nil {
			return err
		}
	}
	return nil
}

func toAny(ss []string) []any {
	a := make([]any, len(ss))
	for i, s := range ss {
		a[i] = s
	}
	return a
}
