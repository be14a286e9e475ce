// Copyright 2026 Tamás Gulácsi.
//
// SPDX-License-Identifier: Apache-2.0

package sheetmap

import (
	"errors"
	"reflect"
	"slices"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sampleRow struct {
	Date     time.Time
	Nullable *time.Time
	Name     string
	Custom   string `sheet:",index=12"`
	Display  string `display:"Shown Name"`
	Skipped  string `sheet:"-"`
	Amount   float64
	Count    int
	Day      weekday
	Active   bool
}

// newMapper returns a Mapper over a new in-memory sheet, filled with the rows.
// nil values are left out.
func newMapper(t *testing.T, rows ...[]any) (*Mapper, Sheet) {
	t.Helper()
	wb := NewMemoryWorkbook()
	sh, err := wb.CreateSheet("Sheet1")
	require.NoError(t, err)
	for i, r := range rows {
		for j, v := range r {
			if v != nil {
				setCell(t, sh, i, j, v)
			}
		}
	}
	return New(wb), sh
}

func setCell(t *testing.T, sh Sheet, i, j int, v any) {
	t.Helper()
	row, err := sh.CreateRow(i)
	require.NoError(t, err)
	c, err := row.CreateCell(j)
	require.NoError(t, err)
	require.NoError(t, c.SetValue(ValueOf(v)))
}

func takeAll[T any](t *testing.T, m *Mapper, sel Selector) []RowResult[T] {
	t.Helper()
	seq, err := Take[T](m, sel)
	require.NoError(t, err)
	return slices.Collect(seq)
}

func TestTakeByHeaderName(t *testing.T) {
	day := time.Date(2024, 5, 6, 7, 8, 9, 0, time.UTC)
	m, _ := newMapper(t,
		[]any{"Name", "count", " Amount ", "ACTIVE", "Day", "Date", "Nullable", "Skipped"},
		[]any{"alpha", 3.0, 1.5, true, "Tuesday", day, nil, "x"},
		nil,
		[]any{"beta", "4", "2.25", 0.0, 1.0, "2024-05-06 07:08:09", day},
	)
	require.NoError(t, RegisterEnum(m, monday, tuesday, wednesday))

	rows := takeAll[sampleRow](t, m, SheetIndex(0))
	require.Len(t, rows, 2, "the blank row is skipped")

	assert.Equal(t, NoError, rows[0].ErrorColumnIndex)
	assert.NoError(t, rows[0].Err)
	assert.Equal(t, 1, rows[0].Row)
	assert.Equal(t, sampleRow{Name: "alpha", Count: 3, Amount: 1.5, Active: true, Day: tuesday, Date: day}, rows[0].Value)

	assert.Equal(t, 3, rows[1].Row)
	want := sampleRow{Name: "beta", Count: 4, Amount: 2.25, Day: monday, Date: day, Nullable: &day}
	assert.Equal(t, want, rows[1].Value)
}

func TestTakePointer(t *testing.T) {
	m, _ := newMapper(t, []any{"Name"}, []any{"a"}, []any{"b"})
	rows := takeAll[*sampleRow](t, m, SheetIndex(0))
	require.Len(t, rows, 2)
	assert.Equal(t, "a", rows[0].Value.Name)
	assert.Equal(t, "b", rows[1].Value.Name)
}

func TestTakeNormalizedName(t *testing.T) {
	type order struct {
		OrderID  int
		Customer string
	}
	m, _ := newMapper(t, []any{"Order ID", "customer"}, []any{12.0, "ACME"})
	rows := takeAll[order](t, m, SheetIndex(0))
	require.Len(t, rows, 1)
	assert.Equal(t, order{OrderID: 12, Customer: "ACME"}, rows[0].Value)
}

func TestExplicitMapWinsOverTag(t *testing.T) {
	m, sh := newMapper(t, []any{"Name"}, []any{"a"})
	setCell(t, sh, 1, 12, "from tag")
	setCell(t, sh, 1, 13, "explicit")

	rows := takeAll[sampleRow](t, m, SheetIndex(0))
	require.Len(t, rows, 1)
	assert.Equal(t, "from tag", rows[0].Value.Custom)

	require.NoError(t, Map[sampleRow](m, ColumnIndex(13), "Custom"))
	rows = takeAll[sampleRow](t, m, SheetIndex(0))
	require.Len(t, rows, 1)
	assert.Equal(t, "explicit", rows[0].Value.Custom)
}

func TestTagIndexWinsOverTagName(t *testing.T) {
	type tagged struct {
		Value string `sheet:"Header,index=5"`
	}
	m, sh := newMapper(t, []any{"x", "x", "x", "Header"}, []any{"a", "b", "c", "by name"})
	setCell(t, sh, 1, 5, "by index")
	rows := takeAll[tagged](t, m, SheetIndex(0))
	require.Len(t, rows, 1)
	assert.Equal(t, "by index", rows[0].Value.Value)
}

func TestTagDisplayName(t *testing.T) {
	m, _ := newMapper(t, []any{"Shown Name"}, []any{"shown"})
	rows := takeAll[sampleRow](t, m, SheetIndex(0))
	require.Len(t, rows, 1)
	assert.Equal(t, "shown", rows[0].Value.Display)
}

func TestDuplicateHeaderLastWins(t *testing.T) {
	type target struct{ MyString string }
	m, sh := newMapper(t)
	setCell(t, sh, 0, 7, "targetColumn")
	setCell(t, sh, 0, 9, "targetColumn")
	setCell(t, sh, 11, 7, "aBC")
	setCell(t, sh, 11, 9, "aBCd")

	require.NoError(t, Map[target](m, ColumnName(" TARGETCOLUMN "), "MyString"))
	rows := takeAll[target](t, m, SheetIndex(0))
	require.Len(t, rows, 1)
	assert.Equal(t, "aBCd", rows[0].Value.MyString)
}

func TestMapBySelector(t *testing.T) {
	m, _ := newMapper(t, []any{"a", "b"}, []any{"x", "y"})
	require.NoError(t, Map[sampleRow](m, ColumnIndex(1), func(r *sampleRow) any { return &r.Name }))
	rows := takeAll[sampleRow](t, m, SheetIndex(0))
	require.Len(t, rows, 1)
	assert.Equal(t, "y", rows[0].Value.Name)
}

func TestUseLastNonBlank(t *testing.T) {
	type carried struct {
		Group string
		Item  int
	}
	m, _ := newMapper(t,
		[]any{"Group", "Item"},
		[]any{"str1", 1.0},
		[]any{"", 2.0},
		[]any{nil, 3.0},
		[]any{"str2", 4.0},
	)
	require.NoError(t, UseLastNonBlank[carried](m, "Group"))
	seq, err := Take[carried](m, SheetIndex(0))
	require.NoError(t, err)

	var groups []string
	for r := range seq {
		groups = append(groups, r.Value.Group)
	}
	assert.Equal(t, []string{"str1", "str1", "str1", "str2"}, groups)

	// a new iteration starts with a fresh memo
	for r := range seq {
		assert.Equal(t, "str1", r.Value.Group)
		break
	}
}

func TestUseLastNonBlankTag(t *testing.T) {
	type carried struct {
		Group string `sheet:",lastnonblank"`
		Item  int
	}
	m, _ := newMapper(t, []any{"Group", "Item"}, []any{"g", 1.0}, []any{nil, 2.0})
	rows := takeAll[carried](t, m, SheetIndex(0))
	require.Len(t, rows, 2)
	assert.Equal(t, "g", rows[1].Value.Group)
}

func TestFirstErrorWins(t *testing.T) {
	type numbers struct {
		A, B, C int
	}
	m, _ := newMapper(t,
		[]any{"A", "x", "B", "y", "z", "C"},
		[]any{1.0, nil, "bad", nil, nil, "worse"},
		[]any{1.0, nil, 2.0, nil, nil, 3.0},
	)
	rows := takeAll[numbers](t, m, SheetIndex(0))
	require.Len(t, rows, 2)

	assert.Equal(t, 2, rows[0].ErrorColumnIndex)
	var cerr *ConversionError
	require.True(t, errors.As(rows[0].Err, &cerr))
	assert.Equal(t, "B", cerr.Member)
	assert.Equal(t, 2, cerr.Column)
	assert.Equal(t, 1, cerr.Row)
	assert.Equal(t, 1, rows[0].Value.A, "the other columns are still converted")

	assert.Equal(t, NoError, rows[1].ErrorColumnIndex)
	assert.Equal(t, numbers{1, 2, 3}, rows[1].Value)
}

func TestIgnoreErrorsFor(t *testing.T) {
	type numbers struct {
		A int
		B int `sheet:",ignoreerrors"`
		C int
	}
	m, _ := newMapper(t, []any{"A", "B", "C"}, []any{"bad", "bad", "bad"}, []any{1.0, "bad", 3.0})
	require.NoError(t, IgnoreErrorsFor[numbers](m, "A"))

	rows := takeAll[numbers](t, m, SheetIndex(0))
	require.Len(t, rows, 2)
	assert.Equal(t, 2, rows[0].ErrorColumnIndex)
	assert.Equal(t, NoError, rows[1].ErrorColumnIndex)
	assert.Equal(t, numbers{A: 1, C: 3}, rows[1].Value)
}

func TestIgnore(t *testing.T) {
	type pair struct{ A, B string }
	m, _ := newMapper(t, []any{"A", "B"}, []any{"a", "b"})
	require.NoError(t, Map[pair](m, ColumnIndex(1), "A"))
	require.NoError(t, Ignore[pair](m, "A"))

	rows := takeAll[pair](t, m, SheetIndex(0))
	require.Len(t, rows, 1)
	assert.Equal(t, pair{B: "b"}, rows[0].Value, "ignore overrides the explicit mapping")
}

func TestTakeSheetSelection(t *testing.T) {
	m, _ := newMapper(t, []any{"Name"}, []any{"a"})
	_, err := m.Workbook().CreateSheet("Other")
	require.NoError(t, err)

	rows := takeAll[sampleRow](t, m, SheetName("sheet1"))
	assert.Len(t, rows, 1, "sheet names are case-insensitive")

	rows = takeAll[sampleRow](t, m, SheetName("missing"))
	assert.Empty(t, rows)

	rows = takeAll[sampleRow](t, m, SheetIndex(1))
	assert.Empty(t, rows)

	_, err = Take[sampleRow](m, SheetIndex(2))
	assert.ErrorIs(t, err, ErrSheetIndex)
}

func TestTakeWithoutHeader(t *testing.T) {
	type letters struct{ A, C string }
	m, _ := newMapper(t, nil, []any{"a1", "b1", "c1"}, []any{"a2", nil, "c2"})
	m.HasHeader = false
	m.FirstRowIndex = 1

	rows := takeAll[letters](t, m, SheetIndex(0))
	require.Len(t, rows, 2)
	assert.Equal(t, letters{A: "a1", C: "c1"}, rows[0].Value)
	assert.Equal(t, letters{A: "a2", C: "c2"}, rows[1].Value)
}

func TestTakeHeaderOffset(t *testing.T) {
	m, _ := newMapper(t, []any{"title"}, []any{"Name"}, []any{"a"})
	m.FirstRowIndex = 1
	rows := takeAll[sampleRow](t, m, SheetIndex(0))
	require.Len(t, rows, 1)
	assert.Equal(t, "a", rows[0].Value.Name)
}

func TestTakeEmptyStringRowIsNotBlank(t *testing.T) {
	m, _ := newMapper(t, []any{"Name"}, []any{""}, []any{nil})
	rows := takeAll[sampleRow](t, m, SheetIndex(0))
	require.Len(t, rows, 1)
	assert.Equal(t, "", rows[0].Value.Name)
}

func TestTakeStopsEarly(t *testing.T) {
	m, _ := newMapper(t, []any{"Name"}, []any{"a"}, []any{"b"}, []any{"c"})
	seq, err := Take[sampleRow](m, SheetIndex(0))
	require.NoError(t, err)
	var n int
	for range seq {
		if n++; n == 2 {
			break
		}
	}
	assert.Equal(t, 2, n)
}

func TestTakeResolvers(t *testing.T) {
	type record struct {
		Name string
		Tags []string
	}
	m, _ := newMapper(t,
		[]any{"Name", "Tag 1", "Other", "Tag 2"},
		[]any{"a;b", "x", "ignored", "y"},
	)
	require.NoError(t, Map[record](m, ColumnName("Name"), "Name", WithResolvers(
		func(col *ColumnInfo, target any) bool {
			s, ok := col.CurrentValue.(string)
			if ok {
				target.(*record).Name = strings.ReplaceAll(s, ";", ",")
			}
			return ok
		}, nil)))

	var filtered []string
	require.NoError(t, m.MapColumns(
		func(col *ColumnInfo) bool {
			s, _ := col.HeaderValue.(string)
			filtered = append(filtered, s)
			return strings.HasPrefix(s, "Tag")
		},
		func(col *ColumnInfo, target any) bool {
			r := target.(*record)
			r.Tags = append(r.Tags, col.CurrentValue.(string))
			return true
		},
		nil,
	))

	rows := takeAll[record](t, m, SheetIndex(0))
	require.Len(t, rows, 1)
	assert.Equal(t, record{Name: "a,b", Tags: []string{"x", "y"}}, rows[0].Value)
	assert.Equal(t, []string{"Tag 1", "Other", "Tag 2"}, filtered, "the filter runs once per unclaimed column")
}

func TestTakeResolverFailure(t *testing.T) {
	type record struct{ Name string }
	m, _ := newMapper(t, []any{"Name"}, []any{"a"})
	require.NoError(t, Map[record](m, ColumnIndex(0), "Name", WithResolvers(
		func(*ColumnInfo, any) bool { return false }, nil)))
	rows := takeAll[record](t, m, SheetIndex(0))
	require.Len(t, rows, 1)
	assert.Equal(t, 0, rows[0].ErrorColumnIndex)
}

func TestTakeFormat(t *testing.T) {
	type dated struct {
		A time.Time
		B time.Time `sheet:",format=dd/MM/yyyy"`
		C time.Time
	}
	m, _ := newMapper(t, []any{"A", "B", "C"}, []any{"2024^03^04", "04/03/2024", "04.03.2024"})
	require.NoError(t, UseFormat[time.Time](m, "yyyy^MM^dd"))
	require.NoError(t, Format[dated](m, "dd.MM.yyyy", "C"))

	want := time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC)
	rows := takeAll[dated](t, m, SheetIndex(0))
	require.Len(t, rows, 1)
	assert.Equal(t, NoError, rows[0].ErrorColumnIndex)
	assert.Equal(t, dated{A: want, B: want, C: want}, rows[0].Value)
}

func TestTakeDynamic(t *testing.T) {
	m, sh := newMapper(t,
		[]any{"N.I?F@", "Name", "Amount"},
		[]any{"12345678A", "", 12.5},
		[]any{"X", "b", nil},
	)
	setCell(t, sh, 0, 703, "   ")
	setCell(t, sh, 1, 703, true)
	require.NoError(t, Ignore[*Bag](m, "Name"))

	rows := takeAll[*Bag](t, m, SheetIndex(0))
	require.Len(t, rows, 2)

	b := rows[0].Value
	assert.Equal(t, []string{"NIF", "Amount", "AAB"}, b.Names())
	assert.Equal(t, "12345678A", b.Get("NIF"))
	assert.Equal(t, 12.5, b.Get("Amount"))
	assert.Equal(t, true, b.Get("AAB"))

	assert.Nil(t, rows[1].Value.Get("Amount"))
}

func TestTakeDynamicWithoutHeader(t *testing.T) {
	m, _ := newMapper(t, []any{"a", nil, 1.0})
	m.HasHeader = false
	rows := takeAll[*Bag](t, m, SheetIndex(0))
	require.Len(t, rows, 1)
	assert.Equal(t, []string{"A", "B", "C"}, rows[0].Value.Names())
	assert.Equal(t, map[string]any{"A": "a", "B": nil, "C": 1.0}, rows[0].Value.Map())
}

func TestTakeDynamicExplicitKey(t *testing.T) {
	m, _ := newMapper(t, []any{"first", "second"}, []any{"1", "2"})
	require.NoError(t, Map[*Bag](m, ColumnIndex(1), "Other"))
	rows := takeAll[*Bag](t, m, SheetIndex(0))
	require.Len(t, rows, 1)
	assert.Equal(t, map[string]any{"Other": "2", "first": "1"}, rows[0].Value.Map())
}

func TestConfigurationErrors(t *testing.T) {
	type ambiguous struct {
		MyString string
		MYString string
	}
	m := New(nil)

	err := Map[sampleRow](m, ColumnIndex(0), "NotExistProperty")
	assert.ErrorIs(t, err, ErrUnknownMember)
	var cerr *ConfigurationError
	require.True(t, errors.As(err, &cerr))
	assert.Equal(t, "NotExistProperty", cerr.Member)

	assert.ErrorIs(t, Map[ambiguous](m, ColumnName("targetColumn"), "myString"), ErrAmbiguousMember)
	assert.NoError(t, Map[ambiguous](m, ColumnName("targetColumn"), "MyString"), "exact match")

	assert.ErrorIs(t, Map[int](m, ColumnIndex(0), "X"), ErrInvalidArgument)
	assert.ErrorIs(t, Map[sampleRow](m, ColumnName(" "), "Name"), ErrInvalidArgument)
	assert.ErrorIs(t, Map[sampleRow](m, ColumnIndex(0), 3), ErrInvalidArgument)
	assert.ErrorIs(t, Map[sampleRow](m, ColumnIndex(0), nil), ErrInvalidArgument)
	outside := new(string)
	assert.ErrorIs(t, Map[sampleRow](m, ColumnIndex(0), func(*sampleRow) any { return outside }), ErrUnknownMember)
	assert.ErrorIs(t, Map[sampleRow](m, ColumnIndex(0), "Skipped"), ErrInvalidArgument, "tagged to be ignored")
	assert.ErrorIs(t, Ignore[sampleRow](m), ErrInvalidArgument)
	assert.ErrorIs(t, Ignore[sampleRow](m, "nope"), ErrUnknownMember)
	assert.ErrorIs(t, UseFormat[time.Time](m, " "), ErrInvalidArgument)
	assert.ErrorIs(t, RegisterEnum[weekday](m), ErrInvalidArgument)
	assert.ErrorIs(t, m.MapColumns(nil, nil, nil), ErrInvalidArgument)
}

type hiddenPart struct{ Inner string }

type VisiblePart struct{ Extra string }

type embedding struct {
	*hiddenPart
	*VisiblePart
	Name string
}

func TestTakeEmbeddedPointers(t *testing.T) {
	names := make([]string, 0, 2)
	for _, mem := range Members(reflect.TypeFor[embedding]()) {
		names = append(names, mem.Name)
	}
	assert.Equal(t, []string{"Extra", "Name"}, names)

	m, _ := newMapper(t,
		[]any{"Name", "Inner", "Extra"},
		[]any{"a", "b", "c"},
	)
	rows := takeAll[embedding](t, m, SheetIndex(0))
	require.Len(t, rows, 1)
	assert.Equal(t, NoError, rows[0].ErrorColumnIndex)
	assert.Equal(t, "a", rows[0].Value.Name)
	assert.Nil(t, rows[0].Value.hiddenPart)
	require.NotNil(t, rows[0].Value.VisiblePart)
	assert.Equal(t, "c", rows[0].Value.Extra)

	assert.ErrorIs(t, Map[embedding](m, ColumnIndex(1), "Inner"), ErrUnknownMember)
}
