// Copyright 2026 Tamás Gulácsi.
//
// SPDX-License-Identifier: Apache-2.0

package xlsx

import (
	"bytes"
	"path/filepath"
	"testing"
	"time"

	"github.com/UNO-SOFT/sheetmap"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

type invoice struct {
	Issued  time.Time
	Paid    *time.Time
	Partner string
	Amount  float64 `sheet:",format=#,##0.000"`
	Items   int
	Settled bool
}

func TestPutTakeRoundTrip(t *testing.T) {
	issued := time.Date(2024, 2, 29, 13, 14, 15, 0, time.UTC)
	paid := issued.AddDate(0, 1, 0)
	items := []invoice{
		{Issued: issued, Paid: &paid, Partner: "Árvíztűrő Kft.", Amount: 1234.5, Items: 3, Settled: true},
		{Issued: issued.AddDate(0, 0, 1), Partner: "ACME", Amount: -2, Items: 1},
	}

	wb := NewFile()
	m := sheetmap.New(wb)
	m.ForHeader(func(c sheetmap.Cell) { c.SetStyle(sheetmap.Style{FontBold: true}) })
	require.NoError(t, sheetmap.Put(m, items, sheetmap.SheetName("Invoices"), false))
	assert.Equal(t, []string{"Invoices"}, wb.File().GetSheetList())

	sh, ok := wb.SheetNamed("invoices")
	require.True(t, ok)
	hdr := sh.RowAt(0).CellAt(0)
	require.NotNil(t, hdr)
	assert.True(t, hdr.Style().FontBold)
	assert.Equal(t, sheetmap.StringValue("Issued"), hdr.Value())
	amount := sh.RowAt(1).CellAt(3)
	assert.Equal(t, "#,##0.000", amount.Style().Format)
	assert.True(t, sh.RowAt(1).CellAt(0).IsDateFormatted())

	var buf bytes.Buffer
	_, err := wb.WriteTo(&buf)
	require.NoError(t, err)
	require.NoError(t, wb.Close())

	wb2, err := OpenReader(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	defer wb2.Close()
	got, err := sheetmap.TakeAll[invoice](sheetmap.New(wb2), sheetmap.SheetIndex(0))
	require.NoError(t, err)
	assert.Equal(t, items, got)
}

func TestAppendAndOverwrite(t *testing.T) {
	dir := t.TempDir()
	fn := filepath.Join(dir, "partners.xlsx")
	type partner struct {
		Name string
		ID   int
	}

	m := sheetmap.New(NewFile())
	require.NoError(t, sheetmap.PutAndSave(m, fn, []partner{{"a", 1}, {"b", 2}}, sheetmap.SheetName("P"), false))

	wb, err := Open(fn)
	require.NoError(t, err)
	m = sheetmap.New(wb)
	require.NoError(t, sheetmap.Put(m, []partner{{"c", 3}}, sheetmap.SheetName("P"), false))
	got, err := sheetmap.TakeAll[partner](m, sheetmap.SheetName("P"))
	require.NoError(t, err)
	assert.Equal(t, []partner{{"a", 1}, {"b", 2}, {"c", 3}}, got)

	require.NoError(t, sheetmap.Put(m, []partner{{"d", 4}}, sheetmap.SheetName("P"), true))
	got, err = sheetmap.TakeAll[partner](m, sheetmap.SheetName("P"))
	require.NoError(t, err)
	assert.Equal(t, []partner{{"d", 4}}, got)
	require.NoError(t, m.SaveAs(fn))
	require.NoError(t, wb.Close())

	wb, err = Open(fn)
	require.NoError(t, err)
	defer wb.Close()
	got, err = sheetmap.TakeAll[partner](sheetmap.New(wb), sheetmap.SheetIndex(0))
	require.NoError(t, err)
	assert.Equal(t, []partner{{"d", 4}}, got)
}

func TestDateDetection(t *testing.T) {
	xl := excelize.NewFile()
	const sheet = "Sheet1"
	builtIn, err := xl.NewStyle(&excelize.Style{NumFmt: 22})
	require.NoError(t, err)
	money, err := xl.NewStyle(&excelize.Style{NumFmt: 4})
	require.NoError(t, err)
	custom := "yyyy.mm.dd"
	customID, err := xl.NewStyle(&excelize.Style{CustomNumFmt: &custom})
	require.NoError(t, err)
	for axis, style := range map[string]int{"A1": builtIn, "B1": money, "C1": customID, "D1": 0} {
		require.NoError(t, xl.SetCellFloat(sheet, axis, 45292.5, -1, 64))
		require.NoError(t, xl.SetCellStyle(sheet, axis, axis, style))
	}
	require.NoError(t, xl.SetCellStr(sheet, "E1", "text"))
	require.NoError(t, xl.SetCellBool(sheet, "F1", true))

	wb := New(xl)
	defer wb.Close()
	sh, err := wb.SheetAt(0)
	require.NoError(t, err)
	row := sh.RowAt(0)
	require.NotNil(t, row)
	noon := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	want := []sheetmap.Value{
		sheetmap.DateValue(noon),
		sheetmap.NumberValue(45292.5),
		sheetmap.DateValue(noon),
		sheetmap.NumberValue(45292.5),
		sheetmap.StringValue("text"),
		sheetmap.BoolValue(true),
	}
	cells := row.Cells()
	require.Len(t, cells, len(want))
	for i, c := range cells {
		assert.Equal(t, i, c.ColumnIndex())
		assert.Equal(t, want[i], c.Value(), "column %d", i)
	}
	assert.Equal(t, custom, cells[2].Style().Format)
	assert.Nil(t, row.CellAt(6))
	assert.Nil(t, sh.RowAt(1))
	assert.Equal(t, 0, sh.FirstRowIndex())
	assert.Equal(t, 0, sh.LastRowIndex())
}

func TestStyleCache(t *testing.T) {
	wb := NewFile()
	defer wb.Close()
	id, err := wb.getStyle(sheetmap.Style{})
	require.NoError(t, err)
	assert.Zero(t, id)

	bold := sheetmap.Style{FontBold: true, Format: "0.0"}
	id1, err := wb.getStyle(bold)
	require.NoError(t, err)
	id2, err := wb.getStyle(bold)
	require.NoError(t, err)
	assert.Equal(t, id1, id2)
	assert.Equal(t, bold, wb.styleOf(id1))
	assert.False(t, wb.isDateStyle(id1))

	date, err := wb.getStyle(sheetmap.Style{Format: sheetmap.DefaultDateFormat})
	require.NoError(t, err)
	assert.NotEqual(t, id1, date)
	assert.True(t, wb.isDateStyle(date))

	for id, want := range map[int]bool{0: false, 4: false, 14: true, 22: true, 23: false, 45: true, 58: true, 59: false} {
		assert.Equal(t, want, isBuiltInDateFormat(id), "%d", id)
	}
}

func TestRemoveRow(t *testing.T) {
	wb := NewFile()
	defer wb.Close()
	sh, err := wb.CreateSheet("S")
	require.NoError(t, err)
	for i, s := range []string{"a", "b", "c"} {
		row, err := sh.CreateRow(i)
		require.NoError(t, err)
		c, err := row.CreateCell(0)
		require.NoError(t, err)
		require.NoError(t, c.SetValue(sheetmap.StringValue(s)))
	}
	assert.Equal(t, 2, sh.LastRowIndex())
	require.NoError(t, sh.RemoveRow(1))
	assert.Equal(t, 1, sh.LastRowIndex())
	assert.Equal(t, sheetmap.StringValue("c"), sh.RowAt(1).CellAt(0).Value())

	_, err = sh.CreateRow(MaxRowCount)
	assert.Error(t, err)
}

func TestOpenMissing(t *testing.T) {
	_, err := Open(filepath.Join(t.TempDir(), "missing.xlsx"))
	assert.ErrorIs(t, err, sheetmap.ErrFileNotFound)
}
