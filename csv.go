// Copyright 2020, 2026 Tamás Gulácsi.
//
// SPDX-License-Identifier: Apache-2.0

package sheetmap

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"unicode"

	"github.com/klauspost/compress/gzip"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/htmlindex"
)

// EncName is the default charset of CSV files, from the LANG environment variable.
var EncName = "utf-8"

func init() {
	EncName = os.Getenv("LANG")
	if i := strings.IndexByte(EncName, '.'); i >= 0 {
		EncName = strings.ToLower(EncName[i+1:])
	} else {
		EncName = ""
	}
	if EncName == "" {
		EncName = "utf-8"
	}
}

// GetEncoding returns the encoding of the charset name, nil for UTF-8.
func GetEncoding(encName string) (encoding.Encoding, error) {
	encName = strings.ToLower(encName)
	if encName == "" || encName == "utf-8" || encName == "utf8" {
		return nil, nil
	}
	enc, err := htmlindex.Get(encName)
	if err != nil {
		err = fmt.Errorf("%q: %w", encName, err)
	}
	return enc, err
}

type csvReadCloser struct {
	*csv.Reader
	io.Closer
}

// OpenCsv opens the named CSV file (stdin for "" or "-"), gunzipping it if its
// name ends with ".gz", decoding it from encName charset.
// The separator is the first character of the file which is not a letter, number, '"' or '_'.
func OpenCsv(fn, encName string) (csvReadCloser, error) {
	var enc encoding.Encoding
	if encName != "" {
		var err error
		if enc, err = GetEncoding(encName); err != nil {
			return csvReadCloser{}, err
		}
	}
	fh := os.Stdin
	if !(fn == "" || fn == "-") {
		var err error
		if fh, err = os.Open(fn); err != nil {
			if errors.Is(err, os.ErrNotExist) {
				err = fmt.Errorf("%q: %w", fn, ErrFileNotFound)
			}
			return csvReadCloser{}, err
		}
	}
	r := io.ReadCloser(fh)
	if strings.HasSuffix(fn, ".gz") {
		zr, err := gzip.NewReader(fh)
		if err != nil {
			fh.Close()
			return csvReadCloser{}, fmt.Errorf("gunzip %q: %w", fn, err)
		}
		r = struct {
			io.Reader
			io.Closer
		}{zr, fh}
	}
	if enc != nil {
		r = struct {
			io.Reader
			io.Closer
		}{enc.NewDecoder().Reader(r), r}
	}
	cr, err := newCsvReader(r)
	if err != nil {
		r.Close()
		return csvReadCloser{}, err
	}
	return csvReadCloser{cr, r}, nil
}

func newCsvReader(r io.Reader) (*csv.Reader, error) {
	br := bufio.NewReaderSize(r, 1<<20)
	b, err := br.Peek(1024)
	if err != nil && len(b) == 0 {
		return nil, err
	}
	sep := rune(',')
	for _, r := range string(b) {
		if r == '"' || r == '_' || unicode.IsLetter(r) || unicode.IsNumber(r) {
			continue
		}
		sep = r
		break
	}

	cr := csv.NewReader(br)
	cr.ReuseRecord = true
	cr.Comma = sep
	cr.FieldsPerRecord = -1
	return cr, nil
}

// ReadCSV reads the CSV records into a new sheet of the workbook.
// Empty fields become missing cells, numbers become numeric cells.
func ReadCSV(wb *MemoryWorkbook, sheetName string, cr *csv.Reader) (Sheet, error) {
	sheet, err := wb.CreateSheet(sheetName)
	if err != nil {
		return nil, err
	}
	for i := 0; ; i++ {
		rec, err := cr.Read()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return sheet, fmt.Errorf("read row %d: %w", i, err)
		}
		row, err := sheet.CreateRow(i)
		if err != nil {
			return sheet, err
		}
		for j, s := range rec {
			if s == "" {
				continue
			}
			c, err := row.CreateCell(j)
			if err != nil {
				return sheet, fmt.Errorf("row %d column %d: %w", i, j, err)
			}
			if err = c.SetValue(parseCSVField(s)); err != nil {
				return sheet, fmt.Errorf("row %d column %d: %w", i, j, err)
			}
		}
	}
	return sheet, nil
}

// parseCSVField returns a number for numeric fields, a string for the others.
// Numbers with leading zeros (identifiers, mostly) stay strings.
func parseCSVField(s string) Value {
	t := strings.TrimPrefix(s, "-")
	if len(t) > 1 && t[0] == '0' && t[1] != '.' {
		return StringValue(s)
	}
	if i, err := strconv.ParseInt(s, 10, 64); err == nil {
		return NumberValue(float64(i))
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil && !strings.ContainsAny(s, "xXpPnN_") {
		return NumberValue(f)
	}
	return StringValue(s)
}

// WriteCSV writes the rows of the sheet as CSV records, blank cells as empty fields.
func WriteCSV(w io.Writer, sheet Sheet) error {
	cw := csv.NewWriter(w)
	var rec []string
	for i, last := 0, sheet.LastRowIndex(); i <= last; i++ {
		rec = rec[:0]
		if row := sheet.RowAt(i); row != nil {
			for _, c := range row.Cells() {
				for len(rec) < c.ColumnIndex() {
					rec = append(rec, "")
				}
				rec = append(rec, c.Value().String())
			}
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteTo writes the first sheet as CSV.
func (wb *MemoryWorkbook) WriteTo(w io.Writer) (int64, error) {
	if len(wb.sheets) == 0 {
		return 0, nil
	}
	cw := &countingWriter{w: w}
	err := WriteCSV(cw, wb.sheets[0])
	return cw.n, err
}

type countingWriter struct {
	w io.Writer
	n int64
}

func (cw *countingWriter) Write(p []byte) (int, error) {
	n, err := cw.w.Write(p)
	cw.n += int64(n)
	return n, err
}
