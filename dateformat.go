// Copyright 2026 Tamás Gulácsi.
//
// SPDX-License-Identifier: Apache-2.0

package sheetmap

import (
	"math"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"
)

// DefaultDateFormat is the number format of exported dates without explicit format.
const DefaultDateFormat = "yyyy-mm-dd hh:mm:ss"

var excelEpoch = time.Date(1899, 12, 30, 0, 0, 0, 0, time.UTC)

// DateSerial returns the spreadsheet date serial (days since 1899-12-30) of
// the wall clock time of t, with whole-second precision.
func DateSerial(t time.Time) float64 {
	u := time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), time.UTC).
		Round(time.Second)
	secs := u.Unix() - excelEpoch.Unix()
	days := float64(secs) / 86400
	// 1900-02-29 does not exist, but the spreadsheet serials count it.
	if days < 61 {
		days--
	}
	return days
}

// SerialTime converts a spreadsheet date serial to time, in UTC, rounded to seconds.
// The serials below 60 are shifted by the non-existent 1900-02-29;
// serial 60 itself reads as 1900-02-28.
func SerialTime(serial float64) (time.Time, bool) {
	if math.IsNaN(serial) || math.IsInf(serial, 0) || serial < 0 {
		return time.Time{}, false
	}
	if serial < 60 {
		serial++
	}
	t, err := excelize.ExcelDateToTime(serial, false)
	if err != nil {
		return time.Time{}, false
	}
	return t.Round(time.Second), true
}

// IsDateFormat reports whether the number format displays a date or a time.
func IsDateFormat(format string) bool {
	if format == "" {
		return false
	}
	var inQuote, inBracket bool
	var prev rune
	for _, r := range format {
		switch {
		case inQuote:
			inQuote = r != '"'
		case inBracket:
			if r == ']' {
				inBracket = false
			} else if prev == '[' && (r == 'h' || r == 'H' || r == 'm' || r == 's') {
				// elapsed time: [h]:mm:ss
				return true
			}
		case prev == '\\':
			r = 0
		case r == '"':
			inQuote = true
		case r == '[':
			inBracket = true
		default:
			switch r {
			case 'y', 'Y', 'm', 'M', 'd', 'D', 'h', 'H', 's', 'S':
				return true
			}
		}
		prev = r
	}
	return false
}

type layoutToken uint8

const (
	tokNone layoutToken = iota
	tokDate
	tokHour
	tokMinute
	tokSecond
)

// goLayout translates a date/time format given in spreadsheet/.NET notation
// ("yyyy-MM-dd HH:mm:ss", "m/d/yyyy h:mm", "MM^dd^yyyy") into a Go time layout.
//
// Uppercase M is always month; lowercase m is minute after an hour or
// before a second, month otherwise.
func goLayout(format string) string {
	rs := []rune(format)
	ampm := strings.Contains(format, "tt") ||
		strings.Contains(strings.ToUpper(format), "AM/PM")
	var b strings.Builder
	last := tokNone
	nextTimeToken := func(i int) rune {
		for ; i < len(rs); i++ {
			switch r := rs[i]; r {
			case 'y', 'Y', 'M', 'm', 'd', 'D', 'h', 'H', 's', 'S':
				return r
			}
		}
		return 0
	}
	for i := 0; i < len(rs); {
		r := rs[i]
		n := 1
		for i+n < len(rs) && rs[i+n] == r {
			n++
		}
		switch r {
		case 'y', 'Y':
			if n >= 3 {
				b.WriteString("2006")
			} else {
				b.WriteString("06")
			}
			last = tokDate
		case 'M', 'm':
			minute := r == 'm' && (last == tokHour ||
				nextTimeToken(i+n) == 's' || nextTimeToken(i+n) == 'S')
			switch {
			case minute && n == 1:
				b.WriteString("4")
			case minute:
				b.WriteString("04")
			case n == 1:
				b.WriteString("1")
			case n == 2:
				b.WriteString("01")
			case n == 3:
				b.WriteString("Jan")
			default:
				b.WriteString("January")
			}
			if minute {
				last = tokMinute
			} else {
				last = tokDate
			}
		case 'd', 'D':
			switch n {
			case 1:
				b.WriteString("2")
			case 2:
				b.WriteString("02")
			case 3:
				b.WriteString("Mon")
			default:
				b.WriteString("Monday")
			}
			last = tokDate
		case 'H', 'h':
			switch {
			case ampm && n == 1:
				b.WriteString("3")
			case ampm:
				b.WriteString("03")
			default:
				b.WriteString("15")
			}
			last = tokHour
		case 's', 'S':
			if n == 1 {
				b.WriteString("5")
			} else {
				b.WriteString("05")
			}
			last = tokSecond
		case 'f', 'F':
			if s := b.String(); strings.HasSuffix(s, ".") || strings.HasSuffix(s, ",") {
				b.WriteString(strings.Repeat("0", n))
			}
		case 't':
			b.WriteString("PM")
		case 'A', 'a':
			if i+5 <= len(rs) && strings.EqualFold(string(rs[i:i+5]), "AM/PM") {
				if r == 'a' {
					b.WriteString("pm")
				} else {
					b.WriteString("PM")
				}
				n = 5
			} else {
				b.WriteString(string(rs[i : i+n]))
			}
		case '"':
			j := i + 1
			for j < len(rs) && rs[j] != '"' {
				j++
			}
			b.WriteString(string(rs[i+1 : min(j, len(rs))]))
			n = j - i + 1
		case '\\':
			if i+1 < len(rs) {
				b.WriteRune(rs[i+1])
			}
			n = 2
		case '[':
			j := i + 1
			for j < len(rs) && rs[j] != ']' {
				j++
			}
			n = j - i + 1
		default:
			b.WriteString(string(rs[i : i+n]))
		}
		i += n
	}
	return b.String()
}

var defaultTimeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
	"2006/1/2 15:04:05",
	"2006/1/2",
	"1/2/2006 15:04:05",
	"1/2/2006 15:04",
	"1/2/2006 3:04:05 PM",
	"1/2/2006 3:04 PM",
	"1/2/2006",
	"2.1.2006 15:04:05",
	"2.1.2006",
	"2006.1.2 15:04:05",
	"2006.1.2",
	"2 January 2006",
	"January 2, 2006",
	"Monday, January 2, 2006",
	"Jan 2, 2006",
	"2-Jan-2006",
	time.RFC1123,
	time.RFC1123Z,
}

func parseTime(s, format string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if format != "" {
		t, err := time.ParseInLocation(goLayout(format), s, time.UTC)
		return t, err == nil
	}
	for _, layout := range defaultTimeLayouts {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
