// Copyright 2026 Tamás Gulácsi.
//
// SPDX-License-Identifier: Apache-2.0

package render

import (
	"io"

	qt "github.com/valyala/quicktemplate"
)

// HTML writes the table as a standalone HTML page, escaping the texts.
func HTML(w io.Writer, t Table) error {
	qw := qt.AcquireWriter(w)
	defer qt.ReleaseWriter(qw)
	n, e := qw.N(), qw.E()

	n.S("<!DOCTYPE html>\n<html><head><meta charset=\"utf-8\">")
	if t.Title != "" {
		n.S("<title>")
		e.S(t.Title)
		n.S("</title>")
	}
	n.S("</head>\n<body>\n<table>\n")
	if len(t.Header) != 0 {
		n.S("<thead><tr>")
		for _, h := range t.Header {
			n.S("<th>")
			e.S(h)
			n.S("</th>")
		}
		n.S("</tr></thead>\n")
	}
	n.S("<tbody>\n")
	for _, row := range t.Rows {
		n.S("<tr>")
		for _, s := range row {
			n.S("<td>")
			e.S(s)
			n.S("</td>")
		}
		n.S("</tr>\n")
	}
	n.S("</tbody>\n</table>\n</body></html>\n")
	return nil
}
