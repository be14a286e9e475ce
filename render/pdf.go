// Copyright 2021, 2026 Tamás Gulácsi.
//
// SPDX-License-Identifier: Apache-2.0

package render

import (
	"github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/row"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontfamily"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/consts/orientation"
	"github.com/johnfercher/maroto/v2/pkg/consts/pagesize"
	"github.com/johnfercher/maroto/v2/pkg/core"
	"github.com/johnfercher/maroto/v2/pkg/props"
)

// PDFOptions are the layout options of PDF.
type PDFOptions struct {
	// AlternateColor is the background of every second row; nil for none.
	AlternateColor *props.Color
	// FontSize of the contents; the header is 1.375 times bigger. Defaults to 8.
	FontSize    float64
	Landscape   bool
	PageNumbers bool
}

// PDF renders the table as an A4 PDF document, repeating the header on each page.
func PDF(t Table, opts PDFOptions) (core.Document, error) {
	if opts.FontSize <= 0 {
		opts.FontSize = 8
	}
	sizes := t.gridSizes()
	var total int
	for _, s := range sizes {
		total += s
	}

	b := config.NewBuilder().
		WithPageSize(pagesize.A4).
		WithMaxGridSize(max(total, 1))
	if opts.Landscape {
		b = b.WithOrientation(orientation.Horizontal)
	}
	if opts.PageNumbers {
		b = b.WithPageNumber()
	}
	m := maroto.New(b.Build())

	headerProp := props.Text{
		Family: fontfamily.Arial, Style: fontstyle.Bold,
		Size: opts.FontSize * 1.375, Align: align.Center,
	}
	contentProp := props.Text{
		Family: fontfamily.Courier, Style: fontstyle.Normal,
		Size: opts.FontSize, Align: align.Center,
	}

	if len(t.Header) != 0 {
		cols := make([]core.Col, len(t.Header))
		for i, h := range t.Header {
			cols[i] = text.NewCol(sizes[i], h, headerProp)
		}
		if err := m.RegisterHeader(row.New(opts.FontSize * 1.2).Add(cols...)); err != nil {
			return nil, err
		}
	}

	rows := make([]core.Row, 0, len(t.Rows))
	for i, r := range t.Rows {
		cols := make([]core.Col, len(sizes))
		for j := range sizes {
			var s string
			if j < len(r) {
				s = r[j]
			}
			cols[j] = text.NewCol(sizes[j], s, contentProp)
		}
		rw := row.New(opts.FontSize * 0.8).Add(cols...)
		if opts.AlternateColor != nil && i%2 == 1 {
			rw = rw.WithStyle(&props.Cell{BackgroundColor: opts.AlternateColor})
		}
		rows = append(rows, rw)
	}
	m.AddRows(rows...)
	return m.Generate()
}
