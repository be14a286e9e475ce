// Copyright 2021, 2026 Tamás Gulácsi.
//
// SPDX-License-Identifier: Apache-2.0

// Command xlsx2pdf renders a sheet of an xlsx file as a PDF (or HTML) table.
package main

import (
	"bufio"
	"context"
	"encoding/hex"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
	"github.com/johnfercher/maroto/v2/pkg/props"
	"github.com/peterbourgon/ff/v3"
	"github.com/peterbourgon/ff/v3/ffcli"

	"github.com/UNO-SOFT/sheetmap"
	"github.com/UNO-SOFT/sheetmap/render"
	"github.com/UNO-SOFT/sheetmap/xlsx"
	"github.com/UNO-SOFT/zlog/v2"
)

var verbose zlog.VerboseVar
var logger = zlog.NewLogger(zlog.MaybeConsoleHandler(&verbose, os.Stderr)).SLog()

func main() {
	if err := Main(); err != nil {
		slog.Error("MAIN", "error", err)
		os.Exit(1)
	}
}

func Main() error {
	alternateColor := Color{Color: props.Color{
		Red:   230,
		Green: 230,
		Blue:  230,
	}}

	fs := flag.NewFlagSet("xlsx2pdf", flag.ContinueOnError)
	fs.Var(&verbose, "v", "logging verbosity")
	flagSheet := fs.String("sheet", "", "sheet name (default: the first sheet)")
	flagHeaderRow := fs.Int("header-row", 0, "0-based index of the header row")
	flagNoHeader := fs.Bool("no-header", false, "the sheet has no header row")
	flagConfig := fs.String("config", "", "YAML mapping config; its \"dynamic\" type applies to the rows")
	flagWhere := fs.String("where", "", "filter expression over the columns, i.e. Amount > 100 && Status == \"open\"")
	flagOut := fs.String("o", "", "output file name (default input file + .pdf); .html for HTML")
	flagColor := fs.String("alternate-color", alternateColor.String(), "alternate color")
	flagLandscape := fs.Bool("L", false, "landscape orientation (default: portrait)")
	flagFontSize := fs.Float64("f", 8, "font size")
	flagPrintPagenum := fs.Bool("print-pagenum", false, "print page numbers")

	app := ffcli.Command{Name: "xlsx2pdf", FlagSet: fs,
		ShortUsage: "xlsx2pdf [flags] in.xlsx",
		Options:    []ff.Option{ff.WithEnvVarPrefix("XLSX2PDF")},
		Exec: func(ctx context.Context, args []string) error {
			if len(args) != 1 {
				return flag.ErrHelp
			}
			wb, err := xlsx.Open(args[0])
			if err != nil {
				return err
			}
			defer wb.Close()
			m := sheetmap.New(wb)
			m.Logger = logger
			m.FirstRowIndex, m.HasHeader = *flagHeaderRow, !*flagNoHeader
			if *flagConfig != "" {
				cfg, err := sheetmap.LoadConfig(*flagConfig)
				if err != nil {
					return err
				}
				if err = cfg.Apply(m); err != nil {
					return err
				}
				if err = sheetmap.ApplyConfig[*sheetmap.Bag](m, cfg, "dynamic"); err != nil {
					return err
				}
			}

			var prg *vm.Program
			if *flagWhere != "" {
				if prg, err = expr.Compile(*flagWhere, expr.AsBool(), expr.AllowUndefinedVariables()); err != nil {
					return fmt.Errorf("compile %q: %w", *flagWhere, err)
				}
			}

			sel := sheetmap.SheetIndex(0)
			if *flagSheet != "" {
				sel = sheetmap.SheetName(*flagSheet)
			}
			seq, err := sheetmap.Take[*sheetmap.Bag](m, sel)
			if err != nil {
				return err
			}
			var bags []*sheetmap.Bag
			for r := range seq {
				if err := ctx.Err(); err != nil {
					return err
				}
				if prg != nil {
					ok, err := expr.Run(prg, r.Value.Map())
					if err != nil {
						return fmt.Errorf("row %d: %w", r.Row, err)
					}
					if !ok.(bool) {
						continue
					}
				}
				bags = append(bags, r.Value)
			}
			logger.Info("rows", "sheet", sel, "count", len(bags))

			t := render.FromBags(bags)
			t.Title = args[0]
			out := *flagOut
			if out == "" && args[0] != "-" {
				out = args[0] + ".pdf"
			}
			if strings.HasSuffix(out, ".html") {
				return writeHTML(out, t)
			}
			doc, err := render.PDF(t, render.PDFOptions{
				FontSize:       *flagFontSize,
				Landscape:      *flagLandscape,
				PageNumbers:    *flagPrintPagenum,
				AlternateColor: &alternateColor.Color,
			})
			if err != nil {
				return err
			}
			if out == "" || out == "-" {
				_, err = os.Stdout.Write(doc.GetBytes())
				return err
			}
			return doc.Save(out)
		},
	}

	args := make([]string, 0, len(os.Args))
	for _, a := range os.Args[1:] {
		if strings.HasPrefix(a, "-f") && len(a) > 2 && '0' <= a[2] && a[2] <= '9' {
			args = append(args, "-f", a[2:])
		} else {
			args = append(args, a)
		}
	}
	slog.Debug("args", "original", os.Args[1:], "fixed", args)
	if err := app.Parse(args); err != nil {
		return err
	}

	if err := alternateColor.Parse(*flagColor); err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(context.Background(),
		os.Interrupt, syscall.SIGTERM)
	defer cancel()
	return app.Run(ctx)
}

func writeHTML(fn string, t render.Table) error {
	fh, err := os.Create(fn)
	if err != nil {
		return err
	}
	defer fh.Close()
	bw := bufio.NewWriter(fh)
	if err = render.HTML(bw, t); err != nil {
		return err
	}
	if err = bw.Flush(); err != nil {
		return err
	}
	return fh.Close()
}

type Color struct {
	props.Color
}

func (c *Color) String() string {
	return fmt.Sprintf("%02x%02x%02x", c.Red, c.Green, c.Blue)
}
func (c *Color) Parse(s string) error {
	b, err := hex.DecodeString(s)
	if err != nil {
		return err
	}
	if len(b) != 3 {
		return fmt.Errorf("color %q: need 3 bytes", s)
	}
	c.Red, c.Green, c.Blue = int(b[0]), int(b[1]), int(b[2])
	return nil
}
