// Copyright 2020, 2026 Tamás Gulácsi.
//
// SPDX-License-Identifier: Apache-2.0

// Command csv2xlsx copies CSV files into the sheets of an xlsx file,
// numbers as numbers, with bold headers.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/UNO-SOFT/sheetmap"
	"github.com/UNO-SOFT/sheetmap/xlsx"
	"github.com/UNO-SOFT/zlog/v2"
	"github.com/peterbourgon/ff/v3"
	"github.com/peterbourgon/ff/v3/ffcli"
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
	fs := flag.NewFlagSet("csv2xlsx", flag.ContinueOnError)
	fs.Var(&verbose, "v", "logging verbosity")
	flagEnc := fs.String("charset", sheetmap.EncName, "csv charset name")
	flagAppend := fs.Bool("append", false, "append to the existing sheets of the output")

	app := ffcli.Command{Name: "csv2xlsx", FlagSet: fs,
		ShortUsage: "csv2xlsx [flags] out.xlsx [sheet:]in.csv[.gz]...",
		Options:    []ff.Option{ff.WithEnvVarPrefix("CSV2XLSX")},
		Exec: func(ctx context.Context, args []string) error {
			if len(args) < 2 {
				return flag.ErrHelp
			}
			out := args[0]
			wb := xlsx.NewFile()
			if *flagAppend {
				var err error
				if wb, err = xlsx.Open(out); err != nil {
					return err
				}
			}
			defer wb.Close()

			for i, fn := range args[1:] {
				if err := ctx.Err(); err != nil {
					return err
				}
				sheetName := fmt.Sprintf("Sheet%d", i+1)
				if i := strings.IndexByte(fn, ':'); i >= 0 {
					sheetName, fn = fn[:i], fn[i+1:]
				} else if fn != "" && fn != "-" {
					sheetName = strings.TrimSuffix(strings.TrimSuffix(filepath.Base(fn), ".gz"), ".csv")
				}
				if err := copyFile(wb, sheetName, *flagEnc, fn, !*flagAppend); err != nil {
					return fmt.Errorf("%q: %w", fn, err)
				}
			}
			return wb.SaveAs(out)
		},
	}

	if err := app.Parse(os.Args[1:]); err != nil {
		return err
	}
	ctx, cancel := signal.NotifyContext(context.Background(),
		os.Interrupt, syscall.SIGTERM)
	defer cancel()
	return app.Run(ctx)
}

// copyFile reads the CSV into dynamic rows and puts them into the named sheet,
// keeping the header texts of the CSV.
func copyFile(wb *xlsx.Workbook, sheetName, encName, fn string, overwrite bool) error {
	cr, err := sheetmap.OpenCsv(fn, encName)
	if err != nil {
		return err
	}
	defer cr.Close()
	mem := sheetmap.NewMemoryWorkbook()
	src, err := sheetmap.ReadCSV(mem, sheetName, cr.Reader)
	if err != nil {
		return err
	}

	from := sheetmap.New(mem)
	from.Logger = logger
	rows, err := sheetmap.TakeAll[*sheetmap.Bag](from, sheetmap.SheetIndex(0))
	if err != nil {
		return err
	}

	to := sheetmap.New(wb)
	to.Logger = logger
	to.ForHeader(func(c sheetmap.Cell) {
		if err := c.SetStyle(sheetmap.Style{FontBold: true}); err != nil {
			logger.Warn("header style", "column", c.ColumnIndex(), "error", err)
		}
	})
	if header := src.RowAt(0); header != nil {
		for _, c := range header.Cells() {
			text := strings.TrimSpace(c.Value().String())
			key := sheetmap.DynamicName(text, c.ColumnIndex())
			if err := sheetmap.Map[*sheetmap.Bag](to, sheetmap.ColumnIndex(c.ColumnIndex()), key,
				sheetmap.WithDisplayName(text),
			); err != nil {
				return err
			}
		}
	}
	logger.Info("copy", "file", fn, "sheet", sheetName, "rows", len(rows))
	return sheetmap.Put(to, rows, sheetmap.SheetName(sheetName), overwrite)
}
