package main

import (
	"os"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"golang.org/x/term"
)

// fallbackWidth is used when stdout is not a terminal
const fallbackWidth = 100

// column describes one table column over rows of type T
type column[T any] struct {
	header   string
	align    text.Align
	widthMax int // Zero leaves the column unbounded
	value    func(T) string
}

// renderTable renders rows with one cell per column
func renderTable[T any](columns []column[T], rows []T) string {
	if len(columns) == 0 {
		return ""
	}

	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	tw.Style().Size.WidthMax = terminalWidth()

	header := make(table.Row, len(columns))
	configs := make([]table.ColumnConfig, len(columns))
	for i, c := range columns {
		header[i] = c.header
		configs[i] = table.ColumnConfig{
			Number:           i + 1,
			Align:            c.align,
			AlignHeader:      text.AlignLeft,
			WidthMax:         c.widthMax,
			WidthMaxEnforcer: text.WrapSoft,
		}
	}
	tw.AppendHeader(header)
	tw.SetColumnConfigs(configs)

	for _, row := range rows {
		r := make(table.Row, len(columns))
		for i, c := range columns {
			r[i] = c.value(row)
		}
		tw.AppendRow(r)
	}
	return tw.Render()
}

// setting is one row of the configuration table
type setting struct {
	key   string
	value string
}

var settingColumns = []column[setting]{
	{header: "Key", value: func(s setting) string { return s.key }},
	{header: "Value", widthMax: 60, value: func(s setting) string { return s.value }},
}

func terminalWidth() int {
	width, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || width <= 0 {
		return fallbackWidth
	}
	return width
}
