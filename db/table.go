package db

import (
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/nickyhof/JsonDB/core"
)

// MaxCellWidth caps the width of a rendered cell. Longer text is cut and
// ends in "…".
const MaxCellWidth = 48

// Grid renders rows as an ASCII table. Columns holding only numbers (and
// NULLs) are right-aligned.
type Grid struct {
	writer  io.Writer
	headers []string
	rows    [][]string
	numeric []bool
}

func NewGrid(w io.Writer, headers ...string) *Grid {
	numeric := make([]bool, len(headers))
	for i := range numeric {
		numeric[i] = true
	}
	return &Grid{writer: w, headers: headers, numeric: numeric}
}

// Append adds a row of preformatted text. Text cells are left-aligned.
func (grid *Grid) Append(cells ...string) {
	for i := range cells {
		grid.markText(i)
	}
	grid.rows = append(grid.rows, cells)
}

// AppendRow adds a table row, rendering each value with Value.String.
func (grid *Grid) AppendRow(row core.Row) {
	cells := make([]string, len(row))
	for i, cell := range row {
		cells[i] = cell.Value.String()
		if !cell.Value.IsNumeric() && !cell.Value.IsNull() {
			grid.markText(i)
		}
	}
	grid.rows = append(grid.rows, cells)
}

func (grid *Grid) markText(column int) {
	for len(grid.numeric) <= column {
		grid.numeric = append(grid.numeric, true)
	}
	grid.numeric[column] = false
}

func (grid *Grid) Len() int {
	return len(grid.rows)
}

func (grid *Grid) Render() {
	if len(grid.headers) == 0 && len(grid.rows) == 0 {
		return
	}

	widths := grid.widths()
	separator := separatorLine(widths)

	fmt.Fprintln(grid.writer, separator)
	if len(grid.headers) > 0 {
		fmt.Fprintln(grid.writer, grid.line(grid.headers, widths, false))
		fmt.Fprintln(grid.writer, separator)
	}
	for _, row := range grid.rows {
		fmt.Fprintln(grid.writer, grid.line(row, widths, true))
	}
	fmt.Fprintln(grid.writer, separator)
}

func (grid *Grid) widths() []int {
	columns := len(grid.headers)
	for _, row := range grid.rows {
		columns = max(columns, len(row))
	}

	widths := make([]int, columns)
	for i := range widths {
		widths[i] = 1
	}
	for i, header := range grid.headers {
		widths[i] = max(widths[i], displayWidth(clip(header)))
	}
	for _, row := range grid.rows {
		for i, cell := range row {
			widths[i] = max(widths[i], displayWidth(clip(cell)))
		}
	}
	return widths
}

func (grid *Grid) line(cells []string, widths []int, align bool) string {
	parts := make([]string, len(widths))
	for i, width := range widths {
		cell := ""
		if i < len(cells) {
			cell = clip(cells[i])
		}
		padding := strings.Repeat(" ", width-displayWidth(cell))
		if align && i < len(grid.numeric) && grid.numeric[i] {
			parts[i] = " " + padding + cell + " "
		} else {
			parts[i] = " " + cell + padding + " "
		}
	}
	return "|" + strings.Join(parts, "|") + "|"
}

func separatorLine(widths []int) string {
	parts := make([]string, len(widths))
	for i, width := range widths {
		parts[i] = strings.Repeat("-", width+2)
	}
	return "+" + strings.Join(parts, "+") + "+"
}

// clip shortens a cell to MaxCellWidth runes and flattens line breaks.
func clip(cell string) string {
	cell = strings.NewReplacer("\r\n", " ", "\n", " ", "\t", " ").Replace(cell)
	if displayWidth(cell) <= MaxCellWidth {
		return cell
	}
	runes := []rune(cell)
	return string(runes[:MaxCellWidth-1]) + "…"
}

// displayWidth counts runes so multi-byte text lines up.
func displayWidth(s string) int {
	return utf8.RuneCountInString(s)
}
