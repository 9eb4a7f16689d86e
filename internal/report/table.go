package report

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"
)

const (
	// Placeholder is rendered for absent values.
	Placeholder = "-"

	columnSeparator    = " | "
	defaultColumnWidth = 10
)

// FormatRow renders values as fixed-width, left-aligned columns joined by
// " | ". widths[i] sets the width of column i; the last width applies to
// every column past the end of widths. Values longer than their column wrap
// onto continuation lines under the same column until nothing is left.
func FormatRow(values []any, widths []int) string {
	cells := make([][]rune, len(values))
	for i, value := range values {
		cells[i] = []rune(stringify(value))
	}

	var lines []string
	for {
		row := make([]string, len(cells))
		overflow := false
		for i, cell := range cells {
			width := columnWidth(widths, i)
			if len(cell) <= width {
				row[i] = string(cell) + strings.Repeat(" ", width-len(cell))
				cells[i] = nil
				continue
			}
			row[i] = string(cell[:width])
			cells[i] = trimRunes(cell[width:])
			if len(cells[i]) > 0 {
				overflow = true
			}
		}
		lines = append(lines, strings.Join(row, columnSeparator))
		if !overflow {
			return strings.Join(lines, "\n")
		}
	}
}

// FormatTable renders a header row followed by data rows.
func FormatTable(header []any, rows [][]any, widths []int) string {
	out := make([]string, 0, len(rows)+1)
	out = append(out, FormatRow(header, widths))
	for _, row := range rows {
		out = append(out, FormatRow(row, widths))
	}
	return strings.Join(out, "\n")
}

func columnWidth(widths []int, index int) int {
	if len(widths) == 0 {
		return defaultColumnWidth
	}
	width := widths[min(index, len(widths)-1)]
	// A zero width would never consume overflow.
	return max(width, 1)
}

func trimRunes(in []rune) []rune {
	start, end := 0, len(in)
	for start < end && unicode.IsSpace(in[start]) {
		start++
	}
	for end > start && unicode.IsSpace(in[end-1]) {
		end--
	}
	return in[start:end]
}

func stringify(value any) string {
	switch v := value.(type) {
	case nil:
		return Placeholder
	case string:
		return v
	case int:
		return strconv.Itoa(v)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case fmt.Stringer:
		return v.String()
	default:
		return fmt.Sprint(v)
	}
}
