package formatters

import (
	"fmt"
	"strings"
)

// document writes headings, fields, lists and tables as plain text or markdown
type document struct {
	markdown bool
	b        strings.Builder
}

func (d *document) String() string { return d.b.String() }

func (d *document) title(s string) {
	if d.markdown {
		fmt.Fprintf(&d.b, "# %s\n\n", s)
		return
	}
	fmt.Fprintf(&d.b, "=== %s ===\n\n", strings.ToUpper(s))
}

func (d *document) section(s string) {
	if d.markdown {
		fmt.Fprintf(&d.b, "## %s\n\n", s)
		return
	}
	fmt.Fprintf(&d.b, "--- %s ---\n", strings.ToUpper(s))
}

func (d *document) subsection(s string) {
	if d.markdown {
		fmt.Fprintf(&d.b, "### %s\n\n", s)
		return
	}
	fmt.Fprintf(&d.b, "%s:\n", s)
}

func (d *document) field(label string, value any) {
	if d.markdown {
		fmt.Fprintf(&d.b, "**%s:** %v  \n", label, value)
		return
	}
	fmt.Fprintf(&d.b, "%s: %v\n", label, value)
}

func (d *document) paragraph(s string) {
	if s == "" {
		return
	}
	d.b.WriteString(s)
	d.b.WriteString("\n\n")
}

// list writes items as bullets; an empty list writes none
func (d *document) list(items []string, none string) {
	if len(items) == 0 {
		if none != "" {
			if d.markdown {
				fmt.Fprintf(&d.b, "_%s_\n", none)
			} else {
				fmt.Fprintf(&d.b, "  %s\n", none)
			}
		}
		return
	}
	for _, item := range items {
		if d.markdown {
			fmt.Fprintf(&d.b, "- %s\n", item)
		} else {
			fmt.Fprintf(&d.b, "  - %s\n", item)
		}
	}
}

func (d *document) table(headers []string, rows [][]string) {
	if d.markdown {
		fmt.Fprintf(&d.b, "| %s |\n", strings.Join(headers, " | "))
		seps := make([]string, len(headers))
		for i := range seps {
			seps[i] = "---"
		}
		fmt.Fprintf(&d.b, "|%s|\n", strings.Join(seps, "|"))
		for _, row := range rows {
			fmt.Fprintf(&d.b, "| %s |\n", strings.Join(escapeCells(row), " | "))
		}
		return
	}

	widths := make([]int, len(headers))
	for i, h := range headers {
		widths[i] = len(h)
	}
	for _, row := range rows {
		for i, cell := range row {
			if i < len(widths) && len(cell) > widths[i] {
				widths[i] = len(cell)
			}
		}
	}
	writeRow := func(cells []string) {
		parts := make([]string, len(cells))
		for i, cell := range cells {
			parts[i] = fmt.Sprintf("%-*s", widths[i], cell)
		}
		fmt.Fprintf(&d.b, "  %s\n", strings.TrimRight(strings.Join(parts, "  "), " "))
	}
	writeRow(headers)
	for _, row := range rows {
		writeRow(row)
	}
}

func (d *document) gap() {
	d.b.WriteString("\n")
}

func escapeCells(row []string) []string {
	out := make([]string, len(row))
	for i, cell := range row {
		out[i] = strings.ReplaceAll(cell, "|", `\|`)
	}
	return out
}

func score(f float64) string {
	return fmt.Sprintf("%.2f", f)
}
