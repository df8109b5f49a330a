package ui

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"

	"github.com/conduit-lang/schemadiff/internal/changelog"
	"github.com/conduit-lang/schemadiff/internal/diff"
)

// RenderChangeLog writes one line per entry. Creations are green, destructive entries
// red and everything else yellow.
func RenderChangeLog(w io.Writer, entries []changelog.Entry, noColor bool) {
	if len(entries) == 0 {
		style(noColor, color.FgGreen).Fprintln(w, "No differences found")
		return
	}

	green := style(noColor, color.FgGreen)
	red := style(noColor, color.FgRed)
	yellow := style(noColor, color.FgYellow)

	for _, e := range entries {
		switch {
		case e.Destructive():
			red.Fprintf(w, "- %s\n", e.Describe())
		case strings.HasPrefix(e.Op, "create_"), e.Op == diff.OpAddAnnotations.String(), e.Op == diff.OpAddGeneralization.String():
			green.Fprintf(w, "+ %s\n", e.Describe())
		default:
			yellow.Fprintf(w, "~ %s\n", e.Describe())
		}
	}
}

// RenderSummary writes the per-operation counts of a change log
func RenderSummary(w io.Writer, s diff.Summary, noColor bool) {
	if s.Total == 0 {
		return
	}

	fmt.Fprintln(w)
	Header(w, fmt.Sprintf("%d changes in %s", s.Total, strings.Join(s.Modules, ", ")), noColor)

	table := NewKeyValueTable(w, noColor)
	for _, op := range s.Ops() {
		table.AddRow(op.String(), fmt.Sprintf("%d", s.ByOp[op]))
	}
	table.Render()

	if s.Destructive > 0 {
		fmt.Fprintln(w)
		fmt.Fprint(w, Warning(fmt.Sprintf("%d destructive changes", s.Destructive), nil, noColor))
	}
}
