package commands

import (
	"fmt"
	"io"

	"github.com/conduit-lang/schemadiff/internal/changelog"
	"github.com/conduit-lang/schemadiff/internal/cli/ui"
	"github.com/conduit-lang/schemadiff/internal/diff"
)

const formatText = "text"

// resolveFormat prefers the flag over output.format
func (a *app) resolveFormat(flag string) string {
	if flag != "" {
		return flag
	}
	return a.cfg.Output.Format
}

// writeChangeLog renders entries as text or encodes them for machines
func (a *app) writeChangeLog(w io.Writer, format string, entries []changelog.Entry, summary *diff.Summary) error {
	if format == formatText {
		ui.RenderChangeLog(w, entries, a.noColor)
		if summary != nil {
			ui.RenderSummary(w, *summary, a.noColor)
		}
		return nil
	}

	f, err := changelog.ParseFormat(format)
	if err != nil {
		return fmt.Errorf("%w (expected text, yaml, json or msgpack)", err)
	}
	return changelog.Encode(w, f, entries)
}
