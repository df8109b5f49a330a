package changelog

import (
	"fmt"
	"strings"

	"github.com/conduit-lang/schemadiff/internal/diff"
)

// Name generates a descriptive name for a change set
func Name(entries []Entry) string {
	if len(entries) == 0 {
		return "no_changes"
	}

	// Categorize changes
	var added, dropped, modified []string
	var types, members int

	for _, e := range entries {
		op, err := diff.ParseOp(e.Op)
		if err != nil {
			continue
		}

		item := label(e)
		if e.Target.Member != "" {
			members++
		} else {
			types++
		}

		switch op {
		case diff.OpCreateModule, diff.OpCreateType, diff.OpCreateStructuredTypePart,
			diff.OpCreateClassifier, diff.OpCreateSingleton, diff.OpCreateRole:
			added = appendUnique(added, item)
		case diff.OpDelete, diff.OpDeleteRole:
			dropped = appendUnique(dropped, item)
		default:
			modified = appendUnique(modified, item)
		}
	}

	// A recreated element shows up as both dropped and added; call it modified
	var replaced []string
	for _, item := range dropped {
		if contains(added, item) {
			replaced = append(replaced, item)
		}
	}
	for _, item := range replaced {
		added = without(added, item)
		dropped = without(dropped, item)
		modified = appendUnique(modified, item)
	}

	// Build name components
	var parts []string

	if len(added) > 0 {
		if len(added) <= 3 {
			parts = append(parts, "add_"+strings.Join(added, "_"))
		} else {
			parts = append(parts, fmt.Sprintf("add_%d_items", len(added)))
		}
	}

	if len(dropped) > 0 {
		if len(dropped) <= 3 {
			parts = append(parts, "drop_"+strings.Join(dropped, "_"))
		} else {
			parts = append(parts, fmt.Sprintf("drop_%d_items", len(dropped)))
		}
	}

	if len(modified) > 0 {
		if len(modified) <= 3 {
			parts = append(parts, "modify_"+strings.Join(modified, "_"))
		} else {
			parts = append(parts, fmt.Sprintf("modify_%d_items", len(modified)))
		}
	}

	if len(parts) == 0 {
		return "schema_changes"
	}

	name := strings.Join(parts, "_and_")

	// Limit name length
	if len(name) > 200 {
		return fmt.Sprintf("schema_changes_%d_types_%d_members", types, members)
	}

	return name
}

func label(e Entry) string {
	switch {
	case e.Op == diff.OpCreateSingleton.String() || e.Subject == diff.SubjectSingleton.String():
		return "singleton_" + e.Target.Type
	case e.Op == diff.OpCreateRole.String() || e.Op == diff.OpDeleteRole.String():
		return "role_" + e.Target.Type
	case e.Target.Member != "":
		return e.Target.Type + "." + e.Target.Member
	case e.Target.Type != "":
		return "type_" + e.Target.Type
	default:
		return "module_" + e.Target.Module
	}
}

func appendUnique(items []string, item string) []string {
	if contains(items, item) {
		return items
	}
	return append(items, item)
}

func contains(items []string, item string) bool {
	for _, s := range items {
		if s == item {
			return true
		}
	}
	return false
}

func without(items []string, item string) []string {
	out := items[:0]
	for _, s := range items {
		if s != item {
			out = append(out, s)
		}
	}
	return out
}
