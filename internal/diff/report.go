package diff

import (
	"fmt"
	"strings"
)

// RenderText renders a single comparison as an inline +/- report.
// Unchanged spans print bare, added spans as {+text+}, removed as [-text-].
func RenderText(r Result) string {
	var b strings.Builder
	for _, c := range r.Changes {
		switch c.Kind {
		case Added:
			b.WriteString("{+" + c.Text + "+}")
		case Removed:
			b.WriteString("[-" + c.Text + "-]")
		default:
			b.WriteString(c.Text)
		}
	}
	return b.String()
}

// RenderCollection renders a collection comparison as a line-oriented report
// suitable for terminal triage. Added and removed steps are listed with +/-
// markers; modified steps list only the fields that changed.
func RenderCollection(cr CollectionResult) string {
	if !cr.HasChanges() {
		return "no differences\n"
	}

	var b strings.Builder
	for _, s := range cr.Added {
		fmt.Fprintf(&b, "+ step %s (%s) %q\n", s.ID, s.Kind, s.Name)
	}
	for _, s := range cr.Removed {
		fmt.Fprintf(&b, "- step %s (%s) %q\n", s.ID, s.Kind, s.Name)
	}
	for _, mod := range cr.Modified {
		fmt.Fprintf(&b, "~ step %s:\n", mod.ID)
		for _, f := range mod.Result.Fields {
			if !f.Result.HasChanges() {
				continue
			}
			fmt.Fprintf(&b, "    %s: %s\n", f.Field, RenderText(f.Result))
		}
	}
	return b.String()
}
