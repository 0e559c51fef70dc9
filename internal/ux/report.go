package ux

import (
	"fmt"
	"sort"
	"strings"

	"github.com/felixgeelhaar/resgen/internal/resources"
)

// ReportView renders a run report as terminal text. It satisfies
// fmt.Stringer so TextFormatter can print it.
type ReportView struct {
	Report  *resources.Report
	NoColor bool
	// Verbose lists every generated file instead of per-platform counts.
	Verbose bool
}

func (v ReportView) String() string {
	r := v.Report
	if r == nil {
		return ""
	}
	st := newStyles(v.NoColor)
	var b strings.Builder

	b.WriteString(st.title.Render("Resource generation") + " " + st.muted.Render(r.RunID) + "\n")

	counts := make(map[string]int)
	for _, out := range r.Outputs {
		counts[out.Platform+" "+out.Category]++
	}
	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	if len(keys) > 0 {
		b.WriteString("\n" + st.header.Render("Generated") + "\n")
		if v.Verbose {
			for _, out := range r.Outputs {
				fmt.Fprintf(&b, "  %s %s %s\n", st.success.Render("✓"), out.Path, st.muted.Render(fmt.Sprintf("%dx%d", out.Width, out.Height)))
			}
		} else {
			for _, k := range keys {
				fmt.Fprintf(&b, "  %s %-16s %d\n", st.success.Render("✓"), k, counts[k])
			}
		}
	}

	if len(r.Diagnostics) > 0 {
		b.WriteString("\n" + st.header.Render("Diagnostics") + "\n")
		for _, d := range r.Diagnostics {
			fmt.Fprintf(&b, "  %s %s\n", st.warning.Render("!"), d.String())
		}
	}

	b.WriteString("\n")
	fmt.Fprintf(&b, "%s %s  %s %s  %s %s",
		st.label.Render("generated:"), st.success.Render(fmt.Sprint(r.Generated)),
		st.label.Render("skipped:"), st.warning.Render(fmt.Sprint(r.Skipped)),
		st.label.Render("failed:"), st.failure.Render(fmt.Sprint(r.Failed)),
	)
	if r.Duration != "" {
		fmt.Fprintf(&b, "  %s %s", st.label.Render("in"), r.Duration)
	}
	b.WriteString("\n")

	if r.DefaultIcon != "" {
		fmt.Fprintf(&b, "%s %s\n", st.label.Render("default icon:"), r.DefaultIcon)
	}
	switch {
	case r.ConfigChanged:
		fmt.Fprintf(&b, "%s %s\n", st.label.Render("updated:"), r.ConfigPath)
	case r.Generated > 0:
		fmt.Fprintf(&b, "%s %s\n", st.label.Render("unchanged:"), r.ConfigPath)
	}

	return strings.TrimRight(b.String(), "\n")
}
