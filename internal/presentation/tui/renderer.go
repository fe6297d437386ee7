package tui

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/aretw0/finjector/pkg/domain"
	"github.com/charmbracelet/glamour"
)

// NewRenderer returns a function that renders markdown using glamour.
func NewRenderer() func(string) (string, error) {
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(), // Automatically detect light/dark background
	)
	if err != nil {
		return func(markdown string) (string, error) { return markdown, nil }
	}

	return func(markdown string) (string, error) {
		return r.Render(markdown)
	}
}

// ProbesMarkdown formats snap as a markdown table sorted by module.
func ProbesMarkdown(snap domain.Snapshot) string {
	if len(snap) == 0 {
		return "_No failure probes registered._\n"
	}

	modules := make([]string, 0, len(snap))
	for m := range snap {
		modules = append(modules, m)
	}
	sort.Strings(modules)

	var sb strings.Builder
	sb.WriteString("| Module | Points |\n")
	sb.WriteString("| --- | --- |\n")
	for _, m := range modules {
		points := make([]string, len(snap[m]))
		for i, p := range snap[m] {
			points[i] = "`" + escapeCell(p) + "`"
		}
		fmt.Fprintf(&sb, "| %s | %s |\n", escapeCell(m), strings.Join(points, ", "))
	}
	return sb.String()
}

// WriteProbes writes snap to w, rendered with glamour when styled is true.
func WriteProbes(w io.Writer, snap domain.Snapshot, styled bool) error {
	md := ProbesMarkdown(snap)
	if !styled {
		_, err := io.WriteString(w, md)
		return err
	}
	out, err := NewRenderer()(md)
	if err != nil {
		return err
	}
	_, err = io.WriteString(w, out)
	return err
}

func escapeCell(s string) string {
	return strings.ReplaceAll(s, "|", "\\|")
}
