package graph

import (
	"fmt"
	"sort"
	"strings"

	"github.com/aretw0/finjector/pkg/domain"
)

// Overlay marks injection points to highlight, keyed "module/point".
type Overlay struct {
	Armed []string
}

// GenerateMermaid produces a Mermaid flowchart of modules and their injection points.
// Modules render as subroutines and points as rectangles, sorted by name.
// Points listed in overlay are styled as armed.
func GenerateMermaid(snap domain.Snapshot, overlay *Overlay) string {
	var sb strings.Builder
	sb.WriteString("graph LR\n")

	modules := make([]string, 0, len(snap))
	for m := range snap {
		modules = append(modules, m)
	}
	sort.Strings(modules)

	for _, module := range modules {
		safeModule := sanitizeMermaidID(module)
		sb.WriteString(fmt.Sprintf("    %s[[\"%s\"]]\n", safeModule, escapeLabel(module)))
		for _, point := range snap[module] {
			safePoint := pointID(module, point)
			sb.WriteString(fmt.Sprintf("    %s --> %s[\"%s\"]\n", safeModule, safePoint, escapeLabel(point)))
		}
	}

	if overlay != nil && len(overlay.Armed) > 0 {
		sb.WriteString("\n    %% Overlay Styles\n")
		// Force black text (color:#000) for high-contrast on light backgrounds, regardless of theme (Light/Dark)
		sb.WriteString("    classDef armed fill:#fee2e2,stroke:#b91c1c,stroke-width:3px,color:#000;\n")

		seen := make(map[string]bool)
		for _, key := range overlay.Armed {
			module, point, ok := strings.Cut(key, "/")
			if !ok {
				continue
			}
			id := pointID(module, point)
			if !seen[id] {
				seen[id] = true
				sb.WriteString(fmt.Sprintf("    class %s armed;\n", id))
			}
		}
	}

	return sb.String()
}

func pointID(module, point string) string {
	return sanitizeMermaidID(module) + "__" + sanitizeMermaidID(point)
}

func escapeLabel(s string) string {
	return strings.ReplaceAll(s, "\"", "'")
}

func sanitizeMermaidID(id string) string {
	s := strings.ReplaceAll(id, ".", "_")
	s = strings.ReplaceAll(s, "-", "_")
	s = strings.ReplaceAll(s, "/", "_")
	s = strings.ReplaceAll(s, "\\", "_")
	s = strings.ReplaceAll(s, " ", "_")
	return s
}
