package tui

import (
	"fmt"
	"io"

	"github.com/muesli/termenv"
)

// PrintBanner writes the finjector ASCII banner to w.
func PrintBanner(w io.Writer) {
	out := termenv.NewOutput(w)
	p := out.ColorProfile()
	// Warm gradient, amber to red.
	lines := []struct {
		text, color string
	}{
		{"   __ _       _           _             ", "#fbbf24"},
		{"  / _(_)_ __ (_) ___  ___| |_ ___  _ __ ", "#f59e0b"},
		{" | |_| | '_ \\| |/ _ \\/ __| __/ _ \\| '__|", "#f97316"},
		{" |  _| | | | | |  __/ (__| || (_) | |   ", "#ef4444"},
		{" |_| |_|_| |_/ |\\___|\\___|\\__\\___/|_|   ", "#dc2626"},
		{"           |__/                         ", "#b91c1c"},
	}

	fmt.Fprintln(w)
	for _, l := range lines {
		fmt.Fprintln(w, out.String(l.text).Foreground(p.Color(l.color)))
	}
	fmt.Fprintln(w)
}
