package tui

import (
	"fmt"
	"io"

	"github.com/muesli/termenv"
)

// PrintBanner writes the scriptor banner to w.
func PrintBanner(w io.Writer, version string) {
	out := termenv.NewOutput(w)
	lines := []struct {
		text  string
		color string
	}{
		{"                 _       _", "#818cf8"},
		{"  ___  ___ _ __ (_)_ __ | |_ ___  _ __", "#a78bfa"},
		{" / __|/ __| '__|| | '_ \\| __/ _ \\| '__|", "#c084fc"},
		{" \\__ \\ (__| |   | | |_) | || (_) | |", "#e879f9"},
		{" |___/\\___|_|   |_| .__/ \\__\\___/|_|", "#f472b6"},
		{"                  |_|", "#fb7185"},
	}

	fmt.Fprintln(w)
	for _, l := range lines {
		fmt.Fprintln(w, out.String(l.text).Foreground(out.Color(l.color)))
	}
	if version != "" {
		fmt.Fprintln(w, out.String("  v"+version).Faint())
	}
	fmt.Fprintln(w)
}
