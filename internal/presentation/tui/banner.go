package tui

import (
	"fmt"
	"io"

	"github.com/muesli/termenv"
)

// PrintBanner writes the corebot banner and version to w.
func PrintBanner(w io.Writer, version string) {
	p := termenv.ColorProfile()
	lines := []struct{ text, color string }{
		{"   ___               ___       _   ", "#38bdf8"},
		{"  / __|___ _ _ ___  | _ ) ___ | |_ ", "#60a5fa"},
		{" | (__/ _ \\ '_/ -_) | _ \\/ _ \\|  _|", "#818cf8"},
		{"  \\___\\___/_| \\___| |___/\\___/ \\__|", "#a78bfa"},
	}

	fmt.Fprintln(w)
	for _, l := range lines {
		fmt.Fprintln(w, termenv.String(l.text).Foreground(p.Color(l.color)))
	}
	fmt.Fprintln(w, termenv.String("  v"+version).Faint())
	fmt.Fprintln(w)
}
