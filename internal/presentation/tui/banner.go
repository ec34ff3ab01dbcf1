package tui

import (
	"fmt"
	"io"

	"github.com/muesli/termenv"
)

// PrintBanner writes the Lattice wordmark, one gradient color per line.
func PrintBanner(w io.Writer, profile termenv.Profile) {
	lines := []string{
		" _          _   _   _          ",
		"| |    __ _| |_| |_(_) ___ ___ ",
		"| |   / _` | __| __| |/ __/ _ \\",
		"| |__| (_| | |_| |_| | (_|  __/",
		"|_____\\__,_|\\__|\\__|_|\\___\\___|",
	}
	colors := []string{"#818cf8", "#a78bfa", "#c084fc", "#e879f9", "#f472b6"}

	fmt.Fprintln(w)
	for i, line := range lines {
		fmt.Fprintln(w, profile.String(line).Foreground(profile.Color(colors[i])))
	}
	fmt.Fprintln(w)
}
