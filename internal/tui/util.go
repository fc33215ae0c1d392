package tui

import (
	"strconv"
	"strings"
)

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

// clipLines keeps at most n lines of s, ending with a count of the rest.
func clipLines(s string, n int) string {
	lines := strings.Split(strings.TrimRight(s, "\n"), "\n")
	if n < 2 || len(lines) <= n {
		return strings.Join(lines, "\n")
	}
	rest := len(lines) - (n - 1)
	return strings.Join(lines[:n-1], "\n") + "\n" + dimStyle.Render("… "+strconv.Itoa(rest)+" more lines")
}
