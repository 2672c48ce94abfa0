package webview

import "strconv"

// formatWidth renders a progress fill as a CSS percentage with one decimal.
func formatWidth(p float64) string {
	return strconv.FormatFloat(p, 'f', 1, 64) + "%"
}
