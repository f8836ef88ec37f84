// Package render turns plan text into the HTML fragment the web form shows.
package render

import (
	"html"
	"regexp"
	"strings"
)

var emphasis = regexp.MustCompile(`\*\*(.*?)\*\*`)

// HTML escapes text, then applies the plan markup: a blank line is a
// paragraph break, single newlines fold into spaces, **x** is emphasis.
func HTML(text string) string {
	s := html.EscapeString(strings.ReplaceAll(text, "\r\n", "\n"))
	s = strings.ReplaceAll(s, "\n\n", "<br><br>")
	s = strings.ReplaceAll(s, "\n", " ")
	return emphasis.ReplaceAllString(s, "<strong>$1</strong>")
}
