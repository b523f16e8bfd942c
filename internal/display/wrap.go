package display

import (
	"github.com/muesli/reflow/wordwrap"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

const DefaultWidth = 80

var titleCaser = cases.Title(language.English, cases.NoLower)

// Wrap word-wraps text to DefaultWidth, preserving ANSI escape sequences.
func Wrap(text string) string {
	return wordwrap.String(text, DefaultWidth)
}

// Capitalize returns s with its leading word title-cased, leaving the rest
// of the string alone.
func Capitalize(s string) string {
	if s == "" {
		return s
	}
	return titleCaser.String(s[:1]) + s[1:]
}
