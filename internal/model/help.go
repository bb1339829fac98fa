package model

import (
	_ "embed"
	"strings"
)

//go:embed help.md
var helpMarkdown string

// Help returns the help page with the running version filled in.
func Help() string {
	return strings.ReplaceAll(helpMarkdown, "{{VERSION}}", Version)
}
