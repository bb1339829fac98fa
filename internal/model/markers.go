package model

// Markers written into report text.
const (
	MarkerTruncated  = "… (truncated)"
	MarkerEmployee   = "<EMP>"
	MarkerUnreadable = "<err>"
	MarkerEmpty      = "<empty>"
)

// Status icons for the console and the CLI summary.
// Single-width characters keep the report list aligned.
const (
	IconOK      = "✓"
	IconNoDump  = "✗" // chunks logged, dump file not written
	IconPending = "·"
	IconExtras  = "◆" // employee extras unlocked
)
