package model

// Version is overridden at build time with -ldflags "-X smtdump/internal/model.Version=...".
var Version = "0.4.2"

// Release repository checked by --update.
const (
	RepoOwner = "smtqol"
	RepoName  = "smtdump"
)
