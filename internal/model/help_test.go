package model

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHelp(t *testing.T) {
	old := Version
	defer func() { Version = old }()
	Version = "9.9.9"

	h := Help()
	assert.True(t, strings.HasPrefix(h, "# smtdump 9.9.9\n"))
	assert.NotContains(t, h, "{{VERSION}}")
	assert.Contains(t, h, "| `5` | ui |")
}
