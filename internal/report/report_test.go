package report

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestReport_Finalize(t *testing.T) {
	started := time.Date(2025, 3, 1, 12, 30, 0, 123000000, time.UTC)
	r := New("SMTQoL", "NPC_Manager Dump", started)
	r.Line("Type: NPC_Manager")
	r.Linef("  maxEmployees = %d", 12)

	want := "[SMTQoL] ===== NPC_Manager Dump =====\n" +
		"Time: 2025-03-01T12:30:00.123Z\n" +
		"Type: NPC_Manager\n" +
		"  maxEmployees = 12\n"
	assert.Equal(t, want, r.Finalize())
	assert.Equal(t, "NPC_Manager Dump", r.Title())
	assert.Equal(t, started, r.Started())
}

func TestReport_FinalizeOnce(t *testing.T) {
	r := New("T", "x", time.Unix(0, 0).UTC())
	first := r.Finalize()
	r.Line("late")
	assert.Equal(t, first, r.Finalize())
	assert.NotContains(t, r.Finalize(), "late")
}
