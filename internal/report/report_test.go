package report

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPrintIncludesAllCounts(t *testing.T) {
	var buf bytes.Buffer
	Print(&buf, "engine.a2l", Counts{Updated: 3, Removed: 1, Warned: 2, Unresolved: 0})

	out := buf.String()
	assert.Contains(t, out, "engine.a2l")
	assert.Contains(t, out, "3")
	assert.Contains(t, out, "1")
	assert.Contains(t, out, "2")
}

func TestExitCode(t *testing.T) {
	tests := []struct {
		name string
		c    Counts
		want int
	}{
		{"clean", Counts{Updated: 5}, 0},
		{"warned", Counts{Warned: 1}, 1},
		{"unresolved", Counts{Unresolved: 1}, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Exit(tt.c))
		})
	}
}
