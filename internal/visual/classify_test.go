package visual

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/inv-mschultz/edgy-sub001/internal/ir"
)

func TestClassifySpotChecks(t *testing.T) {
	assert.Equal(t, ir.CueError, Classify(1.0, 0.0, 0.0))
	assert.Equal(t, ir.CueSuccess, Classify(0.0, 0.8, 0.0))
	assert.Equal(t, ir.CueInfo, Classify(0.0, 0.0, 1.0))
	assert.Equal(t, ir.CueNone, Classify(0.5, 0.5, 0.5))
}

func TestClassifyPalette(t *testing.T) {
	tests := []struct {
		name    string
		r, g, b float64
		want    ir.Cue
	}{
		{"material red", 0.898, 0.224, 0.208, ir.CueError},
		{"red-orange", 0.95, 0.38, 0.1, ir.CueError},
		{"amber", 1.0, 0.757, 0.027, ir.CueWarning},
		{"yellow", 0.98, 0.85, 0.2, ir.CueWarning},
		{"green", 0.263, 0.627, 0.278, ir.CueSuccess},
		{"teal", 0.0, 0.588, 0.533, ir.CueSuccess},
		{"blue", 0.129, 0.588, 0.953, ir.CueInfo},
		{"white", 1, 1, 1, ir.CueNone},
		{"black", 0, 0, 0, ir.CueNone},
		{"purple", 0.6, 0.2, 0.8, ir.CueNone},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.r, tt.g, tt.b))
		})
	}
}

// Oranges in the overlap between the red-orange error rule and the amber
// warning rule resolve to error because error is checked first.
func TestClassifyOverlapFirstMatchWins(t *testing.T) {
	assert.Equal(t, ir.CueError, Classify(0.9, 0.34, 0.1))
	assert.Equal(t, ir.CueWarning, Classify(0.9, 0.55, 0.1))
}

func TestClassifyPaintIgnoresInvisible(t *testing.T) {
	red := ir.RGB(1, 0, 0)
	assert.Equal(t, ir.CueError, ClassifyPaint(red))

	hidden := red
	hidden.Visible = false
	assert.Equal(t, ir.CueNone, ClassifyPaint(hidden))

	clear := red
	clear.A = 0
	assert.Equal(t, ir.CueNone, ClassifyPaint(clear))
}
