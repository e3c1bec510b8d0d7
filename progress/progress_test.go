package progress

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDerivePercent(t *testing.T) {
	tests := []struct {
		name     string
		update   Update
		expected float64
	}{
		{"explicit percent wins", Update{Percent: 42, CurrentStep: 1, TotalSteps: 10}, 42},
		{"zero percent derives from steps", Update{CurrentStep: 5, TotalSteps: 10}, 50},
		{"negative percent derives from steps", Update{Percent: -3, CurrentStep: 1, TotalSteps: 4}, 25},
		{"NaN percent derives from steps", Update{Percent: math.NaN(), CurrentStep: 1, TotalSteps: 2}, 50},
		{"NaN with no steps is zero", Update{Percent: math.NaN()}, 0},
		{"no steps no percent is zero", Update{}, 0},
		{"clamps above 100", Update{Percent: 130}, 100},
		{"steps past total clamp to 100", Update{CurrentStep: 12, TotalSteps: 10}, 100},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, derivePercent(tt.update))
		})
	}
}

func TestReportFinal(t *testing.T) {
	assert.True(t, Report{Canceled: true}.Final())
	assert.True(t, Report{CurrentStep: 10, TotalSteps: 10}.Final())
	assert.True(t, Report{Percent: 100}.Final())
	assert.False(t, Report{CurrentStep: 9, TotalSteps: 10, Percent: 90}.Final())
	assert.False(t, Report{}.Final())
}

func TestMapperSuppressesDuplicates(t *testing.T) {
	var m Mapper

	r1, emit := m.Map(Update{Message: "Scanning", CurrentStep: 1, TotalSteps: 4})
	assert.True(t, emit)
	assert.Equal(t, 25.0, r1.Percent)

	_, emit = m.Map(Update{Message: "Scanning", CurrentStep: 1, TotalSteps: 4})
	assert.False(t, emit, "identical update should be suppressed")

	r2, emit := m.Map(Update{Message: "Scanning", CurrentStep: 2, TotalSteps: 4})
	assert.True(t, emit)
	assert.Equal(t, 50.0, r2.Percent)
}

func TestMapperLast(t *testing.T) {
	var m Mapper

	_, ok := m.Last()
	assert.False(t, ok)

	m.Map(Update{Message: "working", CurrentStep: 3, TotalSteps: 3})
	last, ok := m.Last()
	assert.True(t, ok)
	assert.True(t, last.Final())
	assert.Equal(t, "working", last.Message)
}
