package budget

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestEvaluate(t *testing.T) {
	tests := []struct {
		name       string
		limits     Limits
		historical float64
		proposed   float64
		want       Level
		percent    float64
	}{
		{"over eighty percent", Limits{Total: 1000}, 750, 100, LevelWarning, 85},
		{"thirty percent", Limits{Total: 1000}, 200, 100, LevelSufficient, 30},
		{"exactly eighty is fine", Limits{Total: 1000}, 700, 100, LevelSufficient, 80},
		{"no limit", Limits{}, 5000, 100, LevelSufficient, 0},
		{"daily limit ignored", Limits{Daily: 10}, 0, 100, LevelSufficient, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Evaluate(tt.limits, tt.historical, tt.proposed)
			assert.Equal(t, tt.want, got.Level)
			assert.InDelta(t, tt.percent, got.Percent, 1e-9)
			assert.Equal(t, tt.historical+tt.proposed, got.Projected)
		})
	}
}

func TestEvaluate_WarningMessage(t *testing.T) {
	got := Evaluate(Limits{Total: 1000}, 750, 100)
	assert.Equal(t, "Warning: projected total expenses will reach 85% of the budget.", got.Message)
}

func TestEvaluateDay(t *testing.T) {
	assert.Equal(t, LevelOver, EvaluateDay(200, 150, 100).Level)
	assert.Equal(t, LevelSufficient, EvaluateDay(200, 100, 100).Level)
	assert.Equal(t, LevelSufficient, EvaluateDay(0, 1000, 100).Level)
}

func TestDayWindow(t *testing.T) {
	loc := time.FixedZone("AEDT", 11*3600)
	from, to := DayWindow(time.Date(2026, 3, 14, 23, 30, 0, 0, loc))

	assert.True(t, from.Equal(time.Date(2026, 3, 14, 0, 0, 0, 0, loc)))
	assert.True(t, to.Equal(time.Date(2026, 3, 15, 0, 0, 0, 0, loc)))
}
