package predictor

import (
	"testing"
	"time"

	"github.com/kwartiwi/p1sensor/pkg/p1/snapshot"
	"github.com/stretchr/testify/assert"
)

// TestLinearRegression_S4 reproduces the seeded scenario: demand [1,2,3]
// at t=[0,60,120] with alignment at t=0, E=900. Slope = 1/60, predicted
// value = 3.0 + (1/60)*(900-120) = 16.0.
func TestLinearRegression_S4(t *testing.T) {
	base := time.Date(2024, 3, 10, 10, 0, 0, 0, time.UTC) // exactly on a quarter-hour
	entries := []snapshot.ShortTermEntry{
		{Timestamp: base, CurrentAvgDemand: 1.0},
		{Timestamp: base.Add(60 * time.Second), CurrentAvgDemand: 2.0},
		{Timestamp: base.Add(120 * time.Second), CurrentAvgDemand: 3.0},
	}

	k := AlignmentIndex(entries)
	assert.Equal(t, 0, k)

	peak := linearRegression(entries, k)
	assert.InDelta(t, 16.0, peak.ValueKW, 1e-6)
	assert.Equal(t, base.Add(900*time.Second), peak.EndOfQuarterTime)
}

// TestWeightedAverage_S5 reproduces the seeded scenario: power usage
// [2.0, 4.0] at t=[0,30]. Weights [1,31], predicted = 126/32 = 3.9375.
func TestWeightedAverage_S5(t *testing.T) {
	base := time.Date(2024, 3, 10, 10, 0, 0, 0, time.UTC)
	entries := []snapshot.ShortTermEntry{
		{Timestamp: base, CurrentPowerUsage: 2.0},
		{Timestamp: base.Add(30 * time.Second), CurrentPowerUsage: 4.0},
	}

	peak := weightedAverage(entries, AlignmentIndex(entries))
	assert.InDelta(t, 3.9375, peak.ValueKW, 1e-9)
}

// TestLinearRegression_ConstantLoad exercises invariant 5: a constant
// input log produces a zero slope and a prediction equal to the constant.
func TestLinearRegression_ConstantLoad(t *testing.T) {
	base := time.Date(2024, 3, 10, 10, 0, 0, 0, time.UTC)
	entries := make([]snapshot.ShortTermEntry, 5)
	for i := range entries {
		entries[i] = snapshot.ShortTermEntry{
			Timestamp:        base.Add(time.Duration(i) * time.Second),
			CurrentAvgDemand: 2.5,
		}
	}

	peak := linearRegression(entries, AlignmentIndex(entries))
	assert.InDelta(t, 2.5, peak.ValueKW, 1e-9)
}

// TestLinearRegression_PerfectlyLinear exercises invariant 6.
func TestLinearRegression_PerfectlyLinear(t *testing.T) {
	base := time.Date(2024, 3, 10, 10, 0, 0, 0, time.UTC)
	const slope = 0.02 // kW per second
	entries := make([]snapshot.ShortTermEntry, 10)
	for i := range entries {
		entries[i] = snapshot.ShortTermEntry{
			Timestamp:        base.Add(time.Duration(i*30) * time.Second),
			CurrentAvgDemand: slope * float64(i*30),
		}
	}

	peak := linearRegression(entries, AlignmentIndex(entries))
	last := entries[len(entries)-1]
	end := endOfQuarterHour(base)
	want := last.CurrentAvgDemand + slope*end.Sub(last.Timestamp).Seconds()
	assert.InDelta(t, want, peak.ValueKW, 1e-6)
}

func TestAlignmentIndex_DefaultsToZeroWhenNoneAligned(t *testing.T) {
	base := time.Date(2024, 3, 10, 10, 1, 0, 0, time.UTC) // minute 1, never aligned
	entries := []snapshot.ShortTermEntry{
		{Timestamp: base},
		{Timestamp: base.Add(time.Second)},
	}
	assert.Equal(t, 0, AlignmentIndex(entries))
}

func TestEndOfQuarterHour_CarriesHour(t *testing.T) {
	t0 := time.Date(2024, 3, 10, 10, 50, 0, 0, time.UTC)
	got := endOfQuarterHour(t0)
	want := time.Date(2024, 3, 10, 11, 0, 0, 0, time.UTC)
	assert.True(t, got.Equal(want))
}
