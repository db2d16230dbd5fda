// Package predictor periodically forecasts current_avg_demand at the end
// of the ongoing quarter-hour billing window, grounded on predict_peak.c's
// two algorithms (least-squares regression and weighted average) but
// driven by a time.Ticker instead of a tick-deadline FreeRTOS delay.
package predictor

import (
	"context"
	"log"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/kwartiwi/p1sensor/pkg/p1/snapshot"
	"github.com/kwartiwi/p1sensor/pkg/telemetry"
)

// Method selects which of the two prediction algorithms a Predictor runs,
// loaded once at task start per spec.md's re-architecture note — unlike
// the original's NVS-backed enum read on every boot, it's a constructor
// argument here.
type Method uint8

const (
	MethodLinearRegression Method = 0
	MethodWeightedAverage  Method = 1
)

// TickInterval is T: the predictor wakes every 5 seconds.
const TickInterval = 5 * time.Second

// Predictor drives the periodic prediction cycle against a telemetry.Store.
type Predictor struct {
	store  *telemetry.Store
	method Method
}

// New returns a Predictor that will commit predictions to store using the
// given method.
func New(store *telemetry.Store, method Method) *Predictor {
	return &Predictor{store: store, method: method}
}

// Run blocks, ticking every TickInterval, until ctx is done. It is
// intended to be launched as one goroutine in an errgroup.Group.
func (p *Predictor) Run(ctx context.Context) error {
	ticker := time.NewTicker(TickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			p.tick(ctx)
		}
	}
}

func (p *Predictor) tick(ctx context.Context) {
	entries, err := p.store.SnapshotShortTerm(ctx)
	if err != nil {
		log.Printf("predictor: could not read short-term log: %v", err)
		return
	}
	if len(entries) <= 1 {
		return
	}

	k := AlignmentIndex(entries)

	var peak snapshot.PredictedPeak
	switch p.method {
	case MethodWeightedAverage:
		peak = weightedAverage(entries, k)
	default:
		peak = linearRegression(entries, k)
	}

	log.Printf("predictor: %s entries, alignment index %d, predicted %.3f kW at %s",
		humanize.Comma(int64(len(entries))), k, peak.ValueKW, peak.EndOfQuarterTime.Format(time.RFC3339))
	p.store.CommitPredictedPeak(peak)
}

// AlignmentIndex returns the smallest index whose entry falls exactly on a
// quarter-hour boundary, or 0 if none does.
func AlignmentIndex(entries []snapshot.ShortTermEntry) int {
	for i, e := range entries {
		if e.Timestamp.Minute()%15 == 0 && e.Timestamp.Second() == 0 {
			return i
		}
	}
	return 0
}

// endOfQuarterHour zeroes seconds and rounds minutes up to the next
// multiple of 15, carrying into the hour (and, via time.Date's own
// normalization, into the day) as needed.
func endOfQuarterHour(t time.Time) time.Time {
	minute := (t.Minute()/15 + 1) * 15
	hour := t.Hour()
	if minute == 60 {
		minute = 0
		hour++
	}
	return time.Date(t.Year(), t.Month(), t.Day(), hour, minute, 0, 0, t.Location())
}

// linearRegression fits current_avg_demand vs. elapsed time over
// entries[k:] by least squares and extrapolates to the end of the
// quarter-hour that entries[k] belongs to.
func linearRegression(entries []snapshot.ShortTermEntry, k int) snapshot.PredictedPeak {
	sub := entries[k:]
	n := float64(len(sub))
	t0 := sub[0].Timestamp

	var sumX, sumXX, sumY, sumXY float64
	for _, e := range sub {
		dx := e.Timestamp.Sub(t0).Seconds()
		dy := e.CurrentAvgDemand
		sumX += dx
		sumXX += dx * dx
		sumY += dy
		sumXY += dx * dy
	}
	xBar := sumX / n
	yBar := sumY / n

	var slope float64
	if denom := sumXX - sumX*xBar; denom != 0 {
		slope = (sumXY - sumX*yBar) / denom
	}

	last := sub[len(sub)-1]
	end := endOfQuarterHour(t0)
	value := last.CurrentAvgDemand + slope*end.Sub(last.Timestamp).Seconds()

	return snapshot.PredictedPeak{ValueKW: value, EndOfQuarterTime: end}
}

// weightedAverage treats current_power_usage as a constant load,
// weighting each entry by the seconds elapsed since the first entry plus
// one (so newer entries weigh more), over the full log — not just
// entries[k:].
func weightedAverage(entries []snapshot.ShortTermEntry, k int) snapshot.PredictedPeak {
	t0 := entries[0].Timestamp

	var sumWeight, sumWeightedUsage float64
	for _, e := range entries {
		weight := e.Timestamp.Sub(t0).Seconds() + 1
		sumWeight += weight
		sumWeightedUsage += weight * e.CurrentPowerUsage
	}

	end := endOfQuarterHour(entries[k].Timestamp)
	return snapshot.PredictedPeak{ValueKW: sumWeightedUsage / sumWeight, EndOfQuarterTime: end}
}
