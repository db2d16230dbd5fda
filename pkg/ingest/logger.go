package ingest

import (
	"context"
	"log"

	"github.com/kwartiwi/p1sensor/pkg/p1/snapshot"
	"github.com/kwartiwi/p1sensor/pkg/telemetry"
)

// Logger is the logger task: it waits for "telegram available" and
// appends the current snapshot's relevant fields to both ring buffers,
// grounded on logger.c's add_short_term_log_entry.
type Logger struct {
	store *telemetry.Store
}

// NewLogger returns a Logger that appends to store on every commit.
func NewLogger(store *telemetry.Store) *Logger {
	return &Logger{store: store}
}

// Run blocks, appending a ring-buffer entry on every "telegram available"
// edge, until ctx is done.
func (l *Logger) Run(ctx context.Context) error {
	for {
		if err := l.store.TelegramAvailable().Wait(ctx); err != nil {
			return err
		}

		var snap snapshot.Snapshot
		if err := l.store.ReadSnapshot(ctx, func(s snapshot.Snapshot) { snap = s }); err != nil {
			log.Printf("ingest: logger: read snapshot: %v", err)
			continue
		}

		l.store.AppendShortTerm(snapshot.ShortTermEntry{
			Timestamp:         snap.MsgTimestamp,
			CurrentAvgDemand:  snap.CurrentAvgDemand,
			CurrentPowerUsage: snap.CurrentPowerUsage,
		})
		l.store.AppendLongTerm(snapshot.LongTermEntry{
			Timestamp:     snap.MsgTimestamp,
			DeliveredT1Mi: int64(snap.ElectricityDeliveredTariff1 * 1000),
			DeliveredT2Mi: int64(snap.ElectricityDeliveredTariff2 * 1000),
			ReturnedT1Mi:  int64(snap.ElectricityReturnedTariff1 * 1000),
			ReturnedT2Mi:  int64(snap.ElectricityReturnedTariff2 * 1000),
		})
	}
}
