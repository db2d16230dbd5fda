package ingest

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/kwartiwi/p1sensor/pkg/p1/snapshot"
	"github.com/kwartiwi/p1sensor/pkg/telemetry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// sampleTelegram has a correctly computed CRC16/ARC trailer (self-authored
// fixture, not a byte-exact capture from a meter).
const sampleTelegram = "/FLU5\\253769434_A\r\n\r\n0-0:96.1.4(50)\r\n!5DA0\r\n"

type pipeRWC struct {
	io.Reader
	io.Writer
}

func (pipeRWC) Close() error { return nil }

func TestReader_CommitsParsedSnapshot(t *testing.T) {
	pr, pw := io.Pipe()
	store := telemetry.NewStore()
	r := NewReader("ignored", 115200, store)
	r.openFunc = func(string, uint) (io.ReadWriteCloser, error) {
		return pipeRWC{Reader: pr, Writer: pw}, nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() { _ = r.Run(ctx) }()
	go func() {
		for _, b := range []byte(sampleTelegram) {
			_, _ = pw.Write([]byte{b})
		}
	}()

	assert.Eventually(t, func() bool {
		var version string
		_ = store.ReadSnapshot(context.Background(), func(s snapshot.Snapshot) { version = s.VersionInfo })
		return version == "50"
	}, 2*time.Second, 10*time.Millisecond)
}

func TestLogger_AppendsOnCommit(t *testing.T) {
	store := telemetry.NewStore()
	logger := NewLogger(store)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() { _ = logger.Run(ctx) }()

	ts := time.Unix(1_700_000_000, 0)
	store.CommitSnapshot(snapshot.Snapshot{
		MsgTimestamp:                ts,
		CurrentAvgDemand:            1.5,
		CurrentPowerUsage:           1.2,
		ElectricityDeliveredTariff1: 11.111,
	})

	require.Eventually(t, func() bool {
		entries, err := store.SnapshotShortTerm(context.Background())
		return err == nil && len(entries) == 1
	}, 2*time.Second, 10*time.Millisecond)

	long, err := store.SnapshotLongTerm(context.Background())
	require.NoError(t, err)
	require.Len(t, long, 1)
	assert.EqualValues(t, 11111, long[0].DeliveredT1Mi)
}
