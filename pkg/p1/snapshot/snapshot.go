// Package snapshot holds the parsed representation of a single DSMR P1
// telegram plus the bounded-history records derived from a stream of them.
package snapshot

import "time"

// BreakerState mirrors the three values OBIS code 0-0:96.3.10 can report.
type BreakerState uint8

const (
	BreakerDisconnected BreakerState = 0
	BreakerConnected    BreakerState = 1
	BreakerReadyForConn BreakerState = 2
)

func (s BreakerState) String() string {
	switch s {
	case BreakerDisconnected:
		return "disconnected"
	case BreakerConnected:
		return "connected"
	case BreakerReadyForConn:
		return "readyForConnection"
	default:
		return "disconnected"
	}
}

// DemandEntry is a single {timestamp, demand} pair, used both for the
// month's peak demand and for each of the (up to 13) yearly entries.
type DemandEntry struct {
	Timestamp time.Time `json:"timestamp"`
	DemandKW  float64   `json:"demand"`
}

// MaxDemandYearCap bounds the yearly max-demand history. DSMR's 13-month
// sliding window is reflected as a fixed-size slice terminated early by a
// zero Timestamp entry, matching the wire convention.
const MaxDemandYearCap = 13

// Snapshot is the authoritative parsed state of the most recent telegram.
// Fields keep the wire's resolution; anything the telegram omitted keeps
// its zero value because the parser always starts from a fresh, zeroed
// Snapshot rather than mutating the previous one in place.
type Snapshot struct {
	VersionInfo string
	EquipmentID string
	MsgTimestamp time.Time

	ElectricityDeliveredTariff1 float64
	ElectricityDeliveredTariff2 float64
	ElectricityReturnedTariff1  float64
	ElectricityReturnedTariff2  float64
	TariffIndicator             uint16

	CurrentAvgDemand float64
	MaxDemandMonth   DemandEntry
	MaxDemandYear    [MaxDemandYearCap]DemandEntry

	CurrentPowerUsage  float64
	CurrentPowerReturn float64

	CurrentPowerUsageL1  float64
	CurrentPowerUsageL2  float64
	CurrentPowerUsageL3  float64
	CurrentPowerReturnL1 float64
	CurrentPowerReturnL2 float64
	CurrentPowerReturnL3 float64

	VoltageL1 float64
	VoltageL2 float64
	VoltageL3 float64
	CurrentL1 float64
	CurrentL2 float64
	CurrentL3 float64

	BreakerState             BreakerState
	LimiterThreshold         float64
	FuseSupervisionThreshold float64
}

// MaxDemandYearEntries returns the yearly max-demand entries up to (and
// excluding) the first zero-timestamp sentinel, in wire order.
func (s *Snapshot) MaxDemandYearEntries() []DemandEntry {
	out := make([]DemandEntry, 0, MaxDemandYearCap)
	for _, e := range s.MaxDemandYear {
		if e.Timestamp.IsZero() {
			break
		}
		out = append(out, e)
	}
	return out
}

// ShortTermEntry is one sample in the 15-minute, telegram-interval-resolution
// ring buffer backing the peak predictor.
type ShortTermEntry struct {
	Timestamp        time.Time
	CurrentAvgDemand float64
	CurrentPowerUsage float64
}

// LongTermEntry is one quarter-hour-bucketed sample in the long-term ring
// buffer. kWh values are scaled by 1000 and truncated to integer milli-kWh,
// matching the wire's own three-decimal resolution without carrying floats
// in the bounded history.
type LongTermEntry struct {
	Timestamp     time.Time
	DeliveredT1Mi int64
	DeliveredT2Mi int64
	ReturnedT1Mi  int64
	ReturnedT2Mi  int64
}

// PredictedPeak is the predictor's most recent output. It is always
// overwritten as a whole, so a reader sees either the previous or the next
// value, never a torn one.
type PredictedPeak struct {
	ValueKW          float64
	EndOfQuarterTime time.Time
}
