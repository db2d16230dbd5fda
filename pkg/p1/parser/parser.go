// Package parser validates a framed DSMR telegram's CRC16 and extracts its
// OBIS-coded fields into a snapshot.Snapshot, grounded on the regex-based
// extractor in port_reader/service.go but driven by an explicit OBIS table
// instead of per-field regexes, matching the wire's own line structure.
package parser

import (
	"errors"
	"fmt"
	"log"
	"strconv"
	"strings"
	"time"

	"github.com/kwartiwi/p1sensor/pkg/p1/snapshot"
	"github.com/sigurn/crc16"
)

// ErrCRCMismatch is returned when the computed CRC16 does not match the
// telegram's trailing hex digits. The caller must not commit any snapshot.
var ErrCRCMismatch = errors.New("p1/parser: CRC mismatch")

var crcTable = crc16.MakeTable(crc16.CRC16_ARC)

// Parse validates telegram (as produced by frame.Assembler, i.e. ending in
// "XXXX\r\x00" where XXXX is the hex CRC and the final byte is a NUL in
// place of the closing '\n') and returns a freshly zeroed Snapshot with
// every recognized OBIS field filled in.
//
// Parse never returns a partially-applied Snapshot: on CRC failure it
// returns (nil, ErrCRCMismatch) before any field extraction happens.
func Parse(telegram []byte) (*snapshot.Snapshot, error) {
	if len(telegram) < 6 {
		return nil, fmt.Errorf("p1/parser: telegram too short (%d bytes)", len(telegram))
	}

	body := telegram[:len(telegram)-6]
	wantHex := telegram[len(telegram)-6 : len(telegram)-2]

	sum := crc16.Checksum(body, crcTable)
	gotHex := fmt.Sprintf("%04X", sum)
	if !strings.EqualFold(gotHex, string(wantHex)) {
		return nil, ErrCRCMismatch
	}

	snap := &snapshot.Snapshot{}
	// Drop the trailing "\r\x00" before splitting; the last line ("!XXXX")
	// has no "(" group, so applyLine skips it silently.
	text := string(telegram[:len(telegram)-2])
	for _, line := range strings.Split(text, "\r\n") {
		applyLine(snap, line)
	}
	return snap, nil
}

func applyLine(snap *snapshot.Snapshot, line string) {
	open := strings.IndexByte(line, '(')
	if open < 0 {
		return
	}
	prefix := line[:open]
	gs := groups(line)
	if len(gs) == 0 {
		return
	}

	switch prefix {
	case "0-0:96.1.4":
		snap.VersionInfo = gs[0]
	case "0-0:96.1.1":
		snap.EquipmentID = gs[0]
	case "0-0:1.0.0":
		snap.MsgTimestamp = parseTimestamp(prefix, gs[0])
	case "1-0:1.8.1":
		snap.ElectricityDeliveredTariff1 = parseFloatStar(prefix, gs[0])
	case "1-0:1.8.2":
		snap.ElectricityDeliveredTariff2 = parseFloatStar(prefix, gs[0])
	case "1-0:2.8.1":
		snap.ElectricityReturnedTariff1 = parseFloatStar(prefix, gs[0])
	case "1-0:2.8.2":
		snap.ElectricityReturnedTariff2 = parseFloatStar(prefix, gs[0])
	case "0-0:96.14.0":
		snap.TariffIndicator = parseTariffIndicator(prefix, gs[0])
	case "1-0:1.4.0":
		snap.CurrentAvgDemand = parseFloatStar(prefix, gs[0])
	case "1-0:1.6.0":
		if len(gs) >= 2 {
			snap.MaxDemandMonth = snapshot.DemandEntry{
				Timestamp: parseTimestamp(prefix, gs[0]),
				DemandKW:  parseFloatStar(prefix, gs[1]),
			}
		}
	case "0-0:98.1.0":
		applyMaxDemandYear(snap, prefix, gs)
	case "1-0:1.7.0":
		snap.CurrentPowerUsage = parseFloatStar(prefix, gs[0])
	case "1-0:2.7.0":
		snap.CurrentPowerReturn = parseFloatStar(prefix, gs[0])
	case "1-0:21.7.0":
		snap.CurrentPowerUsageL1 = parseFloatStar(prefix, gs[0])
	case "1-0:41.7.0":
		snap.CurrentPowerUsageL2 = parseFloatStar(prefix, gs[0])
	case "1-0:61.7.0":
		snap.CurrentPowerUsageL3 = parseFloatStar(prefix, gs[0])
	case "1-0:22.7.0":
		snap.CurrentPowerReturnL1 = parseFloatStar(prefix, gs[0])
	case "1-0:42.7.0":
		snap.CurrentPowerReturnL2 = parseFloatStar(prefix, gs[0])
	case "1-0:62.7.0":
		snap.CurrentPowerReturnL3 = parseFloatStar(prefix, gs[0])
	case "1-0:32.7.0":
		snap.VoltageL1 = parseFloatStar(prefix, gs[0])
	case "1-0:52.7.0":
		snap.VoltageL2 = parseFloatStar(prefix, gs[0])
	case "1-0:72.7.0":
		snap.VoltageL3 = parseFloatStar(prefix, gs[0])
	case "1-0:31.7.0":
		snap.CurrentL1 = parseFloatStar(prefix, gs[0])
	case "1-0:51.7.0":
		snap.CurrentL2 = parseFloatStar(prefix, gs[0])
	case "1-0:71.7.0":
		snap.CurrentL3 = parseFloatStar(prefix, gs[0])
	case "0-0:96.3.10":
		snap.BreakerState = parseBreakerState(prefix, gs[0])
	case "0-0:17.0.0":
		snap.LimiterThreshold = parseFloatStar(prefix, gs[0])
	case "1-0:31.4.0":
		snap.FuseSupervisionThreshold = parseFloatStar(prefix, gs[0])
	case "0-0:96.13.1":
		// text message, recognized and discarded
	default:
		// unknown OBIS code or other non-OBIS line carrying a "(" group
	}
}

// applyMaxDemandYear implements the literal 0-0:98.1.0 layout: a count,
// two header groups, then per entry two skipped groups followed by a
// timestamp and a value.
func applyMaxDemandYear(snap *snapshot.Snapshot, prefix string, gs []string) {
	n, err := strconv.Atoi(gs[0])
	if err != nil {
		log.Printf("p1/parser: %s: bad entry count %q: %v", prefix, gs[0], err)
		return
	}
	if n > snapshot.MaxDemandYearCap {
		n = snapshot.MaxDemandYearCap
	}
	idx := 3 // past count + two header groups
	for i := 0; i < n; i++ {
		idx += 2 // skip the entry's two header groups
		if idx+1 >= len(gs) {
			log.Printf("p1/parser: %s: entry %d truncated", prefix, i)
			return
		}
		snap.MaxDemandYear[i] = snapshot.DemandEntry{
			Timestamp: parseTimestamp(prefix, gs[idx]),
			DemandKW:  parseFloatStar(prefix, gs[idx+1]),
		}
		idx += 2
	}
}

// groups returns the contents of every top-level "(...)" group in line, in
// order. OBIS values never nest parentheses, so a flat scan suffices.
func groups(line string) []string {
	var out []string
	for {
		open := strings.IndexByte(line, '(')
		if open < 0 {
			return out
		}
		rest := line[open+1:]
		closeIdx := strings.IndexByte(rest, ')')
		if closeIdx < 0 {
			return out
		}
		out = append(out, rest[:closeIdx])
		line = rest[closeIdx+1:]
	}
}

func parseFloatStar(prefix, group string) float64 {
	s := group
	if star := strings.IndexByte(s, '*'); star >= 0 {
		s = s[:star]
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		log.Printf("p1/parser: %s: bad float %q: %v", prefix, group, err)
		return 0
	}
	return v
}

// parseTariffIndicator mirrors the original's 32-bit read into a 16-bit
// field: the value is truncated, not range-checked.
func parseTariffIndicator(prefix, group string) uint16 {
	v, err := strconv.ParseUint(group, 10, 32)
	if err != nil {
		log.Printf("p1/parser: %s: bad tariff indicator %q: %v", prefix, group, err)
		return 0
	}
	return uint16(v)
}

func parseBreakerState(prefix, group string) snapshot.BreakerState {
	v, err := strconv.ParseUint(group, 10, 8)
	if err != nil {
		log.Printf("p1/parser: %s: bad breaker state %q: %v", prefix, group, err)
		return snapshot.BreakerDisconnected
	}
	switch snapshot.BreakerState(v) {
	case snapshot.BreakerConnected:
		return snapshot.BreakerConnected
	case snapshot.BreakerReadyForConn:
		return snapshot.BreakerReadyForConn
	default:
		return snapshot.BreakerDisconnected
	}
}

// parseTimestamp converts a DSMR YYMMDDhhmmss[S|W] group into wall-clock
// time in the host's local zone; the trailing DST flag is tolerated but not
// used, per the wire's own semantics.
func parseTimestamp(prefix, group string) time.Time {
	digits := group
	if len(digits) == 13 {
		digits = digits[:12]
	}
	if len(digits) != 12 {
		log.Printf("p1/parser: %s: bad timestamp %q", prefix, group)
		return time.Time{}
	}
	t, err := time.ParseInLocation("060102150405", digits, time.Local)
	if err != nil {
		log.Printf("p1/parser: %s: bad timestamp %q: %v", prefix, group, err)
		return time.Time{}
	}
	return t
}
