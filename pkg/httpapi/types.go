package httpapi

import (
	"time"

	"github.com/kwartiwi/p1sensor/pkg/p1/snapshot"
)

// APIVersion is the string returned by GET /api/version.
const APIVersion = "1.0"

// FirmwareVersion is the string returned as "version" by
// GET /api/system/info, grounded on system_info_get_handler's IDF_VER.
const FirmwareVersion = "kwartiwi-p1sensor/1.0"

func epochSeconds(t time.Time) float64 {
	if t.IsZero() {
		return 0
	}
	return float64(t.Unix())
}

type demandEntryJSON struct {
	Timestamp float64 `json:"timestamp"`
	Demand    float64 `json:"demand"`
}

func demandEntryToJSON(e snapshot.DemandEntry) demandEntryJSON {
	return demandEntryJSON{Timestamp: epochSeconds(e.Timestamp), Demand: e.DemandKW}
}

func demandEntriesToJSON(entries []snapshot.DemandEntry) []demandEntryJSON {
	out := make([]demandEntryJSON, len(entries))
	for i, e := range entries {
		out[i] = demandEntryToJSON(e)
	}
	return out
}

// basicDataJSON is the field set shared by /api/p1/data/basic,
// /api/p1/data/complete and /api/meter-data, grounded on
// get_p1_data_in_json's unconditional first block.
type basicDataJSON struct {
	Timestamp                   float64 `json:"timestamp"`
	ElectricityDeliveredTariff1 float64 `json:"electricityDeliveredTariff1"`
	ElectricityDeliveredTariff2 float64 `json:"electricityDeliveredTariff2"`
	ElectricityReturnedTariff1  float64 `json:"electricityReturnedTariff1"`
	ElectricityReturnedTariff2  float64 `json:"electricityReturnedTariff2"`
	CurrentAvgDemand            float64 `json:"currentAvgDemand"`
	CurrentPowerUsage           float64 `json:"currentPowerUsage"`
	CurrentPowerReturn          float64 `json:"currentPowerReturn"`
}

func basicDataToJSON(s snapshot.Snapshot) basicDataJSON {
	return basicDataJSON{
		Timestamp:                   epochSeconds(s.MsgTimestamp),
		ElectricityDeliveredTariff1: s.ElectricityDeliveredTariff1,
		ElectricityDeliveredTariff2: s.ElectricityDeliveredTariff2,
		ElectricityReturnedTariff1:  s.ElectricityReturnedTariff1,
		ElectricityReturnedTariff2:  s.ElectricityReturnedTariff2,
		CurrentAvgDemand:            s.CurrentAvgDemand,
		CurrentPowerUsage:           s.CurrentPowerUsage,
		CurrentPowerReturn:          s.CurrentPowerReturn,
	}
}

// completeDataJSON adds every field the basic set omits, grounded on
// get_p1_data_in_json's "if (complete)" block.
type completeDataJSON struct {
	basicDataJSON
	VersionInfo              string            `json:"versionInfo"`
	EquipmentID               string            `json:"equipmentId"`
	ElectricityTariff         uint16            `json:"electricityTariff"`
	MaxDemandMonth            demandEntryJSON   `json:"maxDemandMonth"`
	MaxDemandYear             []demandEntryJSON `json:"maxDemandYear"`
	CurrentPowerUsageL1       float64           `json:"currentPowerUsageL1"`
	CurrentPowerUsageL2       float64           `json:"currentPowerUsageL2"`
	CurrentPowerUsageL3       float64           `json:"currentPowerUsageL3"`
	CurrentPowerReturnL1      float64           `json:"currentPowerReturnL1"`
	CurrentPowerReturnL2      float64           `json:"currentPowerReturnL2"`
	CurrentPowerReturnL3      float64           `json:"currentPowerReturnL3"`
	VoltageL1                 float64           `json:"voltageL1"`
	VoltageL2                 float64           `json:"voltageL2"`
	VoltageL3                 float64           `json:"voltageL3"`
	CurrentL1                 float64           `json:"currentL1"`
	CurrentL2                 float64           `json:"currentL2"`
	CurrentL3                 float64           `json:"currentL3"`
	BreakerState               string            `json:"breakerState"`
	LimiterThreshold           float64           `json:"limiterThreshold"`
	FuseSupervisionThreshold   float64           `json:"fuseSupervisionThreshold"`
}

func completeDataToJSON(s snapshot.Snapshot) completeDataJSON {
	entries := s.MaxDemandYearEntries()
	return completeDataJSON{
		basicDataJSON:            basicDataToJSON(s),
		VersionInfo:              s.VersionInfo,
		EquipmentID:              s.EquipmentID,
		ElectricityTariff:        s.TariffIndicator,
		MaxDemandMonth:           demandEntryToJSON(s.MaxDemandMonth),
		MaxDemandYear:            demandEntriesToJSON(entries),
		CurrentPowerUsageL1:      s.CurrentPowerUsageL1,
		CurrentPowerUsageL2:      s.CurrentPowerUsageL2,
		CurrentPowerUsageL3:      s.CurrentPowerUsageL3,
		CurrentPowerReturnL1:     s.CurrentPowerReturnL1,
		CurrentPowerReturnL2:     s.CurrentPowerReturnL2,
		CurrentPowerReturnL3:     s.CurrentPowerReturnL3,
		VoltageL1:                s.VoltageL1,
		VoltageL2:                s.VoltageL2,
		VoltageL3:                s.VoltageL3,
		CurrentL1:                s.CurrentL1,
		CurrentL2:                s.CurrentL2,
		CurrentL3:                s.CurrentL3,
		BreakerState:             s.BreakerState.String(),
		LimiterThreshold:         s.LimiterThreshold,
		FuseSupervisionThreshold: s.FuseSupervisionThreshold,
	}
}

// meterDataJSON is the /api/meter-data response: basic fields merged with
// the monthly peak and the predictor's current output.
type meterDataJSON struct {
	basicDataJSON
	MaxDemandMonth    demandEntryJSON `json:"maxDemandMonth"`
	PredictedPeak     float64         `json:"predictedPeak"`
	PredictedPeakTime float64         `json:"predictedPeakTime"`
}

type shortTermEntryJSON struct {
	Timestamp         float64 `json:"timestamp"`
	CurrentAvgDemand  float64 `json:"currentAvgDemand"`
	CurrentPowerUsage float64 `json:"currentPowerUsage"`
}

func shortTermEntriesToJSON(entries []snapshot.ShortTermEntry) []shortTermEntryJSON {
	out := make([]shortTermEntryJSON, len(entries))
	for i, e := range entries {
		out[i] = shortTermEntryJSON{
			Timestamp:         epochSeconds(e.Timestamp),
			CurrentAvgDemand:  e.CurrentAvgDemand,
			CurrentPowerUsage: e.CurrentPowerUsage,
		}
	}
	return out
}

type longTermEntryJSON struct {
	Timestamp                   float64 `json:"timestamp"`
	ElectricityDeliveredTariff1 float64 `json:"electricityDeliveredTariff1"`
	ElectricityDeliveredTariff2 float64 `json:"electricityDeliveredTariff2"`
	ElectricityReturnedTariff1  float64 `json:"electricityReturnedTariff1"`
	ElectricityReturnedTariff2  float64 `json:"electricityReturnedTariff2"`
}

func longTermEntriesToJSON(entries []snapshot.LongTermEntry) []longTermEntryJSON {
	out := make([]longTermEntryJSON, len(entries))
	for i, e := range entries {
		out[i] = longTermEntryJSON{
			Timestamp:                   epochSeconds(e.Timestamp),
			ElectricityDeliveredTariff1: float64(e.DeliveredT1Mi) / 1000,
			ElectricityDeliveredTariff2: float64(e.DeliveredT2Mi) / 1000,
			ElectricityReturnedTariff1:  float64(e.ReturnedT1Mi) / 1000,
			ElectricityReturnedTariff2:  float64(e.ReturnedT2Mi) / 1000,
		}
	}
	return out
}

type meterDataHistoryJSON struct {
	MaxDemandYear     []demandEntryJSON    `json:"maxDemandYear"`
	ShortTermHistory  []shortTermEntryJSON `json:"shortTermHistory"`
	LongTermHistory   []longTermEntryJSON  `json:"longTermHistory"`
}
