package httpapi

import (
	"context"
	"net/http"
	"runtime"

	"github.com/kwartiwi/p1sensor/pkg/p1/snapshot"
	"github.com/kwartiwi/p1sensor/pkg/predictor"
)

func (s *Server) handleVersion(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"version": APIVersion})
}

// handleSystemInfo reports the running binary's core count, grounded on
// system_info_get_handler's esp_chip_info call. runtime.NumCPU stands in
// for the ESP32's fixed core count on whatever host this binary runs on.
func (s *Server) handleSystemInfo(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"version": FirmwareVersion,
		"cores":   runtime.NumCPU(),
	})
}

func (s *Server) withTimeout(r *http.Request) (context.Context, context.CancelFunc) {
	return context.WithTimeout(r.Context(), s.lockTimeout)
}

func (s *Server) handleP1DataBasic(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := s.withTimeout(r)
	defer cancel()

	var body basicDataJSON
	if err := s.store.ReadSnapshot(ctx, func(snap snapshot.Snapshot) {
		body = basicDataToJSON(snap)
	}); err != nil {
		s.writeError(w, http.StatusInternalServerError, "timed out acquiring snapshot lock")
		return
	}
	s.writeJSON(w, http.StatusOK, body)
}

func (s *Server) handleP1DataComplete(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := s.withTimeout(r)
	defer cancel()

	var body completeDataJSON
	if err := s.store.ReadSnapshot(ctx, func(snap snapshot.Snapshot) {
		body = completeDataToJSON(snap)
	}); err != nil {
		s.writeError(w, http.StatusInternalServerError, "timed out acquiring snapshot lock")
		return
	}
	s.writeJSON(w, http.StatusOK, body)
}

// handleMeterData merges the basic snapshot with the monthly peak and the
// predictor's current output, taking the snapshot lock and then the
// predictor lock in that order, grounded on get_meter_data.
func (s *Server) handleMeterData(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := s.withTimeout(r)
	defer cancel()

	var basic basicDataJSON
	var maxMonth demandEntryJSON
	if err := s.store.ReadSnapshot(ctx, func(snap snapshot.Snapshot) {
		basic = basicDataToJSON(snap)
		maxMonth = demandEntryToJSON(snap.MaxDemandMonth)
	}); err != nil {
		s.writeError(w, http.StatusInternalServerError, "timed out acquiring snapshot lock")
		return
	}

	peak, err := s.store.PredictedPeak(ctx)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, "timed out acquiring predictor lock")
		return
	}

	s.writeJSON(w, http.StatusOK, meterDataJSON{
		basicDataJSON:     basic,
		MaxDemandMonth:    maxMonth,
		PredictedPeak:     peak.ValueKW,
		PredictedPeakTime: epochSeconds(peak.EndOfQuarterTime),
	})
}

// handleMeterDataHistory returns the yearly peak demand array plus both
// ring-buffer histories, in chronological order, the short-term history
// starting at the predictor's own alignment index per the read API's
// description of get_meter_data_history.
func (s *Server) handleMeterDataHistory(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := s.withTimeout(r)
	defer cancel()

	var maxYear []demandEntryJSON
	if err := s.store.ReadSnapshot(ctx, func(snap snapshot.Snapshot) {
		maxYear = demandEntriesToJSON(snap.MaxDemandYearEntries())
	}); err != nil {
		s.writeError(w, http.StatusInternalServerError, "timed out acquiring snapshot lock")
		return
	}

	short, err := s.store.SnapshotShortTerm(ctx)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, "timed out acquiring short-term log lock")
		return
	}
	if k := predictor.AlignmentIndex(short); k < len(short) {
		short = short[k:]
	}

	long, err := s.store.SnapshotLongTerm(ctx)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, "timed out acquiring long-term log lock")
		return
	}

	s.writeJSON(w, http.StatusOK, meterDataHistoryJSON{
		MaxDemandYear:    maxYear,
		ShortTermHistory: shortTermEntriesToJSON(short),
		LongTermHistory:  longTermEntriesToJSON(long),
	})
}
