package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/arunkumar-mourougappane/ast-space-mobile-telemetry/internal/pipeline"
	"github.com/arunkumar-mourougappane/ast-space-mobile-telemetry/internal/report"
	"github.com/arunkumar-mourougappane/ast-space-mobile-telemetry/internal/store"
	"github.com/arunkumar-mourougappane/ast-space-mobile-telemetry/internal/trajectory"
)

const (
	defaultSampleLimit = 1000
	// maxSampleLimit bounds one samples response; a five-day run at 5 s is
	// over 100k samples per satellite.
	maxSampleLimit = 20000

	defaultRunLimit = 20
	maxRunLimit     = 500
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func latestRunHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		res := svc.Latest()
		if res == nil {
			writeError(w, http.StatusServiceUnavailable, "no run available yet")
			return
		}
		writeJSON(w, http.StatusOK, res)
	}
}

// createRunHandler runs the pipeline synchronously. Optional start and end
// query parameters (RFC 3339) override the configured window.
func createRunHandler(svc *Service, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var start, end time.Time
		for _, p := range []struct {
			key string
			dst *time.Time
		}{{"start", &start}, {"end", &end}} {
			v := r.URL.Query().Get(p.key)
			if v == "" {
				continue
			}
			t, err := time.Parse(time.RFC3339, v)
			if err != nil {
				writeError(w, http.StatusBadRequest, "invalid "+p.key+" parameter, must be RFC 3339")
				return
			}
			*p.dst = t
		}

		res, err := svc.Refresh(r.Context(), start, end)
		switch {
		case errors.Is(err, ErrRunInProgress):
			writeError(w, http.StatusConflict, err.Error())
			return
		case errors.Is(err, trajectory.ErrInvalidInput):
			writeError(w, http.StatusBadRequest, err.Error())
			return
		case err != nil:
			logger.Error("run failed", "component", "api", "error", err)
			writeError(w, http.StatusInternalServerError, "run failed")
			return
		}
		writeJSON(w, http.StatusCreated, res)
	}
}

// satellite resolves the {norad_id} path value against the latest run and
// writes the error response itself when it cannot.
func satellite(w http.ResponseWriter, r *http.Request, svc *Service) (*pipeline.Result, *pipeline.SatelliteResult, bool) {
	id, err := strconv.Atoi(r.PathValue("norad_id"))
	if err != nil || id < 1 {
		writeError(w, http.StatusBadRequest, "invalid norad_id")
		return nil, nil, false
	}
	res := svc.Latest()
	if res == nil {
		writeError(w, http.StatusServiceUnavailable, "no run available yet")
		return nil, nil, false
	}
	sr, ok := res.Satellite(id)
	if !ok {
		writeError(w, http.StatusNotFound, "satellite not in the latest run")
		return nil, nil, false
	}
	return res, sr, true
}

type samplesResponse struct {
	RunID   string           `json:"run_id"`
	NORADID int              `json:"norad_id"`
	Name    string           `json:"name"`
	Total   int              `json:"total"`
	Offset  int              `json:"offset"`
	Samples []map[string]any `json:"samples"`
	Error   string           `json:"error,omitempty"`
}

// samplesHandler pages through a satellite's samples. visible=true keeps
// only samples above the horizon.
func samplesHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		limit := defaultSampleLimit
		if v := q.Get("limit"); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil || n < 1 {
				writeError(w, http.StatusBadRequest, "invalid limit parameter, must be a positive integer")
				return
			}
			if n > maxSampleLimit {
				writeJSON(w, http.StatusBadRequest, map[string]any{
					"error":     "limit exceeds the per-request maximum",
					"max_limit": maxSampleLimit,
				})
				return
			}
			limit = n
		}
		offset := 0
		if v := q.Get("offset"); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil || n < 0 {
				writeError(w, http.StatusBadRequest, "invalid offset parameter, must be a non-negative integer")
				return
			}
			offset = n
		}
		visibleOnly := false
		if v := q.Get("visible"); v != "" {
			b, err := strconv.ParseBool(v)
			if err != nil {
				writeError(w, http.StatusBadRequest, "invalid visible parameter, must be a boolean")
				return
			}
			visibleOnly = b
		}

		res, sr, ok := satellite(w, r, svc)
		if !ok {
			return
		}

		samples := sr.Samples
		if visibleOnly {
			samples = make([]trajectory.Sample, 0, sr.Stats.VisibleSamples)
			for _, s := range sr.Samples {
				if s.Visible {
					samples = append(samples, s)
				}
			}
		}

		out := samplesResponse{
			RunID:   res.RunID.String(),
			NORADID: sr.Satellite.NORADID,
			Name:    sr.Satellite.Name,
			Total:   len(samples),
			Offset:  offset,
			Samples: []map[string]any{},
			Error:   sr.Err,
		}
		if offset < len(samples) {
			page := samples[offset:min(offset+limit, len(samples))]
			out.Samples = make([]map[string]any, len(page))
			for i, s := range page {
				out.Samples[i] = report.SampleRecord(s)
			}
		}
		writeJSON(w, http.StatusOK, out)
	}
}

type passesResponse struct {
	RunID   string           `json:"run_id"`
	NORADID int              `json:"norad_id"`
	Name    string           `json:"name"`
	Passes  []map[string]any `json:"passes"`
	Error   string           `json:"error,omitempty"`
}

func passesHandler(svc *Service, loc *time.Location) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		res, sr, ok := satellite(w, r, svc)
		if !ok {
			return
		}
		out := passesResponse{
			RunID:   res.RunID.String(),
			NORADID: sr.Satellite.NORADID,
			Name:    sr.Satellite.Name,
			Passes:  make([]map[string]any, len(sr.Summaries)),
			Error:   sr.Err,
		}
		for i, sum := range sr.Summaries {
			out.Passes[i] = report.PassRecord(i+1, sum, loc)
		}
		writeJSON(w, http.StatusOK, out)
	}
}

type runsResponse struct {
	Runs []store.RunSummary `json:"runs"`
}

// listRunsHandler lists archived runs, newest first.
func listRunsHandler(svc *Service, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc.archive == nil {
			writeError(w, http.StatusNotFound, "run archive is not configured")
			return
		}
		limit := defaultRunLimit
		if v := r.URL.Query().Get("limit"); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil || n < 1 || n > maxRunLimit {
				writeError(w, http.StatusBadRequest, "invalid limit parameter, must be between 1 and "+strconv.Itoa(maxRunLimit))
				return
			}
			limit = n
		}

		runs, err := svc.archive.ListRuns(r.Context(), limit)
		if err != nil {
			logger.Error("listing runs failed", "component", "api", "error", err)
			writeError(w, http.StatusInternalServerError, "listing runs failed")
			return
		}
		if runs == nil {
			runs = []store.RunSummary{}
		}
		writeJSON(w, http.StatusOK, runsResponse{Runs: runs})
	}
}

type archivedPassesResponse struct {
	RunID string `json:"run_id"`
	// InPassSamples counts the archived in-pass samples per catalog id.
	InPassSamples map[int]int      `json:"in_pass_samples"`
	Passes        []map[string]any `json:"passes"`
}

// archivedPassesHandler reads a past run's passes from the archive. An
// optional norad_id query parameter restricts them to one satellite.
func archivedPassesHandler(svc *Service, loc *time.Location, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc.archive == nil {
			writeError(w, http.StatusNotFound, "run archive is not configured")
			return
		}
		runID, err := uuid.Parse(r.PathValue("run_id"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid run_id")
			return
		}
		noradID := 0
		if v := r.URL.Query().Get("norad_id"); v != "" {
			if noradID, err = strconv.Atoi(v); err != nil || noradID < 1 {
				writeError(w, http.StatusBadRequest, "invalid norad_id parameter")
				return
			}
		}

		stored, err := svc.archive.LoadPasses(r.Context(), runID, noradID)
		switch {
		case errors.Is(err, store.ErrRunNotFound):
			writeError(w, http.StatusNotFound, "run not in the archive")
			return
		case err != nil:
			logger.Error("loading passes failed", "component", "api", "run_id", runID.String(), "error", err)
			writeError(w, http.StatusInternalServerError, "loading passes failed")
			return
		}

		out := archivedPassesResponse{
			RunID:         runID.String(),
			InPassSamples: map[int]int{},
			Passes:        make([]map[string]any, len(stored)),
		}
		if noradID > 0 {
			out.InPassSamples[noradID] = 0
		}
		for i, sp := range stored {
			rec := report.PassRecord(sp.Index, sp.Summary, loc)
			rec["norad_id"] = sp.NORADID
			rec["name"] = sp.Name
			out.Passes[i] = rec
			out.InPassSamples[sp.NORADID] = 0
		}
		for id := range out.InPassSamples {
			n, err := svc.archive.CountSamples(r.Context(), runID, id)
			if err != nil {
				logger.Error("counting samples failed", "component", "api", "run_id", runID.String(), "error", err)
				writeError(w, http.StatusInternalServerError, "loading passes failed")
				return
			}
			out.InPassSamples[id] = n
		}
		writeJSON(w, http.StatusOK, out)
	}
}
