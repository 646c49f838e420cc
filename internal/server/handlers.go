package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"pairs-trade-lab/internal/domain"
	"pairs-trade-lab/internal/runner"
	"pairs-trade-lab/internal/stats"
	"pairs-trade-lab/internal/sweep"
)

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{
		"status":  "healthy",
		"service": "pairs-trade-lab",
	})
}

// handleCreateBacktest runs one backtest synchronously and returns the full
// run result.
func (s *Server) handleCreateBacktest(w http.ResponseWriter, r *http.Request) {
	var profile domain.StrategyProfile
	if err := json.NewDecoder(r.Body).Decode(&profile); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid profile JSON: "+err.Error())
		return
	}
	if err := profile.Validate(); err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	s.metrics.RunsStarted.Inc()
	started := time.Now()
	res, err := s.runner.Run(r.Context(), profile)
	s.metrics.RecordRun(time.Since(started).Seconds(), err)
	if err != nil {
		s.writeError(w, runStatusCode(err), err.Error())
		return
	}

	s.writeJSON(w, http.StatusOK, res)
}

// handleCreateSweep starts an asynchronous sweep and returns its id.
func (s *Server) handleCreateSweep(w http.ResponseWriter, r *http.Request) {
	var spec domain.SweepSpec
	if err := json.NewDecoder(r.Body).Decode(&spec); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid sweep spec JSON: "+err.Error())
		return
	}
	if err := spec.Validate(); err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	job := newSweepJob(uuid.NewString(), spec.Size())
	s.registry.add(job)
	go s.runSweepJob(job, spec)

	s.log.Info().
		Str("sweep_id", job.id).
		Int("cells", job.total).
		Msg("sweep started")

	s.writeJSON(w, http.StatusAccepted, map[string]interface{}{
		"sweep_id": job.id,
		"status":   sweepRunning,
		"total":    job.total,
	})
}

// runSweepJob executes a sweep on a background context; the job outlives
// the request that created it.
func (s *Server) runSweepJob(job *sweepJob, spec domain.SweepSpec) {
	s.metrics.ActiveSweepWorkers.Add(float64(s.workers))
	defer s.metrics.ActiveSweepWorkers.Sub(float64(s.workers))

	_, err := s.executor.Run(context.Background(), spec, func(done, _ int, res sweep.CellResult) {
		s.metrics.RecordSweepCell(res.Error != "")
		job.progress(done, res)
	})
	job.finish(err)
}

// handleGetSweep reports a sweep's status and the results collected so far.
func (s *Server) handleGetSweep(w http.ResponseWriter, r *http.Request) {
	job, ok := s.registry.get(chi.URLParam(r, "id"))
	if !ok {
		s.writeError(w, http.StatusNotFound, "unknown sweep id")
		return
	}
	s.writeJSON(w, http.StatusOK, job.snapshot())
}

// runStatusCode maps a runner error to an HTTP status: 404 for symbols
// without data, 422 for stored data this profile cannot use, 400 for
// invalid profiles, 500 otherwise.
func runStatusCode(err error) int {
	switch {
	case errors.Is(err, runner.ErrNoBars):
		return http.StatusNotFound
	case errors.Is(err, runner.ErrNoOverlap),
		errors.Is(err, stats.ErrTooFewPoints),
		errors.Is(err, stats.ErrNonPositivePrice):
		return http.StatusUnprocessableEntity
	case errors.Is(err, domain.ErrUnknownCostModel),
		errors.Is(err, domain.ErrNegativeCost),
		errors.Is(err, domain.ErrInvalidWindow):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.log.Error().Err(err).Msg("failed to encode JSON response")
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, map[string]string{"error": message})
}
