package server

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"

	"pairs-trade-lab/internal/domain"
)

func (s *Server) setupCron(schedule, specPath string) error {
	if schedule == "" {
		return nil
	}

	s.cron = cron.New()
	_, err := s.cron.AddFunc(schedule, func() { s.runScheduledSweep(specPath) })
	if err != nil {
		return fmt.Errorf("invalid sweep schedule %q: %w", schedule, err)
	}

	s.log.Info().
		Str("schedule", schedule).
		Str("spec", specPath).
		Msg("scheduled sweep registered")
	return nil
}

// runScheduledSweep loads the sweep spec and executes it like an
// API-submitted sweep, so results are visible through the sweep endpoints.
// The spec file is re-read on every trigger; edits apply without restart.
func (s *Server) runScheduledSweep(specPath string) {
	if !s.cronMu.TryLock() {
		s.log.Warn().Msg("previous scheduled sweep still running, skipping trigger")
		return
	}
	defer s.cronMu.Unlock()

	spec, err := loadSweepSpec(specPath)
	if err != nil {
		s.log.Error().Err(err).Str("spec", specPath).Msg("scheduled sweep spec unusable")
		return
	}

	job := newSweepJob(uuid.NewString(), spec.Size())
	s.registry.add(job)
	s.log.Info().Str("sweep_id", job.id).Int("cells", job.total).Msg("scheduled sweep started")

	// Synchronous: cronMu stays held until the sweep finishes.
	s.runSweepJob(job, *spec)

	state := job.snapshot()
	failed := 0
	for _, cell := range state.Cells {
		if cell.Error != "" {
			failed++
		}
	}
	s.log.Info().
		Str("sweep_id", job.id).
		Str("status", string(state.Status)).
		Int("failed", failed).
		Msg("scheduled sweep finished")
}

func loadSweepSpec(path string) (*domain.SweepSpec, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read sweep spec: %w", err)
	}
	var spec domain.SweepSpec
	if err := json.Unmarshal(data, &spec); err != nil {
		return nil, fmt.Errorf("parse sweep spec: %w", err)
	}
	if err := spec.Validate(); err != nil {
		return nil, fmt.Errorf("validate sweep spec: %w", err)
	}
	return &spec, nil
}
