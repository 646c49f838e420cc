package sweep

import (
	"context"
	"runtime"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"pairs-trade-lab/internal/domain"
)

// BacktestRunner executes one strategy profile. *runner.Runner satisfies it.
type BacktestRunner interface {
	Run(ctx context.Context, profile domain.StrategyProfile) (*domain.RunResult, error)
}

// Cell is one grid point of a sweep: its coordinates and the profile
// resolved from them. Index is the row-major position, open levels outer,
// cost models inner.
type Cell struct {
	Index     int     `json:"index"`
	OpenLevel float64 `json:"open_level"`
	CostModel string  `json:"cost_model"`

	Profile domain.StrategyProfile `json:"-"`
}

// CellResult is the outcome of one cell. Exactly one of Result and Error is
// set; a failed cell never stops the rest of the grid.
type CellResult struct {
	Cell
	Result *domain.RunResult `json:"result,omitempty"`
	Error  string            `json:"error,omitempty"`
}

// Progress is called once per finished cell, in completion order, from the
// collecting goroutine. done counts finished cells, total is the grid size.
type Progress func(done, total int, res CellResult)

// Expand materializes the grid of a sweep spec. Each cell derives canonical
// long/short legs from its open level and clears any explicit trading cost
// override so the cost-model axis always takes effect.
func Expand(spec domain.SweepSpec) []Cell {
	cells := make([]Cell, 0, spec.Size())
	for _, level := range spec.OpenLevels {
		for _, model := range spec.CostModels {
			profile := spec.Profile
			profile.Legs = domain.CanonicalLegs(level)
			profile.CostModelID = model
			profile.TradingCost = nil
			cells = append(cells, Cell{
				Index:     len(cells),
				OpenLevel: level,
				CostModel: model,
				Profile:   profile,
			})
		}
	}
	return cells
}

// Executor evaluates sweep grids on a bounded pool of worker goroutines.
// Runs are independent pure functions of the stored bars, so cells can
// execute in any order; results are reassembled into grid order.
type Executor struct {
	runner  BacktestRunner
	workers int
	log     zerolog.Logger
}

// Options contains configuration for creating an Executor.
type Options struct {
	Runner BacktestRunner

	// Workers bounds the number of cells evaluated concurrently.
	// Defaults to runtime.NumCPU().
	Workers int

	Logger zerolog.Logger
}

// NewExecutor creates a sweep executor.
func NewExecutor(opts Options) *Executor {
	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	return &Executor{
		runner:  opts.Runner,
		workers: workers,
		log:     opts.Logger.With().Str("component", "sweep").Logger(),
	}
}

// Run evaluates every cell of the grid and returns the results in row-major
// order. Per-cell failures are recorded in the cell's Error and do not stop
// the grid. A canceled context marks the remaining cells canceled; the
// context error is returned after the collected results.
func (e *Executor) Run(ctx context.Context, spec domain.SweepSpec, progress Progress) ([]CellResult, error) {
	if err := spec.Validate(); err != nil {
		return nil, err
	}
	started := time.Now()
	cells := Expand(spec)

	jobs := make(chan Cell, len(cells))
	out := make(chan CellResult, len(cells))

	workers := e.workers
	if len(cells) < workers {
		workers = len(cells)
	}

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for cell := range jobs {
				out <- e.runCell(ctx, cell)
			}
		}()
	}

	for _, cell := range cells {
		jobs <- cell
	}
	close(jobs)

	go func() {
		wg.Wait()
		close(out)
	}()

	results := make([]CellResult, len(cells))
	done, failed := 0, 0
	for res := range out {
		results[res.Index] = res
		done++
		if res.Error != "" {
			failed++
		}
		if progress != nil {
			progress(done, len(cells), res)
		}
	}

	e.log.Info().
		Int("cells", len(cells)).
		Int("failed", failed).
		Int("workers", workers).
		Dur("elapsed", time.Since(started)).
		Msg("sweep complete")

	return results, ctx.Err()
}

func (e *Executor) runCell(ctx context.Context, cell Cell) CellResult {
	res := CellResult{Cell: cell}
	if err := ctx.Err(); err != nil {
		res.Error = err.Error()
		return res
	}
	run, err := e.runner.Run(ctx, cell.Profile)
	if err != nil {
		res.Error = err.Error()
		return res
	}
	res.Result = run
	return res
}
