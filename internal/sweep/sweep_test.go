package sweep

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/rs/zerolog"

	"pairs-trade-lab/internal/domain"
)

type fakeRunner struct {
	mu    sync.Mutex
	calls int
	fail  func(p domain.StrategyProfile) error
}

func (f *fakeRunner) Run(_ context.Context, p domain.StrategyProfile) (*domain.RunResult, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	if f.fail != nil {
		if err := f.fail(p); err != nil {
			return nil, err
		}
	}
	return &domain.RunResult{
		RunID:   "run",
		Profile: p,
		Metrics: &domain.Metrics{},
	}, nil
}

func testSpec() domain.SweepSpec {
	return domain.SweepSpec{
		Profile: domain.StrategyProfile{
			Pair:         domain.PairSpec{Asset1: "GLD", Asset2: "SLV"},
			ZScoreWindow: 20,
			WeightAsset1: 0.5,
			WeightAsset2: 0.5,
		},
		OpenLevels: []float64{1, 1.5},
		CostModels: []string{domain.CostModelFrictionless, domain.CostModelRealistic},
	}
}

func TestExpand_RowMajorOrder(t *testing.T) {
	spec := testSpec()
	override := 0.42
	spec.Profile.TradingCost = &override

	cells := Expand(spec)
	if len(cells) != 4 {
		t.Fatalf("expanded %d cells, want 4", len(cells))
	}

	want := []struct {
		level float64
		model string
	}{
		{1, domain.CostModelFrictionless},
		{1, domain.CostModelRealistic},
		{1.5, domain.CostModelFrictionless},
		{1.5, domain.CostModelRealistic},
	}
	for i, w := range want {
		c := cells[i]
		if c.Index != i {
			t.Errorf("cell %d: Index = %d", i, c.Index)
		}
		if c.OpenLevel != w.level || c.CostModel != w.model {
			t.Errorf("cell %d = (%v, %s), want (%v, %s)", i, c.OpenLevel, c.CostModel, w.level, w.model)
		}
		if c.Profile.CostModelID != w.model {
			t.Errorf("cell %d profile cost model = %s, want %s", i, c.Profile.CostModelID, w.model)
		}
		if c.Profile.TradingCost != nil {
			t.Errorf("cell %d kept the trading cost override", i)
		}
		if len(c.Profile.Legs) != 2 {
			t.Fatalf("cell %d has %d legs, want canonical 2", i, len(c.Profile.Legs))
		}
		if got := c.Profile.Legs[0].Lt.Open; got == nil || *got != -w.level {
			t.Errorf("cell %d long open bound = %v, want %v", i, got, -w.level)
		}
	}
}

func TestRun_CollectsEveryCell(t *testing.T) {
	r := &fakeRunner{
		fail: func(p domain.StrategyProfile) error {
			if p.CostModelID == domain.CostModelRealistic {
				return errors.New("boom")
			}
			return nil
		},
	}
	e := NewExecutor(Options{Runner: r, Workers: 4, Logger: zerolog.Nop()})

	var progressed int
	results, err := e.Run(context.Background(), testSpec(), func(done, total int, _ CellResult) {
		progressed++
		if total != 4 {
			t.Errorf("progress total = %d, want 4", total)
		}
		if done != progressed {
			t.Errorf("progress done = %d after %d callbacks", done, progressed)
		}
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if progressed != 4 {
		t.Errorf("progress fired %d times, want 4", progressed)
	}
	if r.calls != 4 {
		t.Errorf("runner called %d times, want 4", r.calls)
	}

	if len(results) != 4 {
		t.Fatalf("got %d results, want 4", len(results))
	}
	for i, res := range results {
		if res.Index != i {
			t.Errorf("result %d out of grid order: Index = %d", i, res.Index)
		}
		failing := res.CostModel == domain.CostModelRealistic
		switch {
		case failing && (res.Error == "" || res.Result != nil):
			t.Errorf("cell %d: want error only, got result=%v error=%q", i, res.Result, res.Error)
		case !failing && (res.Error != "" || res.Result == nil):
			t.Errorf("cell %d: want result only, got result=%v error=%q", i, res.Result, res.Error)
		}
	}
}

func TestRun_SingleWorkerKeepsGridOrder(t *testing.T) {
	e := NewExecutor(Options{Runner: &fakeRunner{}, Workers: 1, Logger: zerolog.Nop()})

	var order []int
	_, err := e.Run(context.Background(), testSpec(), func(_, _ int, res CellResult) {
		order = append(order, res.Index)
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	for i, idx := range order {
		if idx != i {
			t.Fatalf("completion order %v, want sequential", order)
		}
	}
}

func TestRun_InvalidSpec(t *testing.T) {
	e := NewExecutor(Options{Runner: &fakeRunner{}, Logger: zerolog.Nop()})

	spec := testSpec()
	spec.OpenLevels = nil
	if _, err := e.Run(context.Background(), spec, nil); !errors.Is(err, domain.ErrNoOpenLevels) {
		t.Errorf("Run error = %v, want %v", err, domain.ErrNoOpenLevels)
	}

	spec = testSpec()
	spec.CostModels = []string{"free-lunch"}
	if _, err := e.Run(context.Background(), spec, nil); !errors.Is(err, domain.ErrUnknownCostModel) {
		t.Errorf("Run error = %v, want %v", err, domain.ErrUnknownCostModel)
	}
}

func TestRun_CanceledContextMarksCells(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	e := NewExecutor(Options{Runner: &fakeRunner{}, Workers: 2, Logger: zerolog.Nop()})
	results, err := e.Run(ctx, testSpec(), nil)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Run error = %v, want context.Canceled", err)
	}
	if len(results) != 4 {
		t.Fatalf("got %d results, want 4", len(results))
	}
	for i, res := range results {
		if !strings.Contains(res.Error, "context canceled") {
			t.Errorf("cell %d error = %q, want context canceled", i, res.Error)
		}
	}
}
