package particle

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/pthm-cable/cells/world"
)

// script replays fixed draws, then repeats the last one.
type script struct {
	draws []float64
	i     int
}

func (s *script) Float64() float64 {
	v := s.draws[s.i]
	if s.i < len(s.draws)-1 {
		s.i++
	}
	return v
}

const (
	drawLeft  = 0.1 // m <= p with p = 0.5
	drawRight = 0.9 // m > p
)

func newLocked(t *testing.T, cells, particles int) *world.Locked {
	t.Helper()
	w, err := world.NewLocked(cells, particles)
	if err != nil {
		t.Fatal(err)
	}
	return w
}

func TestNextDirection(t *testing.T) {
	w := New(0, newLocked(t, 5, 1), nil, 0.5, time.Millisecond)
	w.cell = 2

	tests := []struct {
		m    float64
		want int
	}{
		{0.0, 1},
		{0.5, 1}, // m == p goes left
		{0.5000001, 3},
		{0.999, 3},
	}
	for _, tt := range tests {
		if got := w.Next(tt.m); got != tt.want {
			t.Errorf("Next(%v) = %d, want %d", tt.m, got, tt.want)
		}
	}
}

func TestNextBiasExtremes(t *testing.T) {
	w := New(0, newLocked(t, 5, 1), nil, 1.0, time.Millisecond)
	w.cell = 2
	// p = 1: no draw in [0,1) exceeds p, always left
	if got := w.Next(0.9999); got != 1 {
		t.Errorf("p=1: got %d, want 1", got)
	}

	w.rightBias = 0
	if got := w.Next(0.0001); got != 3 {
		t.Errorf("p=0: got %d, want 3", got)
	}
}

func TestBoundaryStaysPut(t *testing.T) {
	lw := newLocked(t, 4, 3)

	// Left edge: a left draw at cell 0 stays at 0
	left := New(0, lw, &script{draws: []float64{drawLeft}}, 0.5, time.Millisecond)
	if err := left.Step(); err != nil {
		t.Fatal(err)
	}
	if left.Cell() != 0 {
		t.Errorf("left edge: cell = %d, want 0", left.Cell())
	}
	if got := lw.Snapshot(); got[0] != 3 {
		t.Errorf("left edge changed counts: %v", got)
	}

	// Walk one particle to the right edge, then draw right again
	right := New(1, lw, &script{draws: []float64{drawRight}}, 0.5, time.Millisecond)
	for i := 0; i < 3; i++ {
		if err := right.Step(); err != nil {
			t.Fatal(err)
		}
	}
	if right.Cell() != 3 {
		t.Fatalf("expected cell 3, got %d", right.Cell())
	}
	before := lw.Snapshot()
	if err := right.Step(); err != nil {
		t.Fatal(err)
	}
	if right.Cell() != 3 {
		t.Errorf("right edge: cell = %d, want 3", right.Cell())
	}
	after := lw.Snapshot()
	for i := range before {
		if before[i] != after[i] {
			t.Errorf("right edge changed counts: %v -> %v", before, after)
			break
		}
	}
	if right.Steps() != 4 {
		t.Errorf("steps = %d, want 4", right.Steps())
	}
}

// countingWorld records every transfer so tests can see no-op moves.
type countingWorld struct {
	world.World
	mu    sync.Mutex
	moves [][2]int
}

func (c *countingWorld) Transfer(from, to int) error {
	c.mu.Lock()
	c.moves = append(c.moves, [2]int{from, to})
	c.mu.Unlock()
	return c.World.Transfer(from, to)
}

func TestStayPutRoutesThroughTransfer(t *testing.T) {
	cw := &countingWorld{World: newLocked(t, 1, 1)}
	w := New(0, cw, &script{draws: []float64{drawLeft, drawRight}}, 0.5, time.Millisecond)

	for i := 0; i < 2; i++ {
		if err := w.Step(); err != nil {
			t.Fatal(err)
		}
	}
	if len(cw.moves) != 2 {
		t.Fatalf("expected 2 transfers, got %d", len(cw.moves))
	}
	for _, m := range cw.moves {
		if m != [2]int{0, 0} {
			t.Errorf("expected self transfer, got %v", m)
		}
	}
}

type failingWorld struct{ world.World }

func (failingWorld) Transfer(from, to int) error {
	return world.ErrOutOfRange
}

func TestStepPropagatesContractError(t *testing.T) {
	w := New(7, failingWorld{newLocked(t, 2, 1)}, &script{draws: []float64{drawRight}}, 0.5, time.Millisecond)
	err := w.Step()
	if !errors.Is(err, world.ErrOutOfRange) {
		t.Fatalf("expected ErrOutOfRange, got %v", err)
	}
	if w.Cell() != 0 || w.Steps() != 0 {
		t.Errorf("failed step must not move the walker")
	}
}

func TestRunHonorsStopFlag(t *testing.T) {
	const interval = 5 * time.Millisecond
	lw := newLocked(t, 10, 4)

	var stop atomic.Bool
	walkers := make([]*Walker, 4)
	var wg sync.WaitGroup
	errs := make(chan error, len(walkers))
	for i := range walkers {
		walkers[i] = New(i, lw, NewRNG(1, i), 0.5, interval)
		wg.Add(1)
		go func(w *Walker) {
			defer wg.Done()
			errs <- w.Run(context.Background(), &stop)
		}(walkers[i])
	}

	time.Sleep(10 * interval)
	stop.Store(true)

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(20 * interval):
		t.Fatal("walkers did not stop after the flag was set")
	}
	close(errs)
	for err := range errs {
		if err != nil {
			t.Errorf("unexpected error: %v", err)
		}
	}

	total := 0
	for _, c := range lw.Snapshot() {
		total += c
	}
	if total != 4 {
		t.Errorf("total = %d, want 4", total)
	}
	for _, w := range walkers {
		if w.State() != StateStopped {
			t.Errorf("walker %d state %s", w.ID, w.State())
		}
		if w.Steps() == 0 {
			t.Errorf("walker %d never stepped", w.ID)
		}
	}
}

func TestRunCancelledDuringPause(t *testing.T) {
	lw := newLocked(t, 3, 1)
	w := New(0, lw, NewRNG(3, 0), 0.5, time.Hour)

	ctx, cancel := context.WithCancel(context.Background())
	var stop atomic.Bool
	errc := make(chan error, 1)
	go func() { errc <- w.Run(ctx, &stop) }()

	time.Sleep(5 * time.Millisecond)
	cancel()

	select {
	case err := <-errc:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("expected context.Canceled, got %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("cancellation did not interrupt the pause")
	}
	if w.Steps() != 1 {
		t.Errorf("steps = %d, want 1", w.Steps())
	}
}

func TestNewRNGIndependentStreams(t *testing.T) {
	a, b := NewRNG(42, 0), NewRNG(42, 1)
	same := 0
	for i := 0; i < 16; i++ {
		if a.Float64() == b.Float64() {
			same++
		}
	}
	if same == 16 {
		t.Error("walkers 0 and 1 drew identical sequences")
	}

	c, d := NewRNG(42, 5), NewRNG(42, 5)
	for i := 0; i < 16; i++ {
		if c.Float64() != d.Float64() {
			t.Fatal("same seed and id should reproduce the sequence")
		}
	}
}
