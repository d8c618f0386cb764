package world

import "sync"

// Locked is a World with one mutex per cell.
//
// Lock order: whenever more than one guard is held, guards are acquired in
// ascending index order. Transfer, Snapshot and every future multi-cell
// operation must follow it; a single violation reintroduces deadlock.
type Locked struct {
	cells  []int
	guards []sync.Mutex // guards[i] protects cells[i]
}

// NewLocked creates a per-cell locked world with every particle in cell 0.
func NewLocked(cells, particles int) (*Locked, error) {
	c, err := initialCells(cells, particles)
	if err != nil {
		return nil, err
	}
	return &Locked{
		cells:  c,
		guards: make([]sync.Mutex, cells),
	}, nil
}

// lockPair acquires the guards of a and b, lower index first. Equal indices
// take a single guard. It returns the ordered pair for unlockPair.
func (l *Locked) lockPair(a, b int) (lo, hi int) {
	lo, hi = a, b
	if hi < lo {
		lo, hi = hi, lo
	}
	l.guards[lo].Lock()
	if hi != lo {
		l.guards[hi].Lock()
	}
	return lo, hi
}

// unlockPair releases guards taken by lockPair, in reverse order.
func (l *Locked) unlockPair(lo, hi int) {
	if hi != lo {
		l.guards[hi].Unlock()
	}
	l.guards[lo].Unlock()
}

// Transfer moves one particle from cell from to cell to while holding both
// guards, so no reader observes the decrement without the increment.
func (l *Locked) Transfer(from, to int) error {
	if err := checkPair(from, to, len(l.cells)); err != nil {
		return err
	}

	lo, hi := l.lockPair(from, to)
	l.cells[from]--
	l.cells[to]++
	l.unlockPair(lo, hi)
	return nil
}

// Read returns cells[i] under guard i.
func (l *Locked) Read(i int) (int, error) {
	if err := checkIndex(i, len(l.cells)); err != nil {
		return 0, err
	}
	l.guards[i].Lock()
	v := l.cells[i]
	l.guards[i].Unlock()
	return v, nil
}

// Snapshot holds every guard, taken in ascending order, while it copies the
// counts. The copy always sums to K.
func (l *Locked) Snapshot() []int {
	for i := range l.guards {
		l.guards[i].Lock()
	}
	out := make([]int, len(l.cells))
	copy(out, l.cells)
	for i := len(l.guards) - 1; i >= 0; i-- {
		l.guards[i].Unlock()
	}
	return out
}

// Len returns the number of cells.
func (l *Locked) Len() int {
	return len(l.cells)
}
