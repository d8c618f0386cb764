package world

// Unsync is a World with no synchronization. Concurrent transfers touching
// the same cell may lose updates, so the total drifts from K. That drift is
// the result this variant exists to show.
type Unsync struct {
	cells []int

	// between runs after the destination count is loaded and before the
	// incremented value is stored back. Only tests set it.
	between func(from, to int)
}

// NewUnsync creates an unsynchronized world with every particle in cell 0.
func NewUnsync(cells, particles int) (*Unsync, error) {
	c, err := initialCells(cells, particles)
	if err != nil {
		return nil, err
	}
	return &Unsync{cells: c}, nil
}

// Transfer decrements cells[from] and increments cells[to] without exclusion.
func (u *Unsync) Transfer(from, to int) error {
	if err := checkPair(from, to, len(u.cells)); err != nil {
		return err
	}

	u.cells[from]--

	// Written as load/store so the lost-update window is explicit.
	v := u.cells[to]
	if u.between != nil {
		u.between(from, to)
	}
	u.cells[to] = v + 1
	return nil
}

// Read returns cells[i] without exclusion.
func (u *Unsync) Read(i int) (int, error) {
	if err := checkIndex(i, len(u.cells)); err != nil {
		return 0, err
	}
	return u.cells[i], nil
}

// Snapshot copies the counts without exclusion. The copy may be torn.
func (u *Unsync) Snapshot() []int {
	out := make([]int, len(u.cells))
	copy(out, u.cells)
	return out
}

// Len returns the number of cells.
func (u *Unsync) Len() int {
	return len(u.cells)
}
