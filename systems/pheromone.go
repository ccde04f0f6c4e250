package systems

// PheromoneField is a uniform grid of trail intensity over the world bounds.
// Cell intensities are never negative. Coordinates outside the world are
// clamped to the nearest edge cell, so agents that drift past the bounds
// still mark and sense the border cells.
type PheromoneField struct {
	cellSize float64
	cols     int
	rows     int
	cells    []float64 // row-major: row*cols + col
}

// NewPheromoneField creates a zeroed field covering width x height.
// The grid is width/cellSize by height/cellSize cells (integer division).
func NewPheromoneField(width, height, cellSize float64) *PheromoneField {
	cols := int(width / cellSize)
	rows := int(height / cellSize)
	if cols < 1 {
		cols = 1
	}
	if rows < 1 {
		rows = 1
	}
	return &PheromoneField{
		cellSize: cellSize,
		cols:     cols,
		rows:     rows,
		cells:    make([]float64, cols*rows),
	}
}

// cellIndex returns the flat index for a world position.
func (f *PheromoneField) cellIndex(x, y float64) int {
	col := clampInt(int(x/f.cellSize), f.cols)
	row := clampInt(int(y/f.cellSize), f.rows)
	return row*f.cols + col
}

// Deposit adds amount to the cell containing (x, y). Non-positive amounts are ignored.
func (f *PheromoneField) Deposit(x, y, amount float64) {
	if amount <= 0 {
		return
	}
	f.cells[f.cellIndex(x, y)] += amount
}

// Decay multiplies every cell by 1-rate. Rate is clamped to [0, 1].
func (f *PheromoneField) Decay(rate float64) {
	keep := 1 - clampFloat(rate, 0, 1)
	if keep == 1 {
		return
	}
	for i := range f.cells {
		f.cells[i] *= keep
	}
}

// Sample returns the intensity of the cell containing (x, y).
func (f *PheromoneField) Sample(x, y float64) float64 {
	return f.cells[f.cellIndex(x, y)]
}

// Reset zeroes all cells.
func (f *PheromoneField) Reset() {
	clear(f.cells)
}

// GridSize returns the number of columns and rows.
func (f *PheromoneField) GridSize() (cols, rows int) {
	return f.cols, f.rows
}

// CellSize returns the cell edge length in world units.
func (f *PheromoneField) CellSize() float64 {
	return f.cellSize
}

// Total returns the summed intensity over the grid.
func (f *PheromoneField) Total() float64 {
	var sum float64
	for _, v := range f.cells {
		sum += v
	}
	return sum
}

// CopyGrid returns a row-major copy of the cells.
func (f *PheromoneField) CopyGrid() []float64 {
	out := make([]float64, len(f.cells))
	copy(out, f.cells)
	return out
}

// Deposit is one staged pheromone mark.
type Deposit struct {
	X, Y, Amount float64
}

// PendingDeposits stages marks made during the agent phase of a tick.
// Committing after every agent has moved keeps sensing lock-step: no agent
// sees trail laid by another agent in the same tick.
type PendingDeposits struct {
	items []Deposit
}

// Add stages a deposit.
func (p *PendingDeposits) Add(x, y, amount float64) {
	p.items = append(p.items, Deposit{X: x, Y: y, Amount: amount})
}

// Len returns the number of staged deposits.
func (p *PendingDeposits) Len() int {
	return len(p.items)
}

// Commit applies every staged deposit to f and empties the buffer.
func (p *PendingDeposits) Commit(f *PheromoneField) {
	for _, d := range p.items {
		f.Deposit(d.X, d.Y, d.Amount)
	}
	p.items = p.items[:0]
}
