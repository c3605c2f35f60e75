package model

// Board is a row-major grid of cell charges: Board[row][col].
// Only a cell's parity matters to the game; the magnitude grows with every
// toggle and is never reset.
type Board [][]uint32

// NewBoard creates a zeroed board with the given dimensions
func NewBoard(rows, cols int) Board {
	b := make(Board, rows)
	for i := range b {
		b[i] = make([]uint32, cols)
	}
	return b
}

// Rows returns the number of rows
func (b Board) Rows() int {
	return len(b)
}

// Cols returns the number of columns, or 0 for an empty board
func (b Board) Cols() int {
	if len(b) == 0 {
		return 0
	}
	return len(b[0])
}

// Cells returns the total number of cells
func (b Board) Cells() int {
	return b.Rows() * b.Cols()
}

// IsRectangular returns true if the board is non-empty and every row has the same width
func (b Board) IsRectangular() bool {
	if len(b) == 0 || len(b[0]) == 0 {
		return false
	}
	for _, row := range b {
		if len(row) != len(b[0]) {
			return false
		}
	}
	return true
}

// SameShape returns true if both boards are rectangular with equal dimensions
func (b Board) SameShape(other Board) bool {
	return b.IsRectangular() && other.IsRectangular() &&
		b.Rows() == other.Rows() && b.Cols() == other.Cols()
}

// InBounds returns true if (row, col) addresses a cell on the board
func (b Board) InBounds(row, col int) bool {
	return row >= 0 && row < b.Rows() && col >= 0 && col < len(b[row])
}

// Toggle presses the cell at (row, col), charging it and its orthogonal neighbours
func (b Board) Toggle(row, col int) error {
	if !b.InBounds(row, col) {
		return ErrInvalidPosition
	}
	b[row][col]++
	for _, d := range [4][2]int{{-1, 0}, {1, 0}, {0, -1}, {0, 1}} {
		r, c := row+d[0], col+d[1]
		if b.InBounds(r, c) {
			b[r][c]++
		}
	}
	return nil
}

// Parity returns the board reduced mod 2
func (b Board) Parity() Board {
	p := make(Board, len(b))
	for i, row := range b {
		p[i] = make([]uint32, len(row))
		for j, v := range row {
			p[i][j] = v % 2
		}
	}
	return p
}

// AllEven returns true if every cell has even parity.
// An empty board is neither all-even nor all-odd.
func (b Board) AllEven() bool {
	return b.uniformParity(0)
}

// AllOdd returns true if every cell has odd parity
func (b Board) AllOdd() bool {
	return b.uniformParity(1)
}

// IsTerminal returns true if every cell shares one parity
func (b Board) IsTerminal() bool {
	return b.AllEven() || b.AllOdd()
}

// Winner returns the slot that a terminal board awards the game to:
// PlayerOne for all-even, PlayerTwo for all-odd, NoPlayer otherwise.
func (b Board) Winner() Slot {
	switch {
	case b.AllEven():
		return PlayerOne
	case b.AllOdd():
		return PlayerTwo
	default:
		return NoPlayer
	}
}

// Clone returns a deep copy of the board
func (b Board) Clone() Board {
	if b == nil {
		return nil
	}
	c := make(Board, len(b))
	for i, row := range b {
		c[i] = append([]uint32(nil), row...)
	}
	return c
}

func (b Board) uniformParity(want uint32) bool {
	if b.Cells() == 0 {
		return false
	}
	for _, row := range b {
		for _, v := range row {
			if v%2 != want {
				return false
			}
		}
	}
	return true
}
