package board

import (
	"errors"
	"math/bits"

	"github.com/mcoot/lightsduel/internal/model"
)

// ErrTooManySolutions is returned when enumerating would exceed the caller's limit
var ErrTooManySolutions = errors.New("solution space exceeds limit")

// bitRow is one row of the augmented matrix, packed 64 columns per word
type bitRow []uint64

func (r bitRow) get(i int) bool {
	return r[i/64]&(1<<(uint(i)%64)) != 0
}

func (r bitRow) set(i int) {
	r[i/64] |= 1 << (uint(i) % 64)
}

func (r bitRow) flip(i int) {
	r[i/64] ^= 1 << (uint(i) % 64)
}

func (r bitRow) xor(other bitRow) {
	for i := range r {
		r[i] ^= other[i]
	}
}

// Analysis is the row-echelon form of the toggle system for one target pattern.
//
// Row i of the system is cell i (row-major). Column j is 1 when pressing cell j
// changes the parity of cell i. The final column holds the target parity.
type Analysis struct {
	rows, cols int
	n          int
	matrix     []bitRow
	pivots     []int // pivot column of each of the first rank rows
	free       []int // columns with no pivot
	solvable   bool
}

// Analyze eliminates the toggle system whose target is the parity of board
func Analyze(target model.Board) (*Analysis, error) {
	if !target.IsRectangular() {
		return nil, model.ErrInvalidBoardSize
	}
	rows, cols := target.Rows(), target.Cols()
	n := rows * cols
	words := (n + 1 + 63) / 64

	matrix := make([]bitRow, n)
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			i := r*cols + c
			row := make(bitRow, words)
			row.set(i)
			if r > 0 {
				row.set(i - cols)
			}
			if r < rows-1 {
				row.set(i + cols)
			}
			if c > 0 {
				row.set(i - 1)
			}
			if c < cols-1 {
				row.set(i + 1)
			}
			if target[r][c]%2 == 1 {
				row.set(n)
			}
			matrix[i] = row
		}
	}

	a := &Analysis{rows: rows, cols: cols, n: n, matrix: matrix}
	a.eliminate()
	return a, nil
}

// eliminate reduces the matrix to row-echelon form and records pivot and free columns
func (a *Analysis) eliminate() {
	rank := 0
	for col := 0; col < a.n; col++ {
		pivot := -1
		for r := rank; r < a.n; r++ {
			if a.matrix[r].get(col) {
				pivot = r
				break
			}
		}
		if pivot < 0 {
			a.free = append(a.free, col)
			continue
		}
		a.matrix[rank], a.matrix[pivot] = a.matrix[pivot], a.matrix[rank]
		for r := rank + 1; r < a.n; r++ {
			if a.matrix[r].get(col) {
				a.matrix[r].xor(a.matrix[rank])
			}
		}
		a.pivots = append(a.pivots, col)
		rank++
	}

	// Rows below the rank have an all-zero coefficient block, so a set
	// augmented bit there raises the augmented rank above the coefficient rank.
	a.solvable = true
	for r := rank; r < a.n; r++ {
		if a.matrix[r].get(a.n) {
			a.solvable = false
			break
		}
	}
}

// Rank returns the rank of the coefficient block
func (a *Analysis) Rank() int {
	return len(a.pivots)
}

// AugmentedRank returns the rank of the augmented matrix
func (a *Analysis) AugmentedRank() int {
	if a.solvable {
		return a.Rank()
	}
	return a.Rank() + 1
}

// Solvable returns true if some toggle pattern reaches the target from all zeros
func (a *Analysis) Solvable() bool {
	return a.solvable
}

// Nullity returns the number of free variables
func (a *Analysis) Nullity() int {
	return len(a.free)
}

// Solutions enumerates every toggle pattern that reaches the target.
// Patterns are ordered by the binary value of their free-variable assignment.
// It returns ErrTooManySolutions rather than enumerate more than limit patterns.
func (a *Analysis) Solutions(limit int) ([]model.Board, error) {
	if !a.solvable {
		return nil, nil
	}
	d := a.Nullity()
	if d >= bits.UintSize-1 || 1<<d > limit {
		return nil, ErrTooManySolutions
	}

	count := 1 << d
	solutions := make([]model.Board, 0, count)
	x := make(bitRow, len(a.matrix[0]))
	for assignment := 0; assignment < count; assignment++ {
		for i := range x {
			x[i] = 0
		}
		for k, col := range a.free {
			if assignment&(1<<k) != 0 {
				x.set(col)
			}
		}
		a.backSubstitute(x)
		solutions = append(solutions, a.toBoard(x))
	}
	return solutions, nil
}

// backSubstitute fills the pivot variables of x given its free variables
func (a *Analysis) backSubstitute(x bitRow) {
	for k := len(a.pivots) - 1; k >= 0; k-- {
		p := a.pivots[k]
		row := a.matrix[k]
		v := row.get(a.n)
		for j := p + 1; j < a.n; j++ {
			if row.get(j) && x.get(j) {
				v = !v
			}
		}
		if v != x.get(p) {
			x.flip(p)
		}
	}
}

func (a *Analysis) toBoard(x bitRow) model.Board {
	b := model.NewBoard(a.rows, a.cols)
	for i := 0; i < a.n; i++ {
		if x.get(i) {
			b[i/a.cols][i%a.cols] = 1
		}
	}
	return b
}
