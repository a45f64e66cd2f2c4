package bingo

import "math/rand"

const Size = 5

// MaxLines is every row, every column and both diagonals.
const MaxLines = Size + Size + 2

type Board [Size][Size]int

type Marks [Size][Size]bool

// GenerateBoard draws Size*Size distinct numbers from [1, numberRange] and lays them
// out row-major. rng.Perm already returns them shuffled.
func GenerateBoard(rng *rand.Rand, numberRange int) Board {
	var b Board
	perm := rng.Perm(numberRange)
	for i := 0; i < Size*Size; i++ {
		b[i/Size][i%Size] = perm[i] + 1
	}
	return b
}

// Mark sets every cell holding n. Marking the same number twice is a no-op.
func (b *Board) Mark(m *Marks, n int) bool {
	hit := false
	for r := 0; r < Size; r++ {
		for c := 0; c < Size; c++ {
			if b[r][c] == n {
				m[r][c] = true
				hit = true
			}
		}
	}
	return hit
}

// Lines counts fully marked rows, columns and diagonals.
func (m *Marks) Lines() int {
	lines := 0
	for r := 0; r < Size; r++ {
		full := true
		for c := 0; c < Size; c++ {
			if !m[r][c] {
				full = false
				break
			}
		}
		if full {
			lines++
		}
	}
	for c := 0; c < Size; c++ {
		full := true
		for r := 0; r < Size; r++ {
			if !m[r][c] {
				full = false
				break
			}
		}
		if full {
			lines++
		}
	}
	d1, d2 := true, true
	for i := 0; i < Size; i++ {
		if !m[i][i] {
			d1 = false
		}
		if !m[i][Size-1-i] {
			d2 = false
		}
	}
	if d1 {
		lines++
	}
	if d2 {
		lines++
	}
	return lines
}

func (b *Board) Rows() [][]int {
	out := make([][]int, Size)
	for r := range b {
		out[r] = append([]int(nil), b[r][:]...)
	}
	return out
}

func (m *Marks) Rows() [][]bool {
	out := make([][]bool, Size)
	for r := range m {
		out[r] = append([]bool(nil), m[r][:]...)
	}
	return out
}
