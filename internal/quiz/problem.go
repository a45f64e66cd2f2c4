package quiz

import (
	"math/rand"
	"slices"
)

type Difficulty string

const (
	Easy   Difficulty = "easy"
	Normal Difficulty = "normal"
	Hard   Difficulty = "hard"
)

type Operator string

const (
	Add Operator = "+"
	Sub Operator = "-"
)

type level struct {
	min, max int
	ops      []Operator
}

// Normal and hard share operators and differ only in operand size.
var levels = map[Difficulty]level{
	Easy:   {min: 1, max: 10, ops: []Operator{Add}},
	Normal: {min: 1, max: 20, ops: []Operator{Add, Sub}},
	Hard:   {min: 10, max: 99, ops: []Operator{Add, Sub}},
}

const (
	ChoiceCount = 4
	maxOffset   = 10
)

type Problem struct {
	A       int
	B       int
	Op      Operator
	Answer  int
	Choices []int
}

func ValidDifficulty(d Difficulty) bool {
	_, ok := levels[d]
	return ok
}

// NewProblem builds one arithmetic problem. Subtraction always has A >= B so the
// answer is never negative.
func NewProblem(rng *rand.Rand, d Difficulty) Problem {
	lv, ok := levels[d]
	if !ok {
		lv = levels[Easy]
	}
	a := lv.min + rng.Intn(lv.max-lv.min+1)
	b := lv.min + rng.Intn(lv.max-lv.min+1)
	op := lv.ops[rng.Intn(len(lv.ops))]

	p := Problem{Op: op}
	switch op {
	case Sub:
		if a < b {
			a, b = b, a
		}
		p.Answer = a - b
	default:
		p.Answer = a + b
	}
	p.A, p.B = a, b
	p.Choices = choices(rng, p.Answer)
	return p
}

// choices returns the answer plus three distinct non-negative decoys offset by
// 1..maxOffset either way, in random order.
func choices(rng *rand.Rand, answer int) []int {
	out := make([]int, 1, ChoiceCount)
	out[0] = answer
	for len(out) < ChoiceCount {
		off := rng.Intn(maxOffset) + 1
		if rng.Intn(2) == 0 {
			off = -off
		}
		c := answer + off
		if c < 0 || slices.Contains(out, c) {
			continue
		}
		out = append(out, c)
	}
	rng.Shuffle(len(out), func(i, j int) { out[i], out[j] = out[j], out[i] })
	return out
}
