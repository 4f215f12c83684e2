package normalize

import "sort"

// Row is a single embedding produced by a provider call, tagged with the
// source input position it came from. Sub orders multiple rows born from one
// input (video segmentation).
type Row struct {
	Index    int
	Sub      int
	Vector   []float32
	StartSec float64
	EndSec   float64
	Segment  bool
}

// Assembler collects rows from concurrent provider calls and emits them in
// caller order with contiguous final indices.
type Assembler struct {
	rows []Row
}

func (a *Assembler) Add(rows ...Row) {
	a.rows = append(a.rows, rows...)
}

// Rows returns all collected rows sorted by (source index, sub index), with
// final indices rewritten to 0..n-1.
func (a *Assembler) Rows() []Row {
	out := make([]Row, len(a.rows))
	copy(out, a.rows)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Index != out[j].Index {
			return out[i].Index < out[j].Index
		}
		return out[i].Sub < out[j].Sub
	})
	for i := range out {
		out[i].Index = i
		out[i].Sub = 0
	}
	return out
}

// Len reports the number of rows collected so far.
func (a *Assembler) Len() int { return len(a.rows) }
