package abstraction

import (
	"fmt"

	"github.com/operator-framework/npdb/pkg/npdb"
)

// PerfectHash ranks assignments to the propositional variables of a
// pattern into [0, Size()). The multiplier of a variable is the product
// of the domain sizes of all variables before it.
type PerfectHash struct {
	domains     []int
	multipliers []int
	size        int
}

// NewPerfectHash returns the hash over variables with the given domain
// sizes. It fails with an *npdb.PatternTooLargeError if the number of
// assignments exceeds limit; the check is made before multiplying so
// that it cannot overflow.
func NewPerfectHash(domains []int, limit int) (*PerfectHash, error) {
	h := &PerfectHash{
		domains:     append([]int(nil), domains...),
		multipliers: make([]int, len(domains)),
		size:        1,
	}
	for i, d := range domains {
		if d < 1 {
			return nil, fmt.Errorf("variable at position %d has empty domain", i)
		}
		if h.size > limit/d {
			return nil, &npdb.PatternTooLargeError{Limit: limit}
		}
		h.multipliers[i] = h.size
		h.size *= d
	}
	if h.size > limit {
		return nil, &npdb.PatternTooLargeError{Limit: limit}
	}
	return h, nil
}

// Size is the number of distinct assignments.
func (h *PerfectHash) Size() int {
	return h.size
}

func (h *PerfectHash) Len() int {
	return len(h.domains)
}

func (h *PerfectHash) Domain(pos int) int {
	return h.domains[pos]
}

func (h *PerfectHash) Multiplier(pos int) int {
	return h.multipliers[pos]
}

// Rank returns the index of values, one value per pattern position.
func (h *PerfectHash) Rank(values []int) int {
	index := 0
	for i, v := range values {
		index += h.multipliers[i] * v
	}
	return index
}

// Value returns the value of the variable at pos in the assignment
// ranked as index.
func (h *PerfectHash) Value(index, pos int) int {
	return (index / h.multipliers[pos]) % h.domains[pos]
}

// Unrank writes the assignment ranked as index into dst.
func (h *PerfectHash) Unrank(index int, dst []int) []int {
	dst = dst[:0]
	for pos := range h.domains {
		dst = append(dst, h.Value(index, pos))
	}
	return dst
}
