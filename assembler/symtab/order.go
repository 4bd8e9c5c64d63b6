package symtab

import (
	"nikand.dev/go/heap"
)

// ByAddress returns all entries in ascending unsigned address order.
// Entries at the same address keep insertion order.
// Like All it returns a copy.
func (t *Table) ByAddress() []Symbol {
	syms := t.snapshot(func(Symbol) bool { return true })
	mask := addrMask(t.Width)

	h := heap.Heap[int]{
		Less: func(d []int, i, j int) bool {
			a, b := uint64(syms[d[i]].Addr)&mask, uint64(syms[d[j]].Addr)&mask
			if a != b {
				return a < b
			}

			return d[i] < d[j]
		},
	}

	for i := range syms {
		h.Push(i)
	}

	r := make([]Symbol, 0, len(syms))

	for h.Len() != 0 {
		r = append(r, syms[h.Pop()])
	}

	return r
}

func addrMask(width int) uint64 {
	if width <= 0 || width >= 64 {
		return ^uint64(0)
	}

	return 1<<width - 1
}
