package symtab

import (
	"cmp"
	"slices"
)

// IsLocalRef reports whether ref is a directional reference
// to a numeric local label: a digit followed by f (forward) or b (backward).
func IsLocalRef(ref string) bool {
	return len(ref) == 2 && ref[0] >= '0' && ref[0] <= '9' && (ref[1] == 'f' || ref[1] == 'b')
}

// ResolveLocal resolves a label referenced at the source line.
//
// For "Nf" it's the first declaration of label N strictly after the line.
// For "Nb" it's the last declaration of label N at or before the line,
// so a label may refer back to itself but never forward to itself.
// Declarations on the same line keep the order they were added in.
//
// Any other ref is looked up by name.
func (t *Table) ResolveLocal(ref string, line int) (Addr, bool) {
	if !IsLocalRef(ref) {
		return t.Addr(ref)
	}

	decls := slices.Clone(t.byName[ref[:1]])

	slices.SortStableFunc(decls, func(a, b int) int {
		return cmp.Compare(t.syms[a].Line, t.syms[b].Line)
	})

	if ref[1] == 'f' {
		for _, i := range decls {
			if t.syms[i].Line > line {
				return t.syms[i].Addr, true
			}
		}

		return 0, false
	}

	for j := len(decls) - 1; j >= 0; j-- {
		if i := decls[j]; t.syms[i].Line <= line {
			return t.syms[i].Addr, true
		}
	}

	return 0, false
}
