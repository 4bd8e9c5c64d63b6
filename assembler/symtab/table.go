package symtab

import (
	"tlog.app/go/errors"
	"tlog.app/go/tlog"

	"github.com/slowlang/rvasm/assembler/parse"
	"github.com/slowlang/rvasm/assembler/set"
)

type (
	// Table is an ordered set of labels of one scope.
	//
	// Entries are never moved or merged.
	// Non-numeric names are unique, numeric (local) labels may repeat.
	//
	// Table is not safe for concurrent use until it's frozen.
	// After Freeze it's read-only and may be shared.
	Table struct {
		// Name is used for logs and listings only.
		Name string

		// Width is the target address width in bits.
		// It's used to interpret address text.
		Width int

		syms []Symbol
		dead set.Bitmap

		// live entry indexes by name in insertion order
		byName map[string][]int

		frozen bool
	}
)

// New creates an empty table.
// Width 0 means 32.
func New(name string, width int) *Table {
	if width == 0 {
		width = 32
	}

	return &Table{
		Name:   name,
		Width:  width,
		byName: make(map[string][]int),
	}
}

// Insert appends a new label.
// Redeclaring a non-numeric name is a *DuplicateLabelError
// and the table is left unchanged.
func (t *Table) Insert(name string, addr Addr, kind Kind, line int) error {
	if t.frozen {
		return errors.Wrap(ErrFrozen, "insert %q", name)
	}

	if name == "" {
		return ErrEmptyName
	}

	if idx := t.byName[name]; len(idx) != 0 && !IsNumeric(name) {
		return &DuplicateLabelError{
			Name:      name,
			Line:      line,
			FirstLine: t.syms[idx[0]].Line,
		}
	}

	if t.byName == nil {
		t.byName = make(map[string][]int)
	}

	sym := Symbol{
		Name: name,
		Addr: addr,
		Kind: kind,
		Line: line,
	}

	t.byName[name] = append(t.byName[name], len(t.syms))
	t.syms = append(t.syms, sym)

	tlog.V("symtab").Printw("symbol added", "table", t.Name, "sym", sym)

	return nil
}

// Remove deletes the first entry with the name.
// It's not an error if there is none.
func (t *Table) Remove(name string) error {
	if t.frozen {
		return errors.Wrap(ErrFrozen, "remove %q", name)
	}

	idx := t.byName[name]
	if len(idx) == 0 {
		return nil
	}

	t.dead.Set(idx[0])

	if len(idx) == 1 {
		delete(t.byName, name)
	} else {
		t.byName[name] = idx[1:]
	}

	tlog.V("symtab").Printw("symbol removed", "table", t.Name, "sym", t.syms[idx[0]], "dead", &t.dead)

	return nil
}

// Lookup finds the first entry with exactly that name.
func (t *Table) Lookup(name string) (Symbol, bool) {
	idx := t.byName[name]
	if len(idx) == 0 {
		return Symbol{}, false
	}

	return t.syms[idx[0]], true
}

func (t *Table) Addr(name string) (Addr, bool) {
	sym, ok := t.Lookup(name)

	return sym.Addr, ok
}

// LookupAddr finds the first entry at the address given as text.
// Malformed text finds nothing.
func (t *Table) LookupAddr(text string) (Symbol, bool) {
	x, err := parse.Int(text, t.Width)
	if err != nil {
		tlog.V("symtab").Printw("bad address text", "table", t.Name, "text", text, "err", err)
		return Symbol{}, false
	}

	return t.SymbolAt(Addr(x))
}

// SymbolAt finds the first entry at the address.
func (t *Table) SymbolAt(a Addr) (Symbol, bool) {
	for i, sym := range t.syms {
		if sym.Addr == a && !t.dead.IsSet(i) {
			return sym, true
		}
	}

	return Symbol{}, false
}

// Fixup moves every entry at original address to the replacement.
// It returns the number of entries moved.
// Nothing is at original address afterwards unless it equals the replacement.
func (t *Table) Fixup(original, replacement Addr) (n int, err error) {
	if t.frozen {
		return 0, errors.Wrap(ErrFrozen, "fixup")
	}

	for i := range t.syms {
		if t.syms[i].Addr != original || t.dead.IsSet(i) {
			continue
		}

		t.syms[i].Addr = replacement
		n++
	}

	if n != 0 {
		tlog.V("symtab").Printw("address fixed", "table", t.Name, "from", original, "to", replacement, "n", n)
	}

	return n, nil
}

// Len is the number of live entries.
func (t *Table) Len() int {
	return len(t.syms) - t.dead.Size()
}

// Clear empties the table for re-assembly.
func (t *Table) Clear() error {
	if t.frozen {
		return errors.Wrap(ErrFrozen, "clear")
	}

	tlog.V("symtab").Printw("table cleared", "table", t.Name, "entries", len(t.syms), "dead", &t.dead)

	t.syms = t.syms[:0]
	t.dead.Reset()
	clear(t.byName)

	return nil
}

// Freeze makes the table read-only.
func (t *Table) Freeze() {
	t.frozen = true
}

func (t *Table) Frozen() bool {
	return t.frozen
}

// All returns all entries in insertion order.
// The result is a copy, later changes to the table are not seen.
func (t *Table) All() []Symbol {
	return t.snapshot(func(Symbol) bool { return true })
}

func (t *Table) Data() []Symbol {
	return t.snapshot(func(s Symbol) bool { return s.Kind == Data })
}

func (t *Table) Text() []Symbol {
	return t.snapshot(func(s Symbol) bool { return s.Kind == Text })
}

func (t *Table) snapshot(f func(Symbol) bool) []Symbol {
	r := make([]Symbol, 0, t.Len())

	for i, sym := range t.syms {
		if t.dead.IsSet(i) || !f(sym) {
			continue
		}

		r = append(r, sym)
	}

	return r
}
