package symtab

type (
	// Scope resolves names the way the encoder sees them in one unit:
	// unit labels shadow global ones.
	// Either table may be nil.
	Scope struct {
		Local  *Table
		Global *Table
	}
)

// Resolve resolves a name referenced at the source line.
// Local labels are searched in the unit only.
func (s Scope) Resolve(name string, line int) (Addr, bool) {
	if s.Local != nil {
		if a, ok := s.Local.ResolveLocal(name, line); ok {
			return a, true
		}
	}

	if s.Global != nil {
		return s.Global.Addr(name)
	}

	return 0, false
}

func (s Scope) Lookup(name string) (Symbol, bool) {
	if s.Local != nil {
		if sym, ok := s.Local.Lookup(name); ok {
			return sym, true
		}
	}

	if s.Global != nil {
		return s.Global.Lookup(name)
	}

	return Symbol{}, false
}

// LookupAddr finds the symbol at the address given as text,
// preferring the unit name over a global alias.
func (s Scope) LookupAddr(text string) (Symbol, bool) {
	if s.Local != nil {
		if sym, ok := s.Local.LookupAddr(text); ok {
			return sym, true
		}
	}

	if s.Global != nil {
		return s.Global.LookupAddr(text)
	}

	return Symbol{}, false
}

func (s Scope) SymbolAt(a Addr) (Symbol, bool) {
	if s.Local != nil {
		if sym, ok := s.Local.SymbolAt(a); ok {
			return sym, true
		}
	}

	if s.Global != nil {
		return s.Global.SymbolAt(a)
	}

	return Symbol{}, false
}
