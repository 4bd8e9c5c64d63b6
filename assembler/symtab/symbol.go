package symtab

import (
	"tlog.app/go/tlog/tlwire"
)

type (
	// Addr is a target address.
	// Addresses of 32-bit targets are kept sign-extended,
	// the way the target holds them in a register.
	Addr int64

	// Kind is the segment a symbol was declared in.
	Kind uint8

	Symbol struct {
		Name string
		Addr Addr
		Kind Kind

		// Line is the 1-based source line of the declaration.
		// Only local label search looks at it.
		Line int
	}
)

const (
	Text Kind = iota
	Data
)

func (k Kind) String() string {
	switch k {
	case Text:
		return "text"
	case Data:
		return "data"
	default:
		return "kind(?)"
	}
}

// IsNumeric reports whether the name is a scoped local label name,
// which may be declared more than once.
func IsNumeric(name string) bool {
	return name != "" && name[0] >= '0' && name[0] <= '9'
}

func (s Symbol) TlogAppend(b []byte) []byte {
	var e tlwire.Encoder

	b = e.AppendMap(b, 4)

	b = e.AppendKey(b, "name")
	b = e.AppendString(b, s.Name)
	b = e.AppendKeyInt64(b, "addr", int64(s.Addr))
	b = e.AppendKey(b, "kind")
	b = e.AppendString(b, s.Kind.String())
	b = e.AppendKeyInt(b, "line", s.Line)

	return b
}
