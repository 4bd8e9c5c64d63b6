package format

import (
	"context"

	"github.com/nikandfor/hacked/hfmt"
	"tlog.app/go/errors"

	"github.com/slowlang/rvasm/assembler/symtab"
)

type (
	// Order of symbols in a listing.
	Order int
)

const (
	Insertion Order = iota
	ByAddress
)

func ParseOrder(s string) (Order, error) {
	switch s {
	case "", "insertion", "source":
		return Insertion, nil
	case "address", "addr":
		return ByAddress, nil
	default:
		return 0, errors.New("unsupported order: %q", s)
	}
}

// Format appends a symbol listing of a snapshot or a table.
// Single symbols are formatted by Symbol as they need the address width.
func Format(ctx context.Context, b []byte, x any, o Order) ([]byte, error) {
	switch x := x.(type) {
	case *symtab.Snapshot:
		return formatSnapshot(ctx, b, x, o)
	case *symtab.Table:
		return formatTable(ctx, b, x, o, 0), nil
	default:
		return nil, errors.New("unsupported type: %T", x)
	}
}

func formatSnapshot(ctx context.Context, b []byte, x *symtab.Snapshot, o Order) ([]byte, error) {
	for i, name := range x.Units() {
		if i != 0 {
			b = append(b, '\n')
		}

		t := x.Unit(name)
		if t == nil {
			return nil, errors.New("unit %v: no table", name)
		}

		b = formatTable(ctx, b, t, o, 0)
	}

	if len(x.Units()) != 0 {
		b = append(b, '\n')
	}

	b = formatTable(ctx, b, x.Global(), o, 0)

	if a, ok := x.StartAddr(); ok {
		b = app(b, 0, "\nstart %v at ", x.StartLabel)
		b = appAddr(b, a, x.Width)
		b = append(b, '\n')
	}

	return b, nil
}

func formatTable(ctx context.Context, b []byte, x *symtab.Table, o Order, d int) []byte {
	b = app(b, d, "%v\n", x.Name)

	var syms []symtab.Symbol

	switch o {
	case ByAddress:
		syms = x.ByAddress()
	default:
		syms = x.All()
	}

	for _, sym := range syms {
		b = formatSymbol(b, sym, x.Width, d+1)
	}

	return b
}

// Symbol appends one listing line.
func Symbol(b []byte, x symtab.Symbol, width int) []byte {
	return formatSymbol(b, x, width, 0)
}

func formatSymbol(b []byte, x symtab.Symbol, width, d int) []byte {
	b = app(b, d, "%-16s ", x.Name)
	b = appAddr(b, x.Addr, width)
	b = app(b, 0, " %v\n", x.Kind)

	return b
}

func appAddr(b []byte, a symtab.Addr, width int) []byte {
	if width == 64 {
		return app(b, 0, "0x%016x", uint64(a))
	}

	return app(b, 0, "0x%08x", uint32(a))
}

func app(b []byte, d int, f string, args ...any) []byte {
	const tabs = "\t\t\t\t\t\t\t\t\t\t\t\t\t\t\t"
	b = append(b, tabs[:d]...)
	b = hfmt.Appendf(b, f, args...)
	return b
}
