package format

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/slowlang/rvasm/assembler/symtab"
)

func TestFormatSnapshot(t *testing.T) {
	ctx := context.Background()
	s := symtab.NewSession(symtab.Config{StartAtLabel: true})

	require.NoError(t, s.Declare(ctx, "a.s", symtab.Decl{Name: "msg", Addr: 0x10010000, Kind: symtab.Data, Line: 2}))
	require.NoError(t, s.Declare(ctx, "a.s", symtab.Decl{Name: "1", Addr: 0x400008, Kind: symtab.Text, Line: 7}))
	require.NoError(t, s.Declare(ctx, "a.s", symtab.Decl{Name: "main", Addr: 0x400000, Kind: symtab.Text, Line: 5}))
	require.NoError(t, s.Promote(ctx, "a.s", "main"))

	snap := s.Freeze(ctx)

	b, err := Format(ctx, nil, snap, Insertion)
	require.NoError(t, err)

	assert.Equal(t, `a.s
	msg              0x10010000 data
	1                0x00400008 text

(global)
	main             0x00400000 text

start main at 0x00400000
`, string(b))
}

func TestFormatTableByAddress(t *testing.T) {
	ctx := context.Background()
	tb := symtab.New("b.s", 64)

	require.NoError(t, tb.Insert("hi", 0x20, symtab.Text, 1))
	require.NoError(t, tb.Insert("lo", 0x10, symtab.Text, 2))

	b, err := Format(ctx, nil, tb, ByAddress)
	require.NoError(t, err)

	assert.Equal(t, `b.s
	lo               0x0000000000000010 text
	hi               0x0000000000000020 text
`, string(b))
}

func TestSymbol(t *testing.T) {
	sym := symtab.Symbol{Name: "top", Addr: -1, Kind: symtab.Data}

	b := Symbol(nil, sym, 32)
	assert.Equal(t, "top              0xffffffff data\n", string(b))

	b = Symbol(nil, sym, 64)
	assert.Equal(t, "top              0xffffffffffffffff data\n", string(b))

	b = Symbol(nil, symtab.Symbol{Name: "hi", Addr: 0x1_0000_0010, Kind: symtab.Text}, 64)
	assert.Equal(t, "hi               0x0000000100000010 text\n", string(b))
}

func TestFormatUnsupported(t *testing.T) {
	ctx := context.Background()

	for _, x := range []any{1, symtab.Symbol{Name: "top", Addr: -1}} {
		_, err := Format(ctx, nil, x, Insertion)
		assert.Error(t, err, "%T", x)
	}
}

func TestParseOrder(t *testing.T) {
	o, err := ParseOrder("address")
	assert.NoError(t, err)
	assert.Equal(t, ByAddress, o)

	o, err = ParseOrder("")
	assert.NoError(t, err)
	assert.Equal(t, Insertion, o)

	_, err = ParseOrder("name")
	assert.Error(t, err)
}
