package events

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/slowlang/rvasm/assembler/symtab"
)

const trace = `
# two units sharing a global
unit main.s
decl msg 0x10010000 data 2
decl main 0x00400000 text 5
globl main helper
decl 1 0x400004 text 6
decl 1 0x400010 text 9
decl msg 0x10010004 data 12   # duplicate

unit lib.s
decl helper 0x400100 text 3
globl helper
decl buf 0 data 7
decl tmp 0 data 8
fixup 0 0x10010100
`

func TestReplay(t *testing.T) {
	ctx := context.Background()
	s := symtab.NewSession(symtab.Config{})

	l, err := Replay(ctx, s, strings.NewReader(trace))
	require.NoError(t, err)

	msgs := l.Messages()
	require.Len(t, msgs, 2)

	assert.Equal(t, "main.s", msgs[0].File)
	assert.Equal(t, 12, msgs[0].Line)
	assert.Contains(t, msgs[0].Text, `"msg" already defined at line 2`)

	assert.Equal(t, "main.s", msgs[1].File)
	assert.Contains(t, msgs[1].Text, `undefined global label "helper"`)

	snap := s.Published()
	require.NotNil(t, snap)

	assert.Equal(t, []string{"main.s", "lib.s"}, snap.Units())

	a, ok := snap.Resolve("main.s", "main", 1)
	assert.True(t, ok)
	assert.Equal(t, symtab.Addr(0x400000), a)

	_, ok = snap.Unit("main.s").Lookup("main")
	assert.False(t, ok, "promoted")

	a, ok = snap.Resolve("main.s", "1f", 6)
	assert.True(t, ok)
	assert.Equal(t, symtab.Addr(0x400010), a)

	a, ok = snap.Resolve("main.s", "helper", 1)
	assert.True(t, ok)
	assert.Equal(t, symtab.Addr(0x400100), a, "from lib.s")

	sym, ok := snap.LookupAddr("lib.s", "0x10010100")
	assert.True(t, ok)
	assert.Equal(t, "buf", sym.Name)

	_, ok = snap.Resolve("lib.s", "msg", 1)
	assert.False(t, ok, "main.s label is not visible")
}

func TestReplayDeferredGlobal(t *testing.T) {
	ctx := context.Background()
	s := symtab.NewSession(symtab.Config{StartAtLabel: true})

	l, err := Replay(ctx, s, strings.NewReader(`
unit a.s
globl main
decl main 0x400000 text 4
freeze
`))
	require.NoError(t, err)
	assert.NoError(t, l.Err())

	a, ok := s.Published().StartAddr()
	assert.True(t, ok)
	assert.Equal(t, symtab.Addr(0x400000), a)
}

func TestReplayReassemble(t *testing.T) {
	ctx := context.Background()
	s := symtab.NewSession(symtab.Config{})

	_, err := Replay(ctx, s, strings.NewReader(`
unit a.s
decl x 1 data 1
freeze
reset
unit a.s
decl x 2 data 1
unit a.s
decl x 3 data 1
`))
	require.NoError(t, err)

	a, ok := s.Published().Resolve("a.s", "x", 1)
	assert.True(t, ok)
	assert.Equal(t, symtab.Addr(3), a)
}

func TestReplayRedeclareGlobal(t *testing.T) {
	ctx := context.Background()
	s := symtab.NewSession(symtab.Config{})

	l, err := Replay(ctx, s, strings.NewReader(`
unit a.s
decl x 0x100 data 2
globl x y
decl x 0x200 data 5
decl y 0x300 data 6
globl y

unit b.s
decl x 0x400 data 3
globl x
`))
	require.NoError(t, err)

	msgs := l.Messages()
	require.Len(t, msgs, 2, "%v", msgs)

	assert.Equal(t, "a.s", msgs[0].File)
	assert.Equal(t, 5, msgs[0].Line)
	assert.Contains(t, msgs[0].Text, `"x" already defined at line 2`)

	assert.Equal(t, "b.s", msgs[1].File)
	assert.Equal(t, 3, msgs[1].Line)
	assert.Contains(t, msgs[1].Text, `"x" already defined global in a.s at line 2`)

	snap := s.Published()

	a, ok := snap.Resolve("a.s", "x", 10)
	assert.True(t, ok)
	assert.Equal(t, symtab.Addr(0x100), a)

	a, ok = snap.Resolve("b.s", "x", 10)
	assert.True(t, ok)
	assert.Equal(t, symtab.Addr(0x400), a, "stays local")

	a, ok = snap.Resolve("b.s", "y", 10)
	assert.True(t, ok)
	assert.Equal(t, symtab.Addr(0x300), a)
}

func TestReplayUndefinedGlobalOnce(t *testing.T) {
	ctx := context.Background()

	for _, tc := range []struct {
		trace string
		n     int
	}{
		{"unit a.s\nglobl nope\nfreeze\nfreeze", 1},
		{"unit a.s\nglobl nope\nfreeze\nunit b.s", 1},
		{"unit a.s\nglobl nope\nfreeze\nreset\nunit a.s\nglobl nope", 2},
	} {
		s := symtab.NewSession(symtab.Config{})

		l, err := Replay(ctx, s, strings.NewReader(tc.trace))
		require.NoError(t, err, "%q", tc.trace)

		msgs := l.Messages()
		if assert.Len(t, msgs, tc.n, "%q", tc.trace) {
			for _, m := range msgs {
				assert.Equal(t, "a.s", m.File)
				assert.Contains(t, m.Text, `undefined global label "nope"`)
			}
		}
	}
}

func TestReplayErrors(t *testing.T) {
	ctx := context.Background()

	for _, tc := range []struct {
		trace string
		err   string
	}{
		{"bogus", `unknown event`},
		{"decl x 1 data 1", "no unit"},
		{"unit a.s\ndecl x 1 data", "want 4 args"},
		{"unit a.s\ndecl x zz data 1", "address"},
		{"unit a.s\ndecl x 1 code 1", "bad kind"},
		{"unit a.s\ndecl x 1 data 0", "bad line"},
		{"unit a.s\nfixup 1", "want 2 args"},
		{"unit", "want 1 arg"},
		{"unit a.s\nfreeze\ndecl x 1 data 1", "frozen"},
		{"unit a.s\nfreeze\nunit b.s\ndecl x 1 data 1", "frozen"},
		{"unit a.s\nfreeze\nunit a.s", "frozen"},
		{"freeze now", "unexpected args"},
	} {
		s := symtab.NewSession(symtab.Config{})

		_, err := Replay(ctx, s, strings.NewReader(tc.trace))
		if assert.Error(t, err, "%q", tc.trace) {
			assert.Contains(t, err.Error(), tc.err, "%q", tc.trace)
		}
	}
}

func TestParseKind(t *testing.T) {
	k, err := ParseKind("data")
	assert.NoError(t, err)
	assert.Equal(t, symtab.Data, k)

	k, err = ParseKind("t")
	assert.NoError(t, err)
	assert.Equal(t, symtab.Text, k)

	_, err = ParseKind("bss")
	assert.Error(t, err)
}
