package events

import (
	"bufio"
	"context"
	"io"
	"slices"
	"strings"

	"tlog.app/go/errors"
	"tlog.app/go/tlog"

	"github.com/slowlang/rvasm/assembler/diag"
	"github.com/slowlang/rvasm/assembler/parse"
	"github.com/slowlang/rvasm/assembler/symtab"
)

type (
	replay struct {
		s *symtab.Session
		l *diag.List

		unit  string
		dirty bool

		// units checked for undefined globals since the last reset
		checked map[string]bool
	}
)

// Replay feeds the session with assembler events read from r.
//
// Events are one per line, # starts a comment:
//
//	unit <file>
//	decl <name> <addr> <data|text> <line>
//	globl <name>...
//	fixup <original> <replacement>
//	freeze
//	reset
//
// Label errors are collected into the returned list and replay goes on.
// Malformed events stop it.
// The session is frozen at the end if it was changed after the last freeze.
func Replay(ctx context.Context, s *symtab.Session, r io.Reader) (l *diag.List, err error) {
	tr, ctx := tlog.SpawnFromContextAndWrap(ctx, "events: replay")
	defer tr.Finish("err", &err)

	p := &replay{
		s:       s,
		l:       new(diag.List),
		checked: make(map[string]bool),
	}

	sc := bufio.NewScanner(r)

	for ln := 1; sc.Scan(); ln++ {
		err = p.event(ctx, sc.Text())
		if err != nil {
			return p.l, errors.Wrap(err, "line %d", ln)
		}
	}

	err = sc.Err()
	if err != nil {
		return p.l, errors.Wrap(err, "read")
	}

	if p.dirty {
		p.freeze(ctx)
	}

	tr.Printw("replayed", "units", len(s.Units()), "errors", p.l.ErrorCount())

	return p.l, nil
}

func (p *replay) event(ctx context.Context, line string) (err error) {
	if i := strings.IndexByte(line, '#'); i >= 0 {
		line = line[:i]
	}

	f := strings.Fields(line)
	if len(f) == 0 {
		return nil
	}

	switch f[0] {
	case "unit":
		err = p.startUnit(ctx, f[1:])
	case "decl":
		err = p.decl(ctx, f[1:])
	case "globl":
		err = p.globl(ctx, f[1:])
	case "fixup":
		err = p.fixup(ctx, f[1:])
	case "freeze":
		if len(f) != 1 {
			return errors.New("freeze: unexpected args")
		}

		p.freeze(ctx)
	case "reset":
		if len(f) != 1 {
			return errors.New("reset: unexpected args")
		}

		p.s.Reset(ctx)
		p.unit = ""
		p.dirty = true
		clear(p.checked)
	default:
		return errors.New("unknown event: %q", f[0])
	}

	if err != nil {
		return errors.Wrap(err, "%v", f[0])
	}

	return nil
}

func (p *replay) startUnit(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return errors.New("want 1 arg, got %d", len(args))
	}

	p.unit = args[0]
	p.dirty = true

	if !slices.Contains(p.s.Units(), p.unit) {
		p.s.Unit(p.unit)
		return nil
	}

	return p.s.ResetUnit(ctx, p.unit)
}

func (p *replay) decl(ctx context.Context, args []string) error {
	if len(args) != 4 {
		return errors.New("want 4 args, got %d", len(args))
	}

	if p.unit == "" {
		return errors.New("no unit")
	}

	addr, err := parse.Int(args[1], p.s.Width)
	if err != nil {
		return errors.Wrap(err, "address")
	}

	kind, err := ParseKind(args[2])
	if err != nil {
		return err
	}

	line, err := parse.Int(args[3], 64)
	if err != nil {
		return errors.Wrap(err, "line")
	}

	if line <= 0 {
		return errors.New("bad line: %d", line)
	}

	d := symtab.Decl{
		Name: args[0],
		Addr: symtab.Addr(addr),
		Kind: kind,
		Line: int(line),
	}

	p.dirty = true

	err = p.s.Declare(ctx, p.unit, d)

	var dup *symtab.DuplicateLabelError
	if errors.As(err, &dup) {
		p.l.Errorf(p.unit, d.Line, 0, "%v", dup)
		return nil
	}

	return err
}

func (p *replay) globl(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return errors.New("no names")
	}

	if p.unit == "" {
		return errors.New("no unit")
	}

	p.dirty = true

	for _, name := range args {
		err := p.s.Promote(ctx, p.unit, name)

		var dup *symtab.DuplicateLabelError
		if errors.As(err, &dup) {
			p.l.Errorf(p.unit, dup.Line, 0, "%v", dup)
			continue
		}

		if err != nil {
			return errors.Wrap(err, "%v", name)
		}
	}

	return nil
}

func (p *replay) fixup(ctx context.Context, args []string) error {
	if len(args) != 2 {
		return errors.New("want 2 args, got %d", len(args))
	}

	if p.unit == "" {
		return errors.New("no unit")
	}

	orig, err := parse.Int(args[0], p.s.Width)
	if err != nil {
		return errors.Wrap(err, "original")
	}

	repl, err := parse.Int(args[1], p.s.Width)
	if err != nil {
		return errors.Wrap(err, "replacement")
	}

	p.dirty = true

	_, err = p.s.Fixup(ctx, p.unit, symtab.Addr(orig), symtab.Addr(repl))

	return err
}

// freeze reports undefined globals of units not checked yet.
// Frozen units can't change until reset, so each is checked once.
func (p *replay) freeze(ctx context.Context) {
	for _, u := range p.s.Units() {
		if p.checked[u] {
			continue
		}

		p.checked[u] = true

		for _, err := range p.s.CheckPending(ctx, u) {
			p.l.AddError(u, 0, err)
		}
	}

	p.s.Freeze(ctx)
	p.dirty = false
}

func ParseKind(s string) (symtab.Kind, error) {
	switch s {
	case "text", "t":
		return symtab.Text, nil
	case "data", "d":
		return symtab.Data, nil
	default:
		return 0, errors.New("bad kind: %q", s)
	}
}
