package main

import (
	"context"
	"fmt"
	"os"
	"strconv"

	"nikand.dev/go/cli"
	"tlog.app/go/errors"
	"tlog.app/go/tlog"

	"github.com/slowlang/rvasm/assembler"
	"github.com/slowlang/rvasm/assembler/format"
	"github.com/slowlang/rvasm/assembler/symtab"
)

func main() {
	replayCmd := &cli.Command{
		Name:        "replay",
		Description: "replay label events and print symbol tables",
		Action:      replayAct,
		Args:        cli.Args{},
	}

	resolveCmd := &cli.Command{
		Name:        "resolve",
		Description: "resolve label: <events> <unit> <label> <line>",
		Action:      resolveAct,
		Args:        cli.Args{},
	}

	addrCmd := &cli.Command{
		Name:        "addr",
		Description: "find label at address: <events> <unit> <address>",
		Action:      addrAct,
		Args:        cli.Args{},
	}

	app := &cli.Command{
		Name:        "rvsym",
		Description: "rvsym inspects assembler symbol tables",
		Before:      before,
		Flags: []*cli.Flag{
			cli.NewFlag("width", 32, "address width: 32 or 64"),
			cli.NewFlag("start", symtab.DefaultStartLabel, "start label"),
			cli.NewFlag("start-at-label", false, "start execution at the global start label"),
			cli.NewFlag("sort", "insertion", "listing order: insertion or address"),
			cli.NewFlag("verbosity,v", "", "logger verbosity topics"),
		},
		Commands: []*cli.Command{
			replayCmd,
			resolveCmd,
			addrCmd,
		},
	}

	cli.RunAndExit(app, os.Args, os.Environ())
}

func before(c *cli.Command) error {
	tlog.SetVerbosity(c.String("verbosity"))

	return nil
}

func replayAct(c *cli.Command) (err error) {
	ctx := context.Background()
	ctx = tlog.ContextWithSpan(ctx, tlog.Root())

	o, err := format.ParseOrder(c.String("sort"))
	if err != nil {
		return err
	}

	for _, a := range c.Args {
		s, err := session(ctx, c, a)
		if err != nil {
			return errors.Wrap(err, "replay %v", a)
		}

		b, err := format.Format(ctx, nil, s.Published(), o)
		if err != nil {
			return errors.Wrap(err, "format %v", a)
		}

		fmt.Printf("%s", b)
	}

	return nil
}

func resolveAct(c *cli.Command) (err error) {
	ctx := context.Background()
	ctx = tlog.ContextWithSpan(ctx, tlog.Root())

	if len(c.Args) != 4 {
		return errors.New("want 4 args: <events> <unit> <label> <line>")
	}

	line, err := strconv.Atoi(c.Args[3])
	if err != nil {
		return errors.Wrap(err, "line")
	}

	s, err := session(ctx, c, c.Args[0])
	if err != nil {
		return errors.Wrap(err, "replay %v", c.Args[0])
	}

	snap := s.Published()

	a, ok := snap.Resolve(c.Args[1], c.Args[2], line)
	if !ok {
		return errors.New("%v:%d: undefined label %q", c.Args[1], line, c.Args[2])
	}

	sym := symtab.Symbol{Name: c.Args[2], Addr: a, Line: line}

	if at, ok := snap.Scope(c.Args[1]).SymbolAt(a); ok {
		sym.Kind = at.Kind
	}

	fmt.Printf("%s", format.Symbol(nil, sym, snap.Width))

	return nil
}

func addrAct(c *cli.Command) (err error) {
	ctx := context.Background()
	ctx = tlog.ContextWithSpan(ctx, tlog.Root())

	if len(c.Args) != 3 {
		return errors.New("want 3 args: <events> <unit> <address>")
	}

	s, err := session(ctx, c, c.Args[0])
	if err != nil {
		return errors.Wrap(err, "replay %v", c.Args[0])
	}

	sym, ok := s.Published().LookupAddr(c.Args[1], c.Args[2])
	if !ok {
		fmt.Printf("no symbol at %v\n", c.Args[2])
		return nil
	}

	fmt.Printf("%s", format.Symbol(nil, sym, s.Width))

	return nil
}

func session(ctx context.Context, c *cli.Command, name string) (*symtab.Session, error) {
	s := symtab.NewSession(symtab.Config{
		Width:        c.Int("width"),
		StartLabel:   c.String("start"),
		StartAtLabel: c.Bool("start-at-label"),
	})

	if s.Width != 32 && s.Width != 64 {
		return nil, errors.New("unsupported width: %d", s.Width)
	}

	l, err := assembler.ReplayFile(ctx, s, name)
	if l != nil {
		for _, m := range l.Messages() {
			fmt.Fprintf(os.Stderr, "%v\n", m)
		}
	}

	if err != nil {
		return nil, err
	}

	return s, nil
}
