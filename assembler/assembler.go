package assembler

import (
	"bytes"
	"context"
	"os"

	"tlog.app/go/errors"
	"tlog.app/go/tlog"

	"github.com/slowlang/rvasm/assembler/diag"
	"github.com/slowlang/rvasm/assembler/events"
	"github.com/slowlang/rvasm/assembler/symtab"
)

func ReplayFile(ctx context.Context, s *symtab.Session, name string) (*diag.List, error) {
	text, err := os.ReadFile(name)
	if err != nil {
		return nil, errors.Wrap(err, "read file")
	}

	tlog.SpanFromContext(ctx).Printw("read file", "size", len(text), "name", name)

	return Replay(ctx, s, text)
}

// Replay applies recorded events and makes sure a snapshot is published.
func Replay(ctx context.Context, s *symtab.Session, text []byte) (*diag.List, error) {
	l, err := events.Replay(ctx, s, bytes.NewReader(text))
	if err != nil {
		return l, errors.Wrap(err, "replay")
	}

	if s.Published() == nil {
		s.Freeze(ctx)
	}

	return l, nil
}
