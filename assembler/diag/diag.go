package diag

import (
	"fmt"

	"tlog.app/go/errors"
	"tlog.app/go/loc"
)

type (
	// Message is an assembly error or warning attached to a source position.
	Message struct {
		File string
		Line int
		Col  int

		Text    string
		Warning bool

		// PC is where the message was reported from.
		PC loc.PC
	}

	// List collects messages so that assembly may go on after an error.
	// Zero value is ready to use.
	List struct {
		WarningsAreErrors bool

		// Max is the number of messages kept. Zero means DefaultMax.
		Max int

		msgs     []Message
		errs     int
		warns    int
		overflow bool
	}
)

const DefaultMax = 200

func (l *List) Errorf(file string, line, col int, format string, args ...any) {
	l.add(Message{
		File: file,
		Line: line,
		Col:  col,
		Text: fmt.Sprintf(format, args...),
		PC:   loc.Caller(1),
	})
}

func (l *List) Warnf(file string, line, col int, format string, args ...any) {
	l.add(Message{
		File:    file,
		Line:    line,
		Col:     col,
		Text:    fmt.Sprintf(format, args...),
		Warning: true,
		PC:      loc.Caller(1),
	})
}

// AddError adds err as an error message.
func (l *List) AddError(file string, line int, err error) {
	l.add(Message{
		File: file,
		Line: line,
		Text: err.Error(),
		PC:   loc.Caller(1),
	})
}

func (l *List) Add(m Message) {
	if m.PC == 0 {
		m.PC = loc.Caller(1)
	}

	l.add(m)
}

func (l *List) add(m Message) {
	limit := l.Max
	if limit == 0 {
		limit = DefaultMax
	}

	if len(l.msgs) >= limit {
		l.overflow = true
		return
	}

	if m.Warning {
		l.warns++
	} else {
		l.errs++
	}

	l.msgs = append(l.msgs, m)
}

func (l *List) ErrorCount() int   { return l.errs }
func (l *List) WarningCount() int { return l.warns }

// Overflow reports whether messages were dropped after Max.
func (l *List) Overflow() bool { return l.overflow }

func (l *List) Messages() []Message {
	return l.msgs
}

// Err returns an error if there were errors,
// or warnings and they are treated as errors.
func (l *List) Err() error {
	n := l.errs
	if l.WarningsAreErrors {
		n += l.warns
	}

	if n == 0 {
		return nil
	}

	for _, m := range l.msgs {
		if !m.Warning || l.WarningsAreErrors {
			return errors.New("%d errors, first: %v", n, m)
		}
	}

	return errors.New("%d errors", n)
}

func (m Message) String() string {
	kind := "error"
	if m.Warning {
		kind = "warning"
	}

	switch {
	case m.Col != 0:
		return fmt.Sprintf("%s:%d:%d: %s: %s", m.File, m.Line, m.Col, kind, m.Text)
	case m.Line != 0:
		return fmt.Sprintf("%s:%d: %s: %s", m.File, m.Line, kind, m.Text)
	default:
		return fmt.Sprintf("%s: %s: %s", m.File, kind, m.Text)
	}
}
