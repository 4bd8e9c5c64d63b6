package symtab

import (
	"context"
	"slices"
	"sync/atomic"

	"tlog.app/go/errors"
	"tlog.app/go/tlog"
)

type (
	Config struct {
		// Width is the target address width: 32 or 64.
		Width int

		// StartLabel is the global text label execution starts at
		// if StartAtLabel is set.
		StartLabel   string
		StartAtLabel bool
	}

	// Decl is a label declaration scanned by the assembler.
	Decl struct {
		Name string
		Addr Addr
		Kind Kind
		Line int
	}

	// Session holds the symbol tables of one assembly:
	// a table per unit and the table of global labels.
	//
	// Session is written by one goroutine.
	// Readers use Published, which is safe for concurrent use.
	Session struct {
		Config

		global *Table
		units  map[string]*unit
		order  []string

		frozen bool

		pub atomic.Pointer[Snapshot]
	}

	unit struct {
		table *Table

		// names declared global before the label itself
		pending []string

		// names moved to the global table
		promoted []string
	}

	// Snapshot is a frozen session.
	// It's read-only and safe for concurrent use.
	Snapshot struct {
		Config

		global *Table
		units  map[string]*Table
		order  []string
	}
)

const DefaultStartLabel = "main"

const globalName = "(global)"

func NewSession(cfg Config) *Session {
	if cfg.Width == 0 {
		cfg.Width = 32
	}

	if cfg.StartLabel == "" {
		cfg.StartLabel = DefaultStartLabel
	}

	s := &Session{
		Config: cfg,
	}

	s.init()

	return s
}

func (s *Session) init() {
	s.global = New(globalName, s.Width)
	s.units = make(map[string]*unit)
	s.order = nil
	s.frozen = false
}

// Reset starts a new assembly and makes the session writable again.
// The last published snapshot stays visible until the next Freeze.
func (s *Session) Reset(ctx context.Context) {
	tlog.SpanFromContext(ctx).V("symtab").Printw("session reset", "units", len(s.order), "globals", s.global.Len())

	s.init()
}

func (s *Session) Global() *Table { return s.global }

// Units lists unit names in the order they were first seen.
func (s *Session) Units() []string { return slices.Clone(s.order) }

// Unit returns the unit table, creating it if needed.
func (s *Session) Unit(file string) *Table {
	return s.unit(file).table
}

// ResetUnit empties the unit table before the unit is assembled again.
// Global labels the unit promoted are removed as well.
func (s *Session) ResetUnit(ctx context.Context, file string) error {
	if s.frozen {
		return errors.Wrap(ErrFrozen, "reset unit %v", file)
	}

	u := s.unit(file)

	err := u.table.Clear()
	if err != nil {
		return errors.Wrap(err, "unit %v", file)
	}

	for _, name := range u.promoted {
		err = s.global.Remove(name)
		if err != nil {
			return errors.Wrap(err, "global")
		}
	}

	tlog.SpanFromContext(ctx).V("symtab").Printw("unit reset", "unit", file, "globals_dropped", len(u.promoted))

	u.pending = u.pending[:0]
	u.promoted = u.promoted[:0]

	return nil
}

func (s *Session) Scope(file string) Scope {
	return Scope{
		Local:  s.Unit(file),
		Global: s.global,
	}
}

// Declare records a label declared in the unit.
// A label the unit has already declared global goes to the global table.
// Redeclaring a label the unit has moved to the global table
// is a *DuplicateLabelError as if it was still in the unit table.
func (s *Session) Declare(ctx context.Context, file string, d Decl) error {
	if s.frozen {
		return errors.Wrap(ErrFrozen, "declare %q", d.Name)
	}

	u := s.unit(file)

	if slices.Contains(u.promoted, d.Name) {
		first, _ := s.global.Lookup(d.Name)

		return &DuplicateLabelError{
			Name:      d.Name,
			Line:      d.Line,
			FirstLine: first.Line,
		}
	}

	if i := slices.Index(u.pending, d.Name); i >= 0 {
		err := s.global.Insert(d.Name, d.Addr, d.Kind, d.Line)
		if err != nil {
			return s.foreign(err)
		}

		u.pending = slices.Delete(u.pending, i, i+1)
		u.promote(d.Name)

		tlog.SpanFromContext(ctx).V("symtab").Printw("declared global", "unit", file, "label", d.Name, "addr", d.Addr)

		return nil
	}

	return u.table.Insert(d.Name, d.Addr, d.Kind, d.Line)
}

// Promote moves a unit label to the global table.
// If the unit hasn't declared the label yet
// it will go to the global table once declared.
// Promoting a label twice is the same as once.
func (s *Session) Promote(ctx context.Context, file, label string) error {
	if s.frozen {
		return errors.Wrap(ErrFrozen, "promote %q", label)
	}

	u := s.unit(file)

	if slices.Contains(u.promoted, label) {
		return nil
	}

	sym, ok := u.table.Lookup(label)
	if !ok {
		if !slices.Contains(u.pending, label) {
			u.pending = append(u.pending, label)
		}

		tlog.SpanFromContext(ctx).V("symtab").Printw("global deferred", "unit", file, "label", label)

		return nil
	}

	err := s.global.Insert(sym.Name, sym.Addr, sym.Kind, sym.Line)
	if err != nil {
		return s.foreign(err)
	}

	err = u.table.Remove(label)
	if err != nil {
		return errors.Wrap(err, "unit %v", file)
	}

	u.promote(label)

	tlog.SpanFromContext(ctx).V("symtab").Printw("promoted", "unit", file, "sym", sym)

	return nil
}

// foreign marks a global table conflict with the unit owning the first label.
func (s *Session) foreign(err error) error {
	var dup *DuplicateLabelError
	if !errors.As(err, &dup) {
		return err
	}

	for _, file := range s.order {
		if slices.Contains(s.units[file].promoted, dup.Name) {
			dup.Unit = file
			break
		}
	}

	return dup
}

// Pending lists names declared global in the unit but not declared as labels yet.
func (s *Session) Pending(file string) []string {
	u, ok := s.units[file]
	if !ok {
		return nil
	}

	return slices.Clone(u.pending)
}

// CheckPending reports every name of the unit declared global but never defined.
func (s *Session) CheckPending(ctx context.Context, file string) (errs []error) {
	for _, label := range s.Pending(file) {
		errs = append(errs, &UndefinedGlobalError{Unit: file, Name: label})
	}

	if len(errs) != 0 {
		tlog.SpanFromContext(ctx).Printw("undefined globals", "unit", file, "n", len(errs))
	}

	return errs
}

// Fixup moves labels of the unit and global labels
// from a placeholder address to the final one.
func (s *Session) Fixup(ctx context.Context, file string, original, replacement Addr) (n int, err error) {
	if s.frozen {
		return 0, errors.Wrap(ErrFrozen, "fixup")
	}

	n, err = s.Unit(file).Fixup(original, replacement)
	if err != nil {
		return n, errors.Wrap(err, "unit %v", file)
	}

	m, err := s.global.Fixup(original, replacement)
	if err != nil {
		return n, errors.Wrap(err, "global")
	}

	return n + m, nil
}

// StartAddr is the address of the start label
// if starting at it is enabled and it's a global text label.
func (s *Session) StartAddr() (Addr, bool) {
	return startAddr(s.Config, s.global)
}

// Freeze makes all the tables read-only and publishes them.
// The session can't be changed after that until Reset.
// Units first seen after Freeze get empty read-only tables.
func (s *Session) Freeze(ctx context.Context) *Snapshot {
	tr, _ := tlog.SpawnFromContextAndWrap(ctx, "symtab: freeze", "units", len(s.order))
	defer tr.Finish()

	snap := &Snapshot{
		Config: s.Config,
		global: s.global,
		units:  make(map[string]*Table, len(s.units)),
		order:  slices.Clone(s.order),
	}

	s.frozen = true
	s.global.Freeze()

	for name, u := range s.units {
		u.table.Freeze()
		snap.units[name] = u.table
	}

	s.pub.Store(snap)

	if tr.If("dump_symtab") {
		for _, sym := range s.global.All() {
			tr.Printw("global", "sym", sym)
		}
	}

	return snap
}

// Published returns the last frozen snapshot or nil.
// It's safe to call concurrently with everything.
func (s *Session) Published() *Snapshot {
	return s.pub.Load()
}

func (s *Session) unit(file string) *unit {
	u, ok := s.units[file]
	if ok {
		return u
	}

	u = &unit{
		table: New(file, s.Width),
	}

	if s.frozen {
		u.table.Freeze()
	}

	s.units[file] = u
	s.order = append(s.order, file)

	return u
}

func (s *Snapshot) Global() *Table { return s.global }

// Unit returns the unit table or nil.
func (s *Snapshot) Unit(file string) *Table { return s.units[file] }

func (s *Snapshot) Units() []string { return slices.Clone(s.order) }

func (s *Snapshot) Scope(file string) Scope {
	return Scope{
		Local:  s.units[file],
		Global: s.global,
	}
}

func (s *Snapshot) Resolve(file, label string, line int) (Addr, bool) {
	return s.Scope(file).Resolve(label, line)
}

func (s *Snapshot) LookupAddr(file, text string) (Symbol, bool) {
	return s.Scope(file).LookupAddr(text)
}

func (s *Snapshot) StartAddr() (Addr, bool) {
	return startAddr(s.Config, s.global)
}

func startAddr(cfg Config, global *Table) (Addr, bool) {
	if !cfg.StartAtLabel {
		return 0, false
	}

	sym, ok := global.Lookup(cfg.StartLabel)
	if !ok || sym.Kind != Text {
		return 0, false
	}

	return sym.Addr, true
}

func (u *unit) promote(name string) {
	if IsNumeric(name) {
		return
	}

	u.promoted = append(u.promoted, name)
}
