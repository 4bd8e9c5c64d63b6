package symtab

import (
	"fmt"

	"tlog.app/go/errors"
)

type (
	DuplicateLabelError struct {
		Name string
		Line int

		// FirstLine is where the label was declared first.
		FirstLine int

		// Unit is the file of the first declaration
		// if it's not the one being assembled.
		Unit string
	}

	// UndefinedGlobalError is a name declared global in a unit
	// but never declared as a label there.
	UndefinedGlobalError struct {
		Unit string
		Name string
	}
)

var (
	ErrFrozen    = errors.New("symbol table is frozen")
	ErrEmptyName = errors.New("empty label name")
)

func (e *DuplicateLabelError) Error() string {
	if e.Unit != "" {
		return fmt.Sprintf("label %q already defined global in %v at line %d", e.Name, e.Unit, e.FirstLine)
	}

	return fmt.Sprintf("label %q already defined at line %d", e.Name, e.FirstLine)
}

func (e *UndefinedGlobalError) Error() string {
	return fmt.Sprintf("%v: undefined global label %q", e.Unit, e.Name)
}
