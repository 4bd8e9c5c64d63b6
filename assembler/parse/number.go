package parse

import (
	"math/bits"

	"tlog.app/go/errors"
)

var (
	ErrSyntax = errors.New("invalid number")
	ErrRange  = errors.New("number out of range")
)

// Int parses an assembler integer literal: decimal, 0x hex, 0o octal or 0b binary
// with an optional sign.
// The result is truncated to width bits and sign-extended back,
// so 0xffffffff is -1 at width 32. Width 0 means 64.
func Int(s string, width int) (x int64, err error) {
	if width <= 0 || width > 64 {
		width = 64
	}

	i := 0
	neg := false

	if i < len(s) && (s[i] == '-' || s[i] == '+') {
		neg = s[i] == '-'
		i++
	}

	base := uint64(10)

	if i+1 < len(s) && s[i] == '0' {
		switch s[i+1] {
		case 'x', 'X':
			base = 16
		case 'o', 'O':
			base = 8
		case 'b', 'B':
			base = 2
		}

		if base != 10 {
			i += 2 // skip base prefix
		}
	}

	if i == len(s) {
		return 0, errors.Wrap(ErrSyntax, "%q: no digits", s)
	}

	var v uint64

	for st := i; i < len(s); i++ {
		d, ok := digit(s[i])
		if !ok || d >= base {
			return 0, errors.Wrap(ErrSyntax, "%q: bad digit at %d", s, i-st)
		}

		hi, lo := bits.Mul64(v, base)
		if hi != 0 {
			return 0, errors.Wrap(ErrRange, "%q", s)
		}

		v, hi = bits.Add64(lo, d, 0)
		if hi != 0 {
			return 0, errors.Wrap(ErrRange, "%q", s)
		}
	}

	if width < 64 && v>>width != 0 {
		return 0, errors.Wrap(ErrRange, "%q: wider than %d bits", s, width)
	}

	if neg {
		if v > 1<<(width-1) {
			return 0, errors.Wrap(ErrRange, "%q: below minimum of %d bits", s, width)
		}

		v = -v
	}

	return SignExtend(v, width), nil
}

// SignExtend interprets the low width bits of v as a signed number.
func SignExtend(v uint64, width int) int64 {
	if width <= 0 || width >= 64 {
		return int64(v)
	}

	sh := 64 - width

	return int64(v<<sh) >> sh
}

func digit(c byte) (uint64, bool) {
	switch {
	case c >= '0' && c <= '9':
		return uint64(c - '0'), true
	case c >= 'a' && c <= 'f':
		return uint64(c-'a') + 10, true
	case c >= 'A' && c <= 'F':
		return uint64(c-'A') + 10, true
	}

	return 0, false
}
