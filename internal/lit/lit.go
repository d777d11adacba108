// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

// Package lit parses constant literals.
//
// Supported forms are Verilog sized literals (8'hff, 3'b101, 12'd7, 6'o17),
// unsized base literals ('hff), Go style prefixed literals (0x1f, 0b101, 0o17)
// and plain decimals. Underscores may be used as digit separators.
//
package lit

import (
	"github.com/holiman/uint256"
	"github.com/pkg/errors"
)

// MaxWidth is the widest literal accepted.
//
const MaxWidth = 256

type stateFn func(s *scanner) stateFn

type scanner struct {
	in    string
	pos   int
	width int // 0 when unsized
	base  uint64
	v     uint256.Int
	n     int  // digit count
	sized bool // reading the width of a sized literal
	err   error
}

func (s *scanner) next() byte {
	if s.pos >= len(s.in) {
		s.pos++
		return 0
	}
	c := s.in[s.pos]
	s.pos++
	return c
}

func (s *scanner) backup() { s.pos-- }

func (s *scanner) errorf(format string, args ...interface{}) stateFn {
	s.err = errors.Errorf("literal %q at pos %d: "+format, append([]interface{}{s.in, s.pos}, args...)...)
	return nil
}

// Parse parses a literal and returns its value and width. Unsized literals get
// the smallest width that holds their value, with a minimum of 1.
//
func Parse(in string) (v uint256.Int, width int, err error) {
	s := &scanner{in: in, base: 10}
	for state := stateFn(lexStart); state != nil; {
		state = state(s)
	}
	if s.err != nil {
		return v, 0, s.err
	}
	width = s.width
	if width == 0 {
		width = s.v.BitLen()
		if width == 0 {
			width = 1
		}
	} else if s.v.BitLen() > width {
		return v, 0, errors.Errorf("literal %q: value does not fit in %d bits", in, width)
	}
	return s.v, width, nil
}

func lexStart(s *scanner) stateFn {
	c := s.next()
	switch {
	case c == '\'':
		return lexBase
	case c == '0':
		switch s.next() {
		case 'x', 'X':
			s.base = 16
			return lexDigits
		case 'b', 'B':
			s.base = 2
			return lexDigits
		case 'o', 'O':
			s.base = 8
			return lexDigits
		}
		s.backup()
		s.backup()
		return lexDecimal
	case isDigit(c):
		s.backup()
		return lexDecimal
	case c == 0:
		return s.errorf("empty literal")
	}
	return s.errorf("unexpected character %q", c)
}

// lexDecimal reads either a plain decimal or the width of a sized literal.
func lexDecimal(s *scanner) stateFn {
	s.sized = true
	st := lexDigits(s)
	s.sized = false
	if s.err != nil {
		return st
	}
	if s.pos <= len(s.in) {
		// stopped on a quote
		if !s.v.IsUint64() || s.v.Uint64() < 1 || s.v.Uint64() > MaxWidth {
			return s.errorf("width %s out of range [1, %d]", s.v.Dec(), MaxWidth)
		}
		s.width = int(s.v.Uint64())
		s.v.Clear()
		s.n = 0
		s.pos++
		return lexBase
	}
	return nil
}

func lexBase(s *scanner) stateFn {
	switch s.next() {
	case 'b', 'B':
		s.base = 2
	case 'o', 'O':
		s.base = 8
	case 'd', 'D':
		s.base = 10
	case 'h', 'H':
		s.base = 16
	default:
		s.backup()
		return s.errorf("expected base specifier b, o, d or h")
	}
	return lexDigits
}

// lexDigits accumulates digits in the current base. It stops at the end of
// input, or on a quote when reading a decimal width.
func lexDigits(s *scanner) stateFn {
	var base uint256.Int
	base.SetUint64(s.base)
	for {
		c := s.next()
		switch {
		case c == 0 && s.pos > len(s.in):
			if s.n == 0 {
				return s.errorf("missing digits")
			}
			return nil
		case c == '_':
			continue
		case c == '\'' && s.sized && s.n > 0:
			s.backup()
			return nil
		}
		d, ok := digit(c)
		if !ok || d >= s.base {
			s.backup()
			return s.errorf("invalid digit %q in base %d", c, s.base)
		}
		var dv uint256.Int
		if _, over := s.v.MulOverflow(&s.v, &base); over {
			return s.errorf("value overflows %d bits", MaxWidth)
		}
		if _, over := s.v.AddOverflow(&s.v, dv.SetUint64(d)); over {
			return s.errorf("value overflows %d bits", MaxWidth)
		}
		s.n++
	}
}

func isDigit(c byte) bool { return '0' <= c && c <= '9' }

func digit(c byte) (uint64, bool) {
	switch {
	case isDigit(c):
		return uint64(c - '0'), true
	case 'a' <= c && c <= 'f':
		return uint64(c-'a') + 10, true
	case 'A' <= c && c <= 'F':
		return uint64(c-'A') + 10, true
	}
	return 0, false
}
