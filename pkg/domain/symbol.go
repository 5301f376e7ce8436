package domain

import (
	"fmt"
	"unicode"
	"unicode/utf8"
)

// Symbol is the value of a single tape cell.
type Symbol rune

// Wildcard matches any read symbol without an exact transition.
// Written to the tape it leaves the cell unchanged.
const Wildcard Symbol = '-'

// Comment markers end the meaningful part of a program line, so they can never be symbols.
const (
	CommentMarker    = ';'
	AltCommentMarker = '#'
)

// Valid reports whether s may be stored on a tape or used in an instruction.
func (s Symbol) Valid() bool {
	r := rune(s)
	return unicode.IsPrint(r) && !unicode.IsSpace(r) && r != CommentMarker && r != AltCommentMarker
}

// IsWildcard reports whether s is the reserved wildcard symbol.
func (s Symbol) IsWildcard() bool {
	return s == Wildcard
}

func (s Symbol) String() string {
	return string(rune(s))
}

// MarshalText encodes the symbol as its character. The zero Symbol encodes as "".
func (s Symbol) MarshalText() ([]byte, error) {
	if s == 0 {
		return []byte{}, nil
	}
	return []byte(s.String()), nil
}

// UnmarshalText decodes a single character symbol.
func (s *Symbol) UnmarshalText(text []byte) error {
	if len(text) == 0 {
		*s = 0
		return nil
	}
	sym, err := ParseSymbol(string(text))
	if err != nil {
		return err
	}
	*s = sym
	return nil
}

// ParseSymbol converts a one-character token into a Symbol.
func ParseSymbol(token string) (Symbol, error) {
	r, size := utf8.DecodeRuneInString(token)
	if size == 0 || size != len(token) || r == utf8.RuneError {
		return 0, fmt.Errorf("%w: %q is not a single character", ErrInvalidSymbol, token)
	}
	sym := Symbol(r)
	if !sym.Valid() {
		return 0, fmt.Errorf("%w: %q", ErrInvalidSymbol, token)
	}
	return sym, nil
}

// InAlphabet reports whether s belongs to the alphabet accepted from program
// text: ASCII letters, digits and the characters $ - _ ! * .
func (s Symbol) InAlphabet() bool {
	switch {
	case s >= 'a' && s <= 'z', s >= 'A' && s <= 'Z', s >= '0' && s <= '9':
		return true
	}
	switch s {
	case '$', '-', '_', '!', '*', '.':
		return true
	}
	return false
}
