package progfile

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/aretw0/turing/pkg/domain"
)

var (
	// ErrSyntax is returned when a required token is missing or a line has extra tokens.
	ErrSyntax = errors.New("syntax error")
	// ErrInvalidNumber is returned for a token that is not a non-negative integer.
	ErrInvalidNumber = errors.New("invalid numeric constant")
)

// Tokenizer splits a single line into whitespace separated tokens.
// The line ends at the first newline or comment marker.
type Tokenizer struct {
	line string
	off  int
}

// NewTokenizer creates a tokenizer over line.
func NewTokenizer(line string) *Tokenizer {
	if i := strings.IndexAny(line, "\r\n;#"); i >= 0 {
		line = line[:i]
	}
	return &Tokenizer{line: line}
}

// Next returns the next token, or false at the end of the line.
func (t *Tokenizer) Next() (string, bool) {
	for t.off < len(t.line) && isBlank(t.line[t.off]) {
		t.off++
	}
	if t.off == len(t.line) {
		return "", false
	}
	start := t.off
	for t.off < len(t.line) && !isBlank(t.line[t.off]) {
		t.off++
	}
	return t.line[start:t.off], true
}

// More reports whether another token follows, without consuming it.
func (t *Tokenizer) More() bool {
	return strings.TrimLeft(t.line[t.off:], " \t") != ""
}

// Rest returns the unread remainder of the line without leading blanks.
func (t *Tokenizer) Rest() string {
	return strings.TrimLeft(t.line[t.off:], " \t")
}

// String returns the next token as a required argument.
func (t *Tokenizer) String() (string, error) {
	tok, ok := t.Next()
	if !ok {
		return "", fmt.Errorf("%w: missing argument", ErrSyntax)
	}
	return tok, nil
}

// Symbol returns the next token as a symbol of the program alphabet.
func (t *Tokenizer) Symbol() (domain.Symbol, error) {
	tok, err := t.String()
	if err != nil {
		return 0, err
	}
	sym, err := domain.ParseSymbol(tok)
	if err != nil {
		return 0, err
	}
	if !sym.InAlphabet() {
		return 0, fmt.Errorf("%w: invalid character symbol %q", domain.ErrInvalidSymbol, tok)
	}
	return sym, nil
}

// Direction returns the next token as a head direction.
func (t *Tokenizer) Direction() (domain.Direction, error) {
	tok, err := t.String()
	if err != nil {
		return 0, err
	}
	dir, err := domain.ParseDirection(tok)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrSyntax, err)
	}
	return dir, nil
}

// Uint returns the next token as a non-negative integer.
func (t *Tokenizer) Uint() (int, error) {
	tok, err := t.String()
	if err != nil {
		return 0, err
	}
	n, err := strconv.Atoi(tok)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidNumber, tok)
	}
	return n, nil
}

// End fails if tokens remain on the line.
func (t *Tokenizer) End() error {
	if tok, ok := t.Next(); ok {
		return fmt.Errorf("%w: unexpected token %q", ErrSyntax, tok)
	}
	return nil
}

// Instruction reads the five operands of an instruction: from read to write dir.
func (t *Tokenizer) Instruction() (domain.InstructionText, error) {
	var ins domain.InstructionText
	var err error
	if ins.From, err = t.String(); err != nil {
		return ins, err
	}
	if ins.Read, err = t.Symbol(); err != nil {
		return ins, err
	}
	if ins.To, err = t.String(); err != nil {
		return ins, err
	}
	if ins.Write, err = t.Symbol(); err != nil {
		return ins, err
	}
	if ins.Dir, err = t.Direction(); err != nil {
		return ins, err
	}
	return ins, nil
}

func isBlank(c byte) bool {
	return c == ' ' || c == '\t'
}
