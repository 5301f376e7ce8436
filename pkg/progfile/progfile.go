package progfile

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/aretw0/turing/pkg/domain"
)

// File is a parsed program file. A zero MemorySize or InitialSymbol means the
// directive was absent.
type File struct {
	MemorySize    int
	InitialSymbol domain.Symbol
	Instructions  []domain.InstructionText
}

// Machine is the subset of the engine a program file is applied to.
type Machine interface {
	SetMemorySize(n int) error
	SetInitialSymbol(s domain.Symbol) error
	AddInstruction(from string, read domain.Symbol, to string, write domain.Symbol, dir domain.Direction) error
}

// FromSnapshot extracts the persisted part of a machine image.
func FromSnapshot(snap domain.Snapshot) *File {
	return &File{
		MemorySize:    snap.MemorySize,
		InitialSymbol: snap.InitialSymbol,
		Instructions:  snap.Program,
	}
}

// Parse reads a program. Malformed lines are skipped and reported together in a
// *LoadError; the returned File holds everything that did parse.
func Parse(r io.Reader) (*File, error) {
	f := &File{}
	var lineErrs []*LineError

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	n := 0
	for scanner.Scan() {
		n++
		text := scanner.Text()
		if err := f.parseLine(text); err != nil {
			lineErrs = append(lineErrs, &LineError{Line: n, Text: text, Err: err})
		}
	}
	if err := scanner.Err(); err != nil {
		return f, fmt.Errorf("failed to read program: %w", err)
	}
	if len(lineErrs) > 0 {
		return f, &LoadError{Lines: lineErrs}
	}
	return f, nil
}

// ReadFile parses the program file at path.
func ReadFile(path string) (*File, error) {
	fh, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open program file: %w", err)
	}
	defer fh.Close()

	f, err := Parse(fh)
	var loadErr *LoadError
	if errors.As(err, &loadErr) {
		loadErr.Path = path
	}
	return f, err
}

func (f *File) parseLine(line string) error {
	t := NewTokenizer(line)
	keyword, ok := t.Next()
	if !ok {
		return nil
	}

	switch keyword {
	case "memsize", "memorysize":
		n, err := t.Uint()
		if err != nil {
			return err
		}
		if err := t.End(); err != nil {
			return err
		}
		if n == 0 {
			return fmt.Errorf("%w: memsize must be positive", ErrInvalidNumber)
		}
		f.MemorySize = n
	case "initsymbol", "initialsymbol":
		s, err := t.Symbol()
		if err != nil {
			return err
		}
		if err := t.End(); err != nil {
			return err
		}
		f.InitialSymbol = s
	case "+", "add":
		ins, err := t.Instruction()
		if err != nil {
			return err
		}
		if err := t.End(); err != nil {
			return err
		}
		f.Instructions = append(f.Instructions, ins)
	default:
		return fmt.Errorf("%w %q", ErrUnknownDirective, keyword)
	}
	return nil
}

// Apply replays the file onto m: memory size, initial symbol, then every
// instruction in file order. Failures are collected, not fatal.
func (f *File) Apply(m Machine) error {
	var errs []error
	if f.MemorySize != 0 {
		if err := m.SetMemorySize(f.MemorySize); err != nil {
			errs = append(errs, fmt.Errorf("memsize: %w", err))
		}
	}
	if f.InitialSymbol != 0 {
		if err := m.SetInitialSymbol(f.InitialSymbol); err != nil {
			errs = append(errs, fmt.Errorf("initsymbol: %w", err))
		}
	}
	for i, ins := range f.Instructions {
		if err := m.AddInstruction(ins.From, ins.Read, ins.To, ins.Write, ins.Dir); err != nil {
			errs = append(errs, fmt.Errorf("instruction %d: %w", i+1, err))
		}
	}
	return errors.Join(errs...)
}

// Write renders f in the program file format.
func Write(w io.Writer, f *File) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintln(bw, "; machine program output")
	if f.MemorySize != 0 {
		fmt.Fprintf(bw, "memsize %d\n", f.MemorySize)
	}
	if f.InitialSymbol != 0 {
		fmt.Fprintf(bw, "initsymbol %s\n", f.InitialSymbol)
	}
	fmt.Fprintln(bw, "; transition function")
	for _, ins := range f.Instructions {
		fmt.Fprintf(bw, "+ %s\n", ins)
	}
	fmt.Fprintln(bw, "; end of file")
	return bw.Flush()
}

// WriteFile writes f to path atomically: a temporary file in the same directory
// is synced and then renamed over the destination.
func WriteFile(path string, f *File) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".tmp-"+filepath.Base(path)+"-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	defer func() {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
	}()

	if err := Write(tmp, f); err != nil {
		return fmt.Errorf("failed to write program: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		return fmt.Errorf("failed to fsync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("failed to rename temp file: %w", err)
	}
	return nil
}
