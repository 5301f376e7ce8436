package runtime

import (
	"fmt"

	"github.com/aretw0/turing/pkg/domain"
)

// Interner maps state names to small integer codes and back.
// Codes are allocated sequentially and never reused or removed.
type Interner struct {
	codes map[string]domain.StateCode
	names []string
}

// NewInterner returns an interner holding the reserved HALT and INIT states.
func NewInterner() *Interner {
	in := &Interner{codes: make(map[string]domain.StateCode)}
	in.Intern(domain.HaltStateName)
	in.Intern(domain.InitStateName)
	return in
}

// Intern returns the code of name, allocating the next one if name is new.
func (in *Interner) Intern(name string) domain.StateCode {
	if code, ok := in.codes[name]; ok {
		return code
	}
	code := domain.StateCode(len(in.names))
	in.names = append(in.names, name)
	in.codes[name] = code
	return code
}

// Code looks up name without interning it.
func (in *Interner) Code(name string) (domain.StateCode, bool) {
	code, ok := in.codes[name]
	return code, ok
}

// Name returns the name of code. Panics if code was never interned.
func (in *Interner) Name(code domain.StateCode) string {
	if code < 0 || int(code) >= len(in.names) {
		panic(fmt.Sprintf("runtime: state code %d was never interned", code))
	}
	return in.names[code]
}

// Len returns the number of interned states, reserved ones included.
func (in *Interner) Len() int {
	return len(in.names)
}

// Names returns the interned names in code order.
func (in *Interner) Names() []string {
	out := make([]string, len(in.names))
	copy(out, in.names)
	return out
}
