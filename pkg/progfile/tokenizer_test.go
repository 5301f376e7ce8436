package progfile_test

import (
	"testing"

	"github.com/aretw0/turing/pkg/domain"
	"github.com/aretw0/turing/pkg/progfile"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenizer_Next(t *testing.T) {
	tests := []struct {
		name string
		line string
		want []string
	}{
		{"Plain", "add $ 0 A 1 >", []string{"add", "$", "0", "A", "1", ">"}},
		{"Extra Blanks", "  step \t 10  ", []string{"step", "10"}},
		{"Semicolon Comment", "reset ; back to start", []string{"reset"}},
		{"Hash Comment", "pp# listing", []string{"pp"}},
		{"Only Comment", "; nothing here", nil},
		{"Carriage Return", "run\r\n", []string{"run"}},
		{"Empty", "", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tok := progfile.NewTokenizer(tt.line)
			var got []string
			for {
				s, ok := tok.Next()
				if !ok {
					break
				}
				got = append(got, s)
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestTokenizer_Rest(t *testing.T) {
	tok := progfile.NewTokenizer("echo   hello  world ; ignored")
	cmd, ok := tok.Next()
	require.True(t, ok)
	assert.Equal(t, "echo", cmd)
	assert.Equal(t, "hello  world ", tok.Rest())
}

func TestTokenizer_TypedArguments(t *testing.T) {
	ins, err := progfile.NewTokenizer("q0 a q1 - <").Instruction()
	require.NoError(t, err)
	assert.Equal(t, domain.InstructionText{From: "q0", Read: 'a', To: "q1", Write: domain.Wildcard, Dir: domain.Left}, ins)

	_, err = progfile.NewTokenizer("q0 a q1 -").Instruction()
	assert.ErrorIs(t, err, progfile.ErrSyntax)

	_, err = progfile.NewTokenizer("q0 % q1 1 >").Instruction()
	assert.ErrorIs(t, err, domain.ErrInvalidSymbol)

	_, err = progfile.NewTokenizer("q0 ab q1 1 >").Instruction()
	assert.ErrorIs(t, err, domain.ErrInvalidSymbol)

	_, err = progfile.NewTokenizer("q0 a q1 1 ^").Instruction()
	assert.ErrorIs(t, err, progfile.ErrSyntax)

	n, err := progfile.NewTokenizer("42").Uint()
	require.NoError(t, err)
	assert.Equal(t, 42, n)

	for _, bad := range []string{"-1", "4x", "1.5"} {
		_, err = progfile.NewTokenizer(bad).Uint()
		assert.ErrorIs(t, err, progfile.ErrInvalidNumber, bad)
	}

	assert.ErrorIs(t, progfile.NewTokenizer("extra").End(), progfile.ErrSyntax)
	assert.NoError(t, progfile.NewTokenizer(" ; comment").End())
}
