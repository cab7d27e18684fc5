package asm_test

import (
	"testing"

	"github.com/mna/dynexec/lang/bytecode"
	"github.com/mna/dynexec/lang/bytecode/asm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const addOneSrc = `
arity 1 1
const int 1
varref6 0
constant 0
plus
return
`

func TestAssembleSimple(t *testing.T) {
	co, err := asm.Assemble(addOneSrc)
	require.NoError(t, err)
	assert.Equal(t, 1, co.Arity.Mandatory())
	assert.Equal(t, 1, co.Arity.NonRest())
	assert.False(t, co.Arity.HasRest())
	require.Len(t, co.Constants, 1)
	assert.Equal(t, bytecode.Opcode(bytecode.VARREF+6), bytecode.Opcode(co.Bytes[0]))
	assert.EqualValues(t, 0, co.Bytes[1])
	assert.Equal(t, byte(bytecode.CONSTANTBASE), co.Bytes[2])
	assert.Equal(t, byte(bytecode.PLUSOP), co.Bytes[3])
	assert.Equal(t, byte(bytecode.RETURN), co.Bytes[4])
}

func TestAssembleDisassembleRoundTrip(t *testing.T) {
	srcs := []string{
		addOneSrc,
		`
arity 0 0 rest
const string "hi"
rgoto L0
discard
L0:
constant 0
return
`,
		`
arity 2 2
maxdepth 6
goto L1
discard
L1:
dup
return
`,
		`
arity 0 0
const int 1
const int 2
const int 3
pushcatch L0
constant2 2
pophandler
goto L1
L0:
constant2 1
L1:
return
`,
	}
	for _, src := range srcs {
		co, err := asm.Assemble(src)
		require.NoError(t, err)

		text := asm.Disassemble(co)
		co2, err := asm.Assemble(text)
		require.NoError(t, err)

		assert.Equal(t, co.Bytes, co2.Bytes)
		assert.Equal(t, co.Arity, co2.Arity)
		assert.Equal(t, len(co.Constants), len(co2.Constants))
	}
}

func TestAssembleUndefinedLabel(t *testing.T) {
	_, err := asm.Assemble(`
arity 0 0
goto Lnope
return
`)
	assert.Error(t, err)
}

func TestAssembleUnknownMnemonic(t *testing.T) {
	_, err := asm.Assemble(`
arity 0 0
frobnicate
`)
	assert.Error(t, err)
}
