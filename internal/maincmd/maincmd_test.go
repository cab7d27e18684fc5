package maincmd_test

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/mna/dynexec/internal/maincmd"
	"github.com/mna/mainer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTempDasm(t *testing.T, src string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "prog.dasm")
	require.NoError(t, os.WriteFile(path, []byte(src), 0600))
	return path
}

func TestRunFile(t *testing.T) {
	path := writeTempDasm(t, `
arity 0 0
const int 40
const int 2
constant 0
constant 1
plus
return
`)
	var out, errOut bytes.Buffer
	stdio := mainer.Stdio{Stdout: &out, Stderr: &errOut}

	err := maincmd.RunFile(context.Background(), stdio, false, path)
	require.NoError(t, err)
	assert.Equal(t, "42\n", out.String())
	assert.Empty(t, errOut.String())
}

func TestRunFileReportsError(t *testing.T) {
	path := writeTempDasm(t, `
arity 2 2
plus
return
`)
	var out, errOut bytes.Buffer
	stdio := mainer.Stdio{Stdout: &out, Stderr: &errOut}

	err := maincmd.RunFile(context.Background(), stdio, false, path)
	assert.Error(t, err)
	assert.NotEmpty(t, errOut.String())
}

func TestDisasmFile(t *testing.T) {
	path := writeTempDasm(t, `
arity 0 0
const int 1
constant 0
return
`)
	var out, errOut bytes.Buffer
	stdio := mainer.Stdio{Stdout: &out, Stderr: &errOut}

	err := maincmd.DisasmFile(stdio, path)
	require.NoError(t, err)
	assert.Contains(t, out.String(), "const int 1")
	assert.Contains(t, out.String(), "return")
}
