package asm_test

import (
	"flag"
	"os"
	"path/filepath"
	"testing"

	"github.com/mna/dynexec/internal/filetest"
	"github.com/mna/dynexec/lang/bytecode/asm"
	"github.com/stretchr/testify/require"
)

var testUpdateGoldenTests = flag.Bool("test.update-golden-tests", false, "If set, replace expected disassembly golden results with actual results.")

// TestDisassembleGolden assembles every testdata/in/*.dasm file and checks
// its disassembly against the corresponding testdata/out/*.dasm.want golden
// file.
func TestDisassembleGolden(t *testing.T) {
	srcDir, resultDir := filepath.Join("testdata", "in"), filepath.Join("testdata", "out")

	for _, fi := range filetest.SourceFiles(t, srcDir, ".dasm") {
		t.Run(fi.Name(), func(t *testing.T) {
			src, err := os.ReadFile(filepath.Join(srcDir, fi.Name()))
			require.NoError(t, err)

			co, err := asm.Assemble(string(src))
			require.NoError(t, err)

			filetest.DiffOutput(t, fi, asm.Disassemble(co), resultDir, testUpdateGoldenTests)
		})
	}
}
