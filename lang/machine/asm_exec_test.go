package machine_test

import (
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"

	"github.com/mna/dynexec/lang/bytecode/asm"
	"github.com/mna/dynexec/lang/host"
	"github.com/mna/dynexec/lang/machine"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// rxWant and rxFail extract the expected outcome from a ".dasm" file's
// leading comment line:
//
//	; want: <value>   -- execution must succeed, result.String() == <value>
//	; fail: <substr>  -- execution must fail with an error containing <substr>
var (
	rxWant = regexp.MustCompile(`^;\s*want:\s*(.+)$`)
	rxFail = regexp.MustCompile(`^;\s*fail:\s*(.+)$`)
)

// TestExecAsm loads every testdata/asm/*.dasm file, assembles it, runs it
// on a fresh Thread, and checks the outcome against its leading comment.
func TestExecAsm(t *testing.T) {
	dir := filepath.Join("testdata", "asm")
	des, err := os.ReadDir(dir)
	require.NoError(t, err)

	for _, de := range des {
		if de.IsDir() || filepath.Ext(de.Name()) != ".dasm" {
			continue
		}
		t.Run(de.Name(), func(t *testing.T) {
			b, err := os.ReadFile(filepath.Join(dir, de.Name()))
			require.NoError(t, err)
			src := string(b)

			var want, wantFail string
			for _, line := range strings.Split(src, "\n") {
				line = strings.TrimSpace(line)
				if m := rxWant.FindStringSubmatch(line); m != nil {
					want = m[1]
				}
				if m := rxFail.FindStringSubmatch(line); m != nil {
					wantFail = m[1]
				}
			}
			require.True(t, want != "" || wantFail != "", "no '; want:' or '; fail:' assertion found")

			co, err := asm.Assemble(src)
			require.NoError(t, err)

			th := machine.NewThread(host.NewRegistry())
			res, err := machine.Execute(th, co, nil)

			if wantFail != "" {
				assert.ErrorContains(t, err, wantFail, "result: %v", res)
				return
			}
			if assert.NoError(t, err, "result: %v", res) {
				assert.Equal(t, want, res.String())
			}
		})
	}
}
