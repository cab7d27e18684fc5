package maincmd

import (
	"context"
	"fmt"
	"os"

	"github.com/mna/dynexec/lang/bytecode/asm"
	"github.com/mna/mainer"
)

// Disasm assembles the .dasm file named by args[0] and prints its
// human-readable disassembly.
func (c *Cmd) Disasm(ctx context.Context, stdio mainer.Stdio, args []string) error {
	return DisasmFile(stdio, args[0])
}

func DisasmFile(stdio mainer.Stdio, path string) error {
	src, err := os.ReadFile(path)
	if err != nil {
		return printError(stdio, err)
	}

	co, err := asm.Assemble(string(src))
	if err != nil {
		return printError(stdio, fmt.Errorf("%s: %w", path, err))
	}

	fmt.Fprint(stdio.Stdout, asm.Disassemble(co))
	return nil
}
