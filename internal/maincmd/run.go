package maincmd

import (
	"context"
	"fmt"
	"os"

	"github.com/mna/dynexec/lang/bytecode/asm"
	"github.com/mna/dynexec/lang/host"
	"github.com/mna/dynexec/lang/machine"
	"github.com/mna/mainer"
)

// Run assembles the .dasm file named by args[0] and executes it on a fresh
// Thread, printing the resulting value or reporting any error.
func (c *Cmd) Run(ctx context.Context, stdio mainer.Stdio, args []string) error {
	return RunFile(ctx, stdio, c.Safe, args[0])
}

func RunFile(ctx context.Context, stdio mainer.Stdio, safe bool, path string) error {
	src, err := os.ReadFile(path)
	if err != nil {
		return printError(stdio, err)
	}

	co, err := asm.Assemble(string(src))
	if err != nil {
		return printError(stdio, fmt.Errorf("%s: %w", path, err))
	}

	th := machine.NewThread(host.NewRegistry())
	th.SafeMode = safe
	th.Context = ctx

	result, err := machine.Execute(th, co, nil)
	if err != nil {
		return printError(stdio, fmt.Errorf("%s: %w", path, err))
	}

	fmt.Fprintln(stdio.Stdout, result)
	return nil
}
