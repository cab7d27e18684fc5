package machine

import (
	"context"

	"github.com/mna/dynexec/lang/dynerr"
)

// quitAmortization is how many taken branches accumulate between quit-gate
// polls. Checking ctx.Done() on every single branch would dominate the
// dispatch loop's cost; checking it this rarely keeps a cancellation
// responsive to a human without being free in the hot path.
const quitAmortization = 64

// maybeQuit polls ctx on amortized taken branches, a cooperative quit/
// signal gate. It returns a QuitError once ctx is done; the dispatch loop
// propagates that as any other error, unwinding bindings and handlers on
// its way out.
func maybeQuit(ctx context.Context, f *Frame) error {
	f.branchCount++
	if f.branchCount < quitAmortization {
		return nil
	}
	f.branchCount = 0
	select {
	case <-ctx.Done():
		return &dynerr.QuitError{Cause: ctx.Err()}
	default:
		return nil
	}
}
