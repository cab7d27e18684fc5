// Package dynerr defines the error kinds a core execution raises, per the
// error handling design: wrong argument count, wrong type, unbound
// variable, invalid opcode, imbalanced bindings, stack overflow (safe-mode
// only), and quit.
package dynerr

import (
	"fmt"

	"github.com/mna/dynexec/lang/value"
)

// WrongArgCountError is raised by the argument unpacker when the number of
// actuals does not satisfy the arity descriptor.
type WrongArgCountError struct {
	Mandatory int
	NonRest   int
	HasRest   bool
	Got       int
}

func (e *WrongArgCountError) Error() string {
	if e.HasRest {
		return fmt.Sprintf("wrong number of arguments: want at least %d, got %d", e.Mandatory, e.Got)
	}
	return fmt.Sprintf("wrong number of arguments: want %d..%d, got %d", e.Mandatory, e.NonRest, e.Got)
}

// WrongTypeArgumentError is raised when a primitive receives a value that
// does not satisfy its expected predicate.
type WrongTypeArgumentError struct {
	Expected string // name of the expected predicate, e.g. "consp"
	Got      fmt.Stringer
}

func (e *WrongTypeArgumentError) Error() string {
	return fmt.Sprintf("wrong type argument: %s, %s", e.Expected, e.Got)
}

// VoidVariableError is raised by VARREF when a symbol has no value in
// either the plain cell or the generic lookup path.
type VoidVariableError struct {
	Name string
}

func (e *VoidVariableError) Error() string {
	return fmt.Sprintf("symbol's value as variable is void: %s", e.Name)
}

// InvalidOpcodeError is raised when the decoder cannot map a byte to a
// known opcode.
type InvalidOpcodeError struct {
	Opcode byte
	Offset int
}

func (e *InvalidOpcodeError) Error() string {
	return fmt.Sprintf("invalid byte opcode: op=%d, offset=%d", e.Opcode, e.Offset)
}

// ImbalancedBindingsError is raised at RETURN when the binding-stack depth
// does not match the depth recorded on entry; this indicates a compiler bug
// in the code object that produced the frame.
type ImbalancedBindingsError struct {
	EntryDepth, ExitDepth int
}

func (e *ImbalancedBindingsError) Error() string {
	return fmt.Sprintf("binding stack not balanced (serious byte compiler bug): entry=%d exit=%d", e.EntryDepth, e.ExitDepth)
}

// StackOverflowError is raised, in safe-mode builds only, when the operand
// stack would exceed its declared capacity.
type StackOverflowError struct {
	Limit int
}

func (e *StackOverflowError) Error() string {
	return fmt.Sprintf("operand stack overflow: limit=%d", e.Limit)
}

// QuitError is raised by the quit gate when a cooperative cancellation is
// observed and cannot be thrown to a catcher.
type QuitError struct {
	Cause error
}

func (e *QuitError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("quit: %s", e.Cause)
	}
	return "quit"
}

func (e *QuitError) Unwrap() error { return e.Cause }

// SafeModeObsoleteError is raised when an obsolete opcode is dispatched
// while the thread runs in safe/strict mode.
type SafeModeObsoleteError struct {
	Opcode string
}

func (e *SafeModeObsoleteError) Error() string {
	return fmt.Sprintf("%s is an obsolete bytecode, refused in safe mode", e.Opcode)
}

// StepBudgetExceededError is raised when a Thread's MaxSteps is exceeded,
// the unconditional counterpart to the quit gate's context-driven
// cancellation: it fires whether or not a context was ever wired in.
type StepBudgetExceededError struct {
	Limit int
}

func (e *StepBudgetExceededError) Error() string {
	return fmt.Sprintf("step budget exceeded: limit=%d", e.Limit)
}

// NoCatchError is raised when a throw unwinds past every active handler
// without finding one whose tag matches: the Lisp equivalent of Emacs's
// "No catch for tag" error. It is what Execute returns when a throw or
// signal finds no catcher anywhere on the handler stack.
type NoCatchError struct {
	Tag   value.Value
	Value value.Value
}

func (e *NoCatchError) Error() string {
	return fmt.Sprintf("no catch for tag: %s, %s", e.Tag, e.Value)
}
