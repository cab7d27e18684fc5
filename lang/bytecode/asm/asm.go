// Package asm assembles and disassembles a human-readable text form of a
// bytecode.CodeObject. There is no compiler in scope, so this text format is
// how the dispatch loop in lang/machine is exercised by tests (and by the
// "disasm"/"run" commands) without one.
package asm

import (
	"bufio"
	"fmt"
	"strconv"
	"strings"

	"github.com/mna/dynexec/lang/bytecode"
	"github.com/mna/dynexec/lang/value"
)

// Text layout, one directive or instruction per line; blank lines and lines
// starting with ';' are ignored:
//
//	arity <mandatory> <nonrest> [rest]
//	const int <n>
//	const float <n>
//	const string <quoted>
//	const sym <name>
//	const nil
//	label:
//	<mnemonic> [operand]
//
// Mnemonics match Opcode.String() exactly: immediate-operand families spell
// out the variant (varref0, varref6 <n>, varref7 <n>), jump opcodes take a
// label name, and the ambiguous "constant"/"constant2" mnemonics take an
// explicit pool index.

type instr struct {
	label   string // non-empty if this line was "label:"
	mnem    string
	operand string // raw operand token, empty if none
	line    int
}

// Assemble parses src and produces the CodeObject it describes.
func Assemble(src string) (*bytecode.CodeObject, error) {
	p := &parser{}
	if err := p.run(src); err != nil {
		return nil, err
	}
	return p.encode()
}

type parser struct {
	mandatory, nonrest int
	rest               bool
	arityLine          int
	maxDepth           int
	constants          []value.Value
	instrs             []instr
}

func (p *parser) run(src string) error {
	sc := bufio.NewScanner(strings.NewReader(src))
	lineNo := 0
	for sc.Scan() {
		lineNo++
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, ";") {
			continue
		}
		if strings.HasSuffix(line, ":") && !strings.Contains(line, " ") {
			p.instrs = append(p.instrs, instr{label: strings.TrimSuffix(line, ":"), line: lineNo})
			continue
		}
		fields := strings.SplitN(line, " ", 2)
		head := fields[0]
		rest := ""
		if len(fields) == 2 {
			rest = strings.TrimSpace(fields[1])
		}
		switch head {
		case "arity":
			if err := p.parseArity(rest, lineNo); err != nil {
				return err
			}
		case "maxdepth":
			n, err := strconv.Atoi(rest)
			if err != nil {
				return fmt.Errorf("line %d: bad maxdepth: %w", lineNo, err)
			}
			p.maxDepth = n
		case "const":
			if err := p.parseConst(rest, lineNo); err != nil {
				return err
			}
		default:
			p.instrs = append(p.instrs, instr{mnem: head, operand: rest, line: lineNo})
		}
	}
	return sc.Err()
}

func (p *parser) parseArity(rest string, lineNo int) error {
	fields := strings.Fields(rest)
	if len(fields) < 2 {
		return fmt.Errorf("line %d: arity needs mandatory and nonrest", lineNo)
	}
	m, err := strconv.Atoi(fields[0])
	if err != nil {
		return fmt.Errorf("line %d: bad arity mandatory: %w", lineNo, err)
	}
	n, err := strconv.Atoi(fields[1])
	if err != nil {
		return fmt.Errorf("line %d: bad arity nonrest: %w", lineNo, err)
	}
	p.mandatory, p.nonrest = m, n
	p.rest = len(fields) == 3 && fields[2] == "rest"
	p.arityLine = lineNo
	return nil
}

func (p *parser) parseConst(rest string, lineNo int) error {
	fields := strings.SplitN(rest, " ", 2)
	kind := fields[0]
	arg := ""
	if len(fields) == 2 {
		arg = fields[1]
	}
	switch kind {
	case "nil":
		p.constants = append(p.constants, value.Nil)
	case "t":
		p.constants = append(p.constants, value.T)
	case "int":
		n, err := strconv.ParseInt(arg, 10, 64)
		if err != nil {
			return fmt.Errorf("line %d: bad int constant: %w", lineNo, err)
		}
		p.constants = append(p.constants, value.NewInteger(n))
	case "float":
		f, err := strconv.ParseFloat(arg, 64)
		if err != nil {
			return fmt.Errorf("line %d: bad float constant: %w", lineNo, err)
		}
		p.constants = append(p.constants, value.Float(f))
	case "string":
		s, err := strconv.Unquote(arg)
		if err != nil {
			return fmt.Errorf("line %d: bad string constant: %w", lineNo, err)
		}
		p.constants = append(p.constants, value.NewString(s))
	case "sym":
		p.constants = append(p.constants, value.Intern(arg))
	default:
		return fmt.Errorf("line %d: unknown constant kind %q", lineNo, kind)
	}
	return nil
}
