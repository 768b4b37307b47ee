package asm

import (
	"fmt"
	"strconv"

	"github.com/n2t-go/toolchain/pkg/hack"
)

// Lowerer converts a parsed Program into a hack.Program plus the SymbolTable needed to
// resolve it. This is pass one of the two-pass assembler: it walks the statements once,
// tracking the ROM address of each surviving (non-label) instruction, and binds every
// label declaration to the address of the instruction that follows it. No variable
// addresses are allocated here; that happens lazily during hack.Encoder.Encode, which is
// pass two.
type Lowerer struct{ program Program }

// NewLowerer returns a Lowerer over program.
func NewLowerer(program Program) Lowerer {
	return Lowerer{program: program}
}

// Lower performs pass one and returns the flattened instruction stream alongside the
// SymbolTable it built. A label declared twice is rejected rather than silently
// overwritten.
func (l *Lowerer) Lower() (hack.Program, *hack.SymbolTable, error) {
	table := hack.NewSymbolTable()
	converted := make(hack.Program, 0, len(l.program))

	for _, stmt := range l.program {
		switch typed := stmt.(type) {
		case AInstruction:
			inst, err := lowerAInst(typed)
			if err != nil {
				return nil, nil, err
			}
			converted = append(converted, inst)

		case CInstruction:
			converted = append(converted, hack.CInstruction{Dest: typed.Dest, Comp: typed.Comp, Jump: typed.Jump})

		case LabelDecl:
			if err := table.AddLabel(typed.Name, uint16(len(converted))); err != nil {
				return nil, nil, err
			}

		default:
			return nil, nil, fmt.Errorf("asm: unrecognized statement type %T", stmt)
		}
	}

	return converted, table, nil
}

func lowerAInst(inst AInstruction) (hack.Instruction, error) {
	if _, ok := hack.BuiltInTable[inst.Location]; ok {
		return hack.AInstruction{LocType: hack.BuiltIn, LocName: inst.Location}, nil
	}
	if _, err := strconv.ParseUint(inst.Location, 10, 32); err == nil {
		return hack.AInstruction{LocType: hack.Raw, LocName: inst.Location}, nil
	}
	return hack.AInstruction{LocType: hack.Label, LocName: inst.Location}, nil
}
