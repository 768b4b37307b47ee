package asm

import (
	"errors"
	"fmt"

	"github.com/n2t-go/toolchain/pkg/hack"
)

// CodeGenerator renders a Program of already-built Statements back to Hack assembly
// text. The VM translator is its main caller: it builds AInstruction/CInstruction/
// LabelDecl values directly (rather than parsing them from text) and uses this type to
// turn that structured form into the lines it writes to a .asm file.
type CodeGenerator struct{ program []Statement }

// NewCodeGenerator returns a CodeGenerator over program.
func NewCodeGenerator(program []Statement) CodeGenerator {
	return CodeGenerator{program: program}
}

// Generate renders every statement, in order, to its textual assembly form.
func (cg *CodeGenerator) Generate() ([]string, error) {
	lines := make([]string, 0, len(cg.program))
	for _, stmt := range cg.program {
		var (
			line string
			err  error
		)
		switch typed := stmt.(type) {
		case AInstruction:
			line, err = cg.generateAInst(typed)
		case CInstruction:
			line, err = cg.generateCInst(typed)
		case LabelDecl:
			line, err = cg.generateLabelDecl(typed)
		default:
			err = fmt.Errorf("asm: unrecognized statement type %T", stmt)
		}
		if err != nil {
			return nil, err
		}
		lines = append(lines, line)
	}
	return lines, nil
}

func (cg *CodeGenerator) generateAInst(stmt AInstruction) (string, error) {
	if stmt.Location == "" {
		return "", errors.New("asm: A-instruction requires a non-empty location")
	}
	return fmt.Sprintf("@%s", stmt.Location), nil
}

func (cg *CodeGenerator) generateCInst(stmt CInstruction) (string, error) {
	if stmt.Comp == "" {
		return "", errors.New("asm: C-instruction requires a comp expression")
	}

	switch {
	case stmt.Dest != hack.DestNone && stmt.Jump != "":
		return fmt.Sprintf("%s=%s;%s", stmt.Dest, stmt.Comp, stmt.Jump), nil
	case stmt.Dest != hack.DestNone:
		return fmt.Sprintf("%s=%s", stmt.Dest, stmt.Comp), nil
	case stmt.Jump != "":
		return fmt.Sprintf("%s;%s", stmt.Comp, stmt.Jump), nil
	default:
		return stmt.Comp, nil
	}
}

func (cg *CodeGenerator) generateLabelDecl(stmt LabelDecl) (string, error) {
	if _, found := hack.BuiltInTable[stmt.Name]; found {
		return "", fmt.Errorf("asm: label %q collides with a built-in symbol", stmt.Name)
	}
	return fmt.Sprintf("(%s)", stmt.Name), nil
}
