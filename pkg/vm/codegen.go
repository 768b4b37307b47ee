package vm

import (
	"fmt"

	"github.com/n2t-go/toolchain/pkg/hack"

	"github.com/n2t-go/toolchain/pkg/asm"
)

// segmentBase names the Hack built-in register holding a segment's base address. Only
// local, argument, this and that are indirected through a base register; temp, pointer
// and static are addressed directly.
var segmentBase = map[Segment]string{
	SegLocal:    "LCL",
	SegArgument: "ARG",
	SegThis:     "THIS",
	SegThat:     "THAT",
}

var compareJump = map[ArithOp]string{
	Eq: "JEQ",
	Gt: "JGT",
	Lt: "JLT",
}

var binaryOp = map[ArithOp]string{
	// x is the first popped value (the old stack top), y is the one beneath it; the
	// result of `y op x` replaces both, so the comp expression below always computes
	// `M op D` where D holds x and M holds y at the instant it runs.
	Add: "D+M",
	And: "D&M",
	Or:  "D|M",
	Sub: "M-D",
}

// Fragment pairs the assembly produced for one VM command with a human-readable
// rendering of that command, used to prefix the emitted .asm with a "// <command>"
// comment the way a hand-written translator would.
type Fragment struct {
	Comment    string
	Statements []asm.Statement
}

// CodeGenerator lowers VM commands to Hack assembly fragments. jumpCount and callCount
// are run-scoped: they must persist across every translation unit fed to Translate over
// the lifetime of one output file, so that generated comparison labels and return-address
// labels stay globally unique. fileStem is unit-scoped and must be reset with
// SetFileStem before translating each new .vm file, since it governs static-segment
// name mangling.
type CodeGenerator struct {
	fileStem  string
	jumpCount int
	callCount map[string]int
}

// NewCodeGenerator returns a CodeGenerator with fresh run-scoped counters.
func NewCodeGenerator() *CodeGenerator {
	return &CodeGenerator{callCount: map[string]int{}}
}

// SetFileStem updates the translation unit whose static segment references should be
// mangled with stem. It does not reset jumpCount or callCount.
func (cg *CodeGenerator) SetFileStem(stem string) {
	cg.fileStem = stem
}

// Bootstrap returns the fragment that must be emitted first, and only, in directory
// mode: it sets SP to 256 and calls Sys.init with zero arguments. The return-address
// label is hardcoded to Sys.init$ret.0 since it precedes any use of the normal call
// counter and is therefore guaranteed unique on its own.
func (cg *CodeGenerator) Bootstrap() Fragment {
	stmts := []asm.Statement{
		asm.AInstruction{Location: "256"},
		asm.CInstruction{Dest: hack.DestD, Comp: "A"},
		asm.AInstruction{Location: "SP"},
		asm.CInstruction{Dest: hack.DestM, Comp: "D"},
	}
	stmts = append(stmts, cg.emitCall("Sys.init", 0, "Sys.init$ret.0")...)
	return Fragment{Comment: "bootstrap", Statements: stmts}
}

// Translate lowers every command in module to one Fragment per command, in order.
func (cg *CodeGenerator) Translate(module Module) ([]Fragment, error) {
	fragments := make([]Fragment, 0, len(module))
	for _, cmd := range module {
		stmts, err := cg.translateOne(cmd)
		if err != nil {
			return nil, err
		}
		fragments = append(fragments, Fragment{Comment: formatCommand(cmd), Statements: stmts})
	}
	return fragments, nil
}

func (cg *CodeGenerator) translateOne(cmd Command) ([]asm.Statement, error) {
	switch typed := cmd.(type) {
	case ArithmeticCommand:
		return cg.translateArithmetic(typed)
	case PushCommand:
		return cg.translatePush(typed)
	case PopCommand:
		return cg.translatePop(typed)
	case LabelCommand:
		return []asm.Statement{asm.LabelDecl{Name: typed.Name}}, nil
	case GotoCommand:
		return []asm.Statement{
			asm.AInstruction{Location: typed.Name},
			asm.CInstruction{Comp: "0", Jump: "JMP"},
		}, nil
	case IfGotoCommand:
		stmts := popToD()
		stmts = append(stmts,
			asm.AInstruction{Location: typed.Name},
			asm.CInstruction{Comp: "D", Jump: "JNE"},
		)
		return stmts, nil
	case FunctionCommand:
		return cg.translateFunction(typed)
	case CallCommand:
		cg.callCount[typed.Name]++
		retLabel := fmt.Sprintf("%s$ret.%d", typed.Name, cg.callCount[typed.Name])
		return cg.emitCall(typed.Name, typed.NArgs, retLabel), nil
	case ReturnCommand:
		return translateReturn(), nil
	default:
		return nil, fmt.Errorf("vm: unrecognized command type %T", cmd)
	}
}

// ---------------------------------------------------------------------------
// Arithmetic and logic

func (cg *CodeGenerator) translateArithmetic(cmd ArithmeticCommand) ([]asm.Statement, error) {
	switch cmd.Op {
	case Add, Sub, And, Or:
		return binaryArithmetic(binaryOp[cmd.Op]), nil
	case Neg:
		return unaryArithmetic("-M"), nil
	case Not:
		return unaryArithmetic("!M"), nil
	case Eq, Gt, Lt:
		return cg.translateCompare(cmd.Op), nil
	default:
		return nil, fmt.Errorf("vm: unknown arithmetic operator %q", cmd.Op)
	}
}

// binaryArithmetic pops x then y and pushes the result of evaluating expr, where D holds
// x and M holds y at the moment expr is computed.
func binaryArithmetic(expr string) []asm.Statement {
	return []asm.Statement{
		asm.AInstruction{Location: "SP"},
		asm.CInstruction{Dest: hack.DestM, Comp: "M-1"},
		asm.CInstruction{Dest: hack.DestA, Comp: "M"},
		asm.CInstruction{Dest: hack.DestD, Comp: "M"},
		asm.AInstruction{Location: "SP"},
		asm.CInstruction{Dest: hack.DestM, Comp: "M-1"},
		asm.CInstruction{Dest: hack.DestA, Comp: "M"},
		asm.CInstruction{Dest: hack.DestM, Comp: expr},
		asm.AInstruction{Location: "SP"},
		asm.CInstruction{Dest: hack.DestM, Comp: "M+1"},
	}
}

func unaryArithmetic(expr string) []asm.Statement {
	return []asm.Statement{
		asm.AInstruction{Location: "SP"},
		asm.CInstruction{Dest: hack.DestA, Comp: "M-1"},
		asm.CInstruction{Dest: hack.DestM, Comp: expr},
	}
}

func (cg *CodeGenerator) translateCompare(op ArithOp) []asm.Statement {
	n := cg.jumpCount
	cg.jumpCount++

	trueLabel := fmt.Sprintf("LABEL%d", n)
	endLabel := fmt.Sprintf("LABEL%dEND", n)

	return []asm.Statement{
		asm.AInstruction{Location: "SP"},
		asm.CInstruction{Dest: hack.DestM, Comp: "M-1"},
		asm.CInstruction{Dest: hack.DestA, Comp: "M"},
		asm.CInstruction{Dest: hack.DestD, Comp: "M"},
		asm.AInstruction{Location: "SP"},
		asm.CInstruction{Dest: hack.DestM, Comp: "M-1"},
		asm.CInstruction{Dest: hack.DestA, Comp: "M"},
		asm.CInstruction{Dest: hack.DestD, Comp: "M-D"},
		asm.AInstruction{Location: trueLabel},
		asm.CInstruction{Comp: "D", Jump: compareJump[op]},
		asm.AInstruction{Location: "SP"},
		asm.CInstruction{Dest: hack.DestA, Comp: "M"},
		asm.CInstruction{Dest: hack.DestM, Comp: "0"},
		asm.AInstruction{Location: endLabel},
		asm.CInstruction{Comp: "0", Jump: "JMP"},
		asm.LabelDecl{Name: trueLabel},
		asm.AInstruction{Location: "SP"},
		asm.CInstruction{Dest: hack.DestA, Comp: "M"},
		asm.CInstruction{Dest: hack.DestM, Comp: "-1"},
		asm.LabelDecl{Name: endLabel},
		asm.AInstruction{Location: "SP"},
		asm.CInstruction{Dest: hack.DestM, Comp: "M+1"},
	}
}

// ---------------------------------------------------------------------------
// Memory access

func (cg *CodeGenerator) translatePush(cmd PushCommand) ([]asm.Statement, error) {
	switch cmd.Segment {
	case SegConstant:
		return pushFromD(asm.AInstruction{Location: fmt.Sprint(cmd.Index)}, "A"), nil

	case SegLocal, SegArgument, SegThis, SegThat:
		base := segmentBase[cmd.Segment]
		stmts := []asm.Statement{
			asm.AInstruction{Location: base},
			asm.CInstruction{Dest: hack.DestD, Comp: "M"},
			asm.AInstruction{Location: fmt.Sprint(cmd.Index)},
			asm.CInstruction{Dest: hack.DestA, Comp: "D+A"},
			asm.CInstruction{Dest: hack.DestD, Comp: "M"},
		}
		return append(stmts, pushD()...), nil

	case SegTemp:
		if cmd.Index > 7 {
			return nil, fmt.Errorf("vm: temp index %d out of range", cmd.Index)
		}
		stmts := []asm.Statement{
			asm.AInstruction{Location: "5"},
			asm.CInstruction{Dest: hack.DestD, Comp: "A"},
			asm.AInstruction{Location: fmt.Sprint(cmd.Index)},
			asm.CInstruction{Dest: hack.DestA, Comp: "D+A"},
			asm.CInstruction{Dest: hack.DestD, Comp: "M"},
		}
		return append(stmts, pushD()...), nil

	case SegStatic:
		stmts := []asm.Statement{
			asm.AInstruction{Location: cg.staticSymbol(cmd.Index)},
			asm.CInstruction{Dest: hack.DestD, Comp: "M"},
		}
		return append(stmts, pushD()...), nil

	case SegPointer:
		reg, err := pointerRegister(cmd.Index)
		if err != nil {
			return nil, err
		}
		stmts := []asm.Statement{
			asm.AInstruction{Location: reg},
			asm.CInstruction{Dest: hack.DestD, Comp: "M"},
		}
		return append(stmts, pushD()...), nil

	default:
		return nil, fmt.Errorf("vm: unknown segment %q", cmd.Segment)
	}
}

func (cg *CodeGenerator) translatePop(cmd PopCommand) ([]asm.Statement, error) {
	switch cmd.Segment {
	case SegLocal, SegArgument, SegThis, SegThat:
		base := segmentBase[cmd.Segment]
		stmts := []asm.Statement{
			asm.AInstruction{Location: base},
			asm.CInstruction{Dest: hack.DestD, Comp: "M"},
			asm.AInstruction{Location: fmt.Sprint(cmd.Index)},
			asm.CInstruction{Dest: hack.DestD, Comp: "D+A"},
		}
		return append(stmts, popToAddressInD()...), nil

	case SegTemp:
		if cmd.Index > 7 {
			return nil, fmt.Errorf("vm: temp index %d out of range", cmd.Index)
		}
		stmts := []asm.Statement{
			asm.AInstruction{Location: "5"},
			asm.CInstruction{Dest: hack.DestD, Comp: "A"},
			asm.AInstruction{Location: fmt.Sprint(cmd.Index)},
			asm.CInstruction{Dest: hack.DestD, Comp: "D+A"},
		}
		return append(stmts, popToAddressInD()...), nil

	case SegStatic:
		stmts := popToD()
		stmts = append(stmts,
			asm.AInstruction{Location: cg.staticSymbol(cmd.Index)},
			asm.CInstruction{Dest: hack.DestM, Comp: "D"},
		)
		return stmts, nil

	case SegPointer:
		reg, err := pointerRegister(cmd.Index)
		if err != nil {
			return nil, err
		}
		stmts := popToD()
		stmts = append(stmts,
			asm.AInstruction{Location: reg},
			asm.CInstruction{Dest: hack.DestM, Comp: "D"},
		)
		return stmts, nil

	case SegConstant:
		return nil, fmt.Errorf("vm: cannot pop into the constant segment")

	default:
		return nil, fmt.Errorf("vm: unknown segment %q", cmd.Segment)
	}
}

func (cg *CodeGenerator) staticSymbol(index uint16) string {
	return fmt.Sprintf("%s.%d", cg.fileStem, index)
}

func pointerRegister(index uint16) (string, error) {
	switch index {
	case 0:
		return "THIS", nil
	case 1:
		return "THAT", nil
	default:
		return "", fmt.Errorf("vm: pointer index must be 0 or 1, got %d", index)
	}
}

// pushD appends the "RAM[SP]=D; SP++" macro, assuming D already holds the value to push.
func pushD() []asm.Statement {
	return []asm.Statement{
		asm.AInstruction{Location: "SP"},
		asm.CInstruction{Dest: hack.DestA, Comp: "M"},
		asm.CInstruction{Dest: hack.DestM, Comp: "D"},
		asm.AInstruction{Location: "SP"},
		asm.CInstruction{Dest: hack.DestM, Comp: "M+1"},
	}
}

// pushFromD evaluates `first` then pushes its comp-of-A-or-D result; used for push
// constant, where the value comes straight from the A-instruction's literal.
func pushFromD(first asm.AInstruction, comp string) []asm.Statement {
	stmts := []asm.Statement{first, asm.CInstruction{Dest: hack.DestD, Comp: comp}}
	return append(stmts, pushD()...)
}

// popToD appends the "SP--; D=RAM[SP]" macro.
func popToD() []asm.Statement {
	return []asm.Statement{
		asm.AInstruction{Location: "SP"},
		asm.CInstruction{Dest: hack.DestM, Comp: "M-1"},
		asm.CInstruction{Dest: hack.DestA, Comp: "M"},
		asm.CInstruction{Dest: hack.DestD, Comp: "M"},
	}
}

// popToAddressInD stashes the target address (already in D) in R13, pops the stack into
// D, then stores through R13. This is the load-before-store trick needed because the pop
// itself would otherwise clobber the address we just computed.
func popToAddressInD() []asm.Statement {
	stmts := []asm.Statement{
		asm.AInstruction{Location: "R13"},
		asm.CInstruction{Dest: hack.DestM, Comp: "D"},
	}
	stmts = append(stmts, popToD()...)
	return append(stmts,
		asm.AInstruction{Location: "R13"},
		asm.CInstruction{Dest: hack.DestA, Comp: "M"},
		asm.CInstruction{Dest: hack.DestM, Comp: "D"},
	)
}

// ---------------------------------------------------------------------------
// Function boundaries

func (cg *CodeGenerator) translateFunction(cmd FunctionCommand) ([]asm.Statement, error) {
	stmts := []asm.Statement{asm.LabelDecl{Name: cmd.Name}}
	zero := pushFromD(asm.AInstruction{Location: "0"}, "A")
	for i := uint16(0); i < cmd.NVars; i++ {
		stmts = append(stmts, zero...)
	}
	return stmts, nil
}

// emitCall builds the five-step call prologue: push the return address and the caller's
// segment pointers, reposition ARG and LCL for the callee, jump, then drop the return
// label immediately after so the callee's `return` has somewhere to land.
func (cg *CodeGenerator) emitCall(name string, nArgs uint16, retLabel string) []asm.Statement {
	stmts := pushFromD(asm.AInstruction{Location: retLabel}, "A")
	for _, reg := range []string{"LCL", "ARG", "THIS", "THAT"} {
		stmts = append(stmts, asm.AInstruction{Location: reg}, asm.CInstruction{Dest: hack.DestD, Comp: "M"})
		stmts = append(stmts, pushD()...)
	}

	stmts = append(stmts,
		asm.AInstruction{Location: "SP"},
		asm.CInstruction{Dest: hack.DestD, Comp: "M"},
		asm.AInstruction{Location: "5"},
		asm.CInstruction{Dest: hack.DestD, Comp: "D-A"},
		asm.AInstruction{Location: fmt.Sprint(nArgs)},
		asm.CInstruction{Dest: hack.DestD, Comp: "D-A"},
		asm.AInstruction{Location: "ARG"},
		asm.CInstruction{Dest: hack.DestM, Comp: "D"},

		asm.AInstruction{Location: "SP"},
		asm.CInstruction{Dest: hack.DestD, Comp: "M"},
		asm.AInstruction{Location: "LCL"},
		asm.CInstruction{Dest: hack.DestM, Comp: "D"},

		asm.AInstruction{Location: name},
		asm.CInstruction{Comp: "0", Jump: "JMP"},

		asm.LabelDecl{Name: retLabel},
	)
	return stmts
}

// translateReturn builds the epilogue. retAddr is read into R14 before RAM[ARG] is
// overwritten with the return value, because ARG may alias endFrame-5 when the callee
// took zero arguments.
func translateReturn() []asm.Statement {
	stmts := []asm.Statement{
		asm.AInstruction{Location: "LCL"},
		asm.CInstruction{Dest: hack.DestD, Comp: "M"},
		asm.AInstruction{Location: "R13"},
		asm.CInstruction{Dest: hack.DestM, Comp: "D"},

		asm.AInstruction{Location: "5"},
		asm.CInstruction{Dest: hack.DestA, Comp: "D-A"},
		asm.CInstruction{Dest: hack.DestD, Comp: "M"},
		asm.AInstruction{Location: "R14"},
		asm.CInstruction{Dest: hack.DestM, Comp: "D"},
	}

	stmts = append(stmts, popToD()...)
	stmts = append(stmts,
		asm.AInstruction{Location: "ARG"},
		asm.CInstruction{Dest: hack.DestA, Comp: "M"},
		asm.CInstruction{Dest: hack.DestM, Comp: "D"},

		asm.AInstruction{Location: "ARG"},
		asm.CInstruction{Dest: hack.DestD, Comp: "M+1"},
		asm.AInstruction{Location: "SP"},
		asm.CInstruction{Dest: hack.DestM, Comp: "D"},
	)

	for i, reg := range []string{"THAT", "THIS", "ARG", "LCL"} {
		offset := i + 1
		stmts = append(stmts,
			asm.AInstruction{Location: "R13"},
			asm.CInstruction{Dest: hack.DestD, Comp: "M"},
			asm.AInstruction{Location: fmt.Sprint(offset)},
			asm.CInstruction{Dest: hack.DestA, Comp: "D-A"},
			asm.CInstruction{Dest: hack.DestD, Comp: "M"},
			asm.AInstruction{Location: reg},
			asm.CInstruction{Dest: hack.DestM, Comp: "D"},
		)
	}

	return append(stmts,
		asm.AInstruction{Location: "R14"},
		asm.CInstruction{Dest: hack.DestA, Comp: "M"},
		asm.CInstruction{Comp: "0", Jump: "JMP"},
	)
}

// ---------------------------------------------------------------------------
// Comment rendering

func formatCommand(cmd Command) string {
	switch typed := cmd.(type) {
	case ArithmeticCommand:
		return string(typed.Op)
	case PushCommand:
		return fmt.Sprintf("push %s %d", typed.Segment, typed.Index)
	case PopCommand:
		return fmt.Sprintf("pop %s %d", typed.Segment, typed.Index)
	case LabelCommand:
		return fmt.Sprintf("label %s", typed.Name)
	case GotoCommand:
		return fmt.Sprintf("goto %s", typed.Name)
	case IfGotoCommand:
		return fmt.Sprintf("if-goto %s", typed.Name)
	case FunctionCommand:
		return fmt.Sprintf("function %s %d", typed.Name, typed.NVars)
	case CallCommand:
		return fmt.Sprintf("call %s %d", typed.Name, typed.NArgs)
	case ReturnCommand:
		return "return"
	default:
		return fmt.Sprintf("%v", cmd)
	}
}
