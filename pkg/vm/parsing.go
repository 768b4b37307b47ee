package vm

import (
	"fmt"
	"io"
	"strconv"

	pc "github.com/prataprc/goparsec"

	"github.com/n2t-go/toolchain/pkg/source"
)

// ----------------------------------------------------------------------------
// Parser Combinator(s)

// Each VM command is dispatched on its leading keyword, tried in the order push/pop, the
// arithmetic operators, label, goto/if-goto, function, call, return, then decomposed into its typed arguments by whitespace
// tokenisation. Comments and blank lines are already gone by the time a line reaches
// these combinators (pkg/source strips them).

var ast = pc.NewAST("vm-command", 0)

var (
	pCommand = ast.OrdChoice("command", nil,
		pMemoryOp, pArithmeticOp, pLabelDecl, pGotoOp, pFuncDecl, pFuncCallOp, pReturnOp,
	)

	pMemoryOp     = ast.And("memory_op", nil, pMemOpType, pSegment, pc.Int())
	pArithmeticOp = ast.And("arithmetic_op", nil, pArithOpType)

	pLabelDecl = ast.And("label_decl", nil, pc.Atom("label", "LABEL"), pIdent)
	pGotoOp    = ast.And("goto_op", nil, pJumpType, pIdent)

	pFuncDecl    = ast.And("func_decl", nil, pc.Atom("function", "FUNC"), pIdent, pc.Int())
	pFuncCallOp  = ast.And("func_call", nil, pc.Atom("call", "CALL"), pIdent, pc.Int())
	pReturnOp    = ast.And("return_op", nil, pc.Atom("return", "RETURN"))
)

var (
	pIdent = pc.Token(`[A-Za-z_.$:][0-9a-zA-Z_.$:]*`, "IDENT")

	pMemOpType = ast.OrdChoice("mem_op_type", nil, pc.Atom("push", "PUSH"), pc.Atom("pop", "POP"))
	pSegment   = ast.OrdChoice("mem_segment", nil,
		pc.Atom("argument", "ARGUMENT"), pc.Atom("local", "LOCAL"),
		pc.Atom("static", "STATIC"), pc.Atom("constant", "CONSTANT"),
		pc.Atom("this", "THIS"), pc.Atom("that", "THAT"),
		pc.Atom("temp", "TEMP"), pc.Atom("pointer", "POINTER"),
	)

	pArithOpType = ast.OrdChoice("operations", nil,
		pc.Atom("eq", "EQ"), pc.Atom("gt", "GT"), pc.Atom("lt", "LT"),
		pc.Atom("add", "ADD"), pc.Atom("sub", "SUB"), pc.Atom("neg", "NEG"),
		pc.Atom("not", "NOT"), pc.Atom("and", "AND"), pc.Atom("or", "OR"),
	)

	// "goto" and "if-goto" never conflict (neither literal is a prefix of the other), so
	// their order here does not matter; "goto" is tried first.
	pJumpType = ast.OrdChoice("jump_type", nil, pc.Atom("goto", "GOTO"), pc.Atom("if-goto", "IF-GOTO"))
)

// ----------------------------------------------------------------------------
// Vm Parser

// Parser recovers a Module from VM source text. Each logical line is parsed
// independently so a malformed command is reported with its own line number: the line's
// 1-based position among the non-blank, comment-free lines, which can differ from the
// line number in the file.
type Parser struct{ reader io.Reader }

// NewParser returns a Parser that reads VM source from r.
func NewParser(r io.Reader) Parser {
	return Parser{reader: r}
}

// Parse reads the whole input, strips comments and blank lines, and parses every
// surviving line into a Command.
func (p *Parser) Parse() (Module, error) {
	lines, err := source.Read(p.reader)
	if err != nil {
		return nil, err
	}

	module := make(Module, 0, len(lines))
	for _, line := range lines {
		cmd, err := p.parseLine(line.Text)
		if err != nil {
			return nil, fmt.Errorf("vm: line %d: %w", line.Ordinal+1, err)
		}
		module = append(module, cmd)
	}
	return module, nil
}

func (p *Parser) parseLine(text string) (Command, error) {
	root, _ := ast.Parsewith(pCommand, pc.NewScanner([]byte(text)))
	if root == nil {
		return nil, fmt.Errorf("unknown VM command %q", text)
	}

	switch root.GetName() {
	case "memory_op":
		return p.handleMemoryOp(root)
	case "arithmetic_op":
		return ArithmeticCommand{Op: ArithOp(root.GetChildren()[0].GetValue())}, nil
	case "label_decl":
		return LabelCommand{Name: root.GetChildren()[1].GetValue()}, nil
	case "goto_op":
		jump, label := root.GetChildren()[0].GetValue(), root.GetChildren()[1].GetValue()
		if jump == "goto" {
			return GotoCommand{Name: label}, nil
		}
		return IfGotoCommand{Name: label}, nil
	case "func_decl":
		nVars, err := strconv.ParseUint(root.GetChildren()[2].GetValue(), 10, 16)
		if err != nil {
			return nil, fmt.Errorf("malformed function local count: %w", err)
		}
		return FunctionCommand{Name: root.GetChildren()[1].GetValue(), NVars: uint16(nVars)}, nil
	case "func_call":
		nArgs, err := strconv.ParseUint(root.GetChildren()[2].GetValue(), 10, 16)
		if err != nil {
			return nil, fmt.Errorf("malformed call argument count: %w", err)
		}
		return CallCommand{Name: root.GetChildren()[1].GetValue(), NArgs: uint16(nArgs)}, nil
	case "return_op":
		return ReturnCommand{}, nil
	default:
		return nil, fmt.Errorf("unrecognized VM node %q", root.GetName())
	}
}

func (Parser) handleMemoryOp(node pc.Queryable) (Command, error) {
	children := node.GetChildren()
	if len(children) != 3 {
		return nil, fmt.Errorf("malformed memory operation")
	}

	op := children[0].GetValue()
	segment := Segment(children[1].GetValue())
	index, err := strconv.ParseUint(children[2].GetValue(), 10, 16)
	if err != nil {
		return nil, fmt.Errorf("malformed segment index: %w", err)
	}

	if op == "push" {
		return PushCommand{Segment: segment, Index: uint16(index)}, nil
	}
	return PopCommand{Segment: segment, Index: uint16(index)}, nil
}
