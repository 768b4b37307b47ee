package asm

import (
	"fmt"
	"io"

	pc "github.com/prataprc/goparsec"

	"github.com/n2t-go/toolchain/pkg/hack"
	"github.com/n2t-go/toolchain/pkg/source"
)

// ----------------------------------------------------------------------------
// Parser Combinator(s)

// Comments and blank lines are already gone by the time a line reaches these combinators
// (pkg/source strips them), so the grammar only has to decide between the three statement
// shapes of the Asm language and pick apart a C instruction's sub-fields.

var ast = pc.NewAST("asm-statement", 0)

var (
	pStatement = ast.OrdChoice("statement", nil, pAInst, pCInst, pLabelDecl)

	pAInst     = ast.And("a-inst", nil, pc.Atom("@", "@"), pLabel)
	pLabelDecl = ast.And("label-decl", nil, pc.Atom("(", "("), pLabel, pc.Atom(")", ")"))
	pCInst     = ast.And("c-inst", nil,
		ast.Maybe("maybe-assign", nil, ast.And("assign", nil, pDest, pc.Atom("=", "="))),
		pComp,
		ast.Maybe("maybe-goto", nil, ast.And("goto", nil, pc.Atom(";", ";"), pJump)),
	)
)

var (
	// NOTE: a label cannot begin with a leading digit (a symbol char is allowed to).
	pLabel = ast.OrdChoice("label", nil, pc.Int(), pc.Token(`[A-Za-z_.$:][0-9a-zA-Z_.$:]*`, "SYMBOL"))

	// The reversed ordering (longer mnemonics first) is required because goparsec's
	// OrdChoice is a first-match scan, not longest-match: "AM" must be tried before "A"
	// or the latter would win and leave a dangling "M" unconsumed.
	pDest = ast.OrdChoice("dest", nil,
		pc.Atom("AMD", "AMD"), pc.Atom("AM", "AM"), pc.Atom("AD", "AD"), pc.Atom("MD", "MD"),
		pc.Atom("D", "D"), pc.Atom("A", "A"), pc.Atom("M", "M"),
	)

	pComp = ast.OrdChoice("comp", nil,
		pc.Atom("D&A", "D&A"), pc.Atom("D&M", "D&M"),
		pc.Atom("D|A", "D|A"), pc.Atom("D|M", "D|M"),
		pc.Atom("D+A", "D+A"), pc.Atom("D+M", "D+M"),
		pc.Atom("D-A", "D-A"), pc.Atom("D-M", "D-M"),
		pc.Atom("A-D", "A-D"), pc.Atom("M-D", "M-D"),
		pc.Atom("D+1", "D+1"), pc.Atom("A+1", "A+1"), pc.Atom("M+1", "M+1"),
		pc.Atom("D-1", "D-1"), pc.Atom("A-1", "A-1"), pc.Atom("M-1", "M-1"),
		pc.Atom("!D", "!D"), pc.Atom("!A", "!A"), pc.Atom("!M", "!M"),
		pc.Atom("-D", "-D"), pc.Atom("-A", "-A"), pc.Atom("-M", "-M"),
		pc.Atom("-1", "-1"), pc.Atom("0", "0"), pc.Atom("1", "1"),
		pc.Atom("D", "D"), pc.Atom("A", "A"), pc.Atom("M", "M"),
	)

	pJump = ast.OrdChoice("jump", nil,
		pc.Atom("JNE", "JNE"), pc.Atom("JEQ", "JEQ"),
		pc.Atom("JGT", "JGT"), pc.Atom("JGE", "JGE"),
		pc.Atom("JLT", "JLT"), pc.Atom("JLE", "JLE"),
		pc.Atom("JMP", "JMP"),
	)
)

// ----------------------------------------------------------------------------
// Asm Parser

// Parser recovers a Program from symbolic Hack assembly text. Each logical line (as
// produced by pkg/source) is parsed independently, so a malformed line is reported with
// its own line number rather than aborting the whole scan blind. That number is the
// line's 1-based position among the non-blank, comment-free lines; blank and
// comment-only lines are not counted, so it can differ from the line number in the file.
type Parser struct{ reader io.Reader }

// NewParser returns a Parser that reads assembly source from r.
func NewParser(r io.Reader) Parser {
	return Parser{reader: r}
}

// Parse reads the whole input, strips comments and blank lines via pkg/source, and parses
// every surviving line into a Statement.
func (p *Parser) Parse() (Program, error) {
	lines, err := source.Read(p.reader)
	if err != nil {
		return nil, err
	}

	program := make(Program, 0, len(lines))
	for _, line := range lines {
		stmt, err := p.parseLine(line.Text)
		if err != nil {
			return nil, fmt.Errorf("asm: line %d: %w", line.Ordinal+1, err)
		}
		program = append(program, stmt)
	}
	return program, nil
}

func (p *Parser) parseLine(text string) (Statement, error) {
	root, _ := ast.Parsewith(pStatement, pc.NewScanner([]byte(text)))
	if root == nil {
		return nil, fmt.Errorf("malformed instruction %q", text)
	}

	switch root.GetName() {
	case "a-inst":
		return p.handleAInst(root)
	case "c-inst":
		return p.handleCInst(root)
	case "label-decl":
		return p.handleLabelDecl(root)
	default:
		return nil, fmt.Errorf("unrecognized statement %q (%s)", text, root.GetName())
	}
}

func (Parser) handleAInst(node pc.Queryable) (Statement, error) {
	children := node.GetChildren()
	if len(children) != 2 {
		return nil, fmt.Errorf("malformed A-instruction")
	}
	symbol := children[1]
	if symbol.GetName() != "INT" && symbol.GetName() != "SYMBOL" {
		return nil, fmt.Errorf("expected symbol or integer after '@', got %s", symbol.GetName())
	}
	return AInstruction{Location: symbol.GetValue()}, nil
}

func (Parser) handleLabelDecl(node pc.Queryable) (Statement, error) {
	children := node.GetChildren()
	if len(children) != 3 {
		return nil, fmt.Errorf("malformed label declaration")
	}
	symbol := children[1]
	if symbol.GetName() != "SYMBOL" && symbol.GetName() != "INT" {
		return nil, fmt.Errorf("expected symbol inside label declaration, got %s", symbol.GetName())
	}
	return LabelDecl{Name: symbol.GetValue()}, nil
}

func (Parser) handleCInst(node pc.Queryable) (Statement, error) {
	children := node.GetChildren()
	if len(children) != 3 {
		return nil, fmt.Errorf("malformed C-instruction")
	}
	destNode, compNode, jumpNode := children[0], children[1], children[2]

	inst := CInstruction{Comp: compNode.GetValue()}

	if destNode.GetName() == "assign" {
		assignChildren := destNode.GetChildren()
		if len(assignChildren) != 2 {
			return nil, fmt.Errorf("malformed dest assignment")
		}
		dest, err := hack.ParseDest(assignChildren[0].GetValue())
		if err != nil {
			return nil, err
		}
		inst.Dest = dest
	}

	if jumpNode.GetName() == "goto" {
		jumpChildren := jumpNode.GetChildren()
		if len(jumpChildren) != 2 {
			return nil, fmt.Errorf("malformed jump directive")
		}
		inst.Jump = jumpChildren[1].GetValue()
	}

	return inst, nil
}
