// Package asm models symbolic Hack assembly: A instructions, C instructions, and label
// declarations, together with the parser that recovers them from source text and the
// lowering pass that resolves labels into a hack.Program ready for binary encoding.
package asm

import "github.com/n2t-go/toolchain/pkg/hack"

// Statement is the shared marker for every node that can appear in a parsed program:
// A/C instructions and label declarations.
type Statement interface{ isStatement() }

// LabelDecl binds Name to the ROM address of the instruction immediately following it.
// It does not itself occupy a ROM address.
type LabelDecl struct {
	Name string
}

func (LabelDecl) isStatement() {}

// AInstruction loads an address into the A register. Location is the raw textual symbol
// as written by the programmer: a decimal literal, a built-in name, or a user label. Its
// LocationType is only determined during lowering, once the symbol table is known.
type AInstruction struct {
	Location string
}

func (AInstruction) isStatement() {}

// CInstruction is the triple (dest?, comp, jump?). Dest is already canonicalised to a
// bitmask by the parser; hack.DestNone means no destination was written. Jump is the
// empty string when absent.
type CInstruction struct {
	Dest hack.Dest
	Comp string
	Jump string
}

func (CInstruction) isStatement() {}

// Program is an ordered sequence of parsed statements, labels included.
type Program []Statement
