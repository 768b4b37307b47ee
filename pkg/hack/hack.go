// Package hack models the Hack computer's 16-bit instruction set: the in-memory
// representation of A and C instructions, the fixed mnemonic tables used to encode them,
// and the symbol table that resolves labels and dynamically allocated variables to
// addresses. It is consumed by both the assembler (pkg/asm) and the VM translator's
// generated output, which is itself just Hack assembly text re-parsed by the assembler.
package hack

import "fmt"

// Instruction is the shared marker for every encodable Hack instruction.
type Instruction interface{ isInstruction() }

// MaxAddressableMemory is the first address outside the 15-bit range an A instruction
// can load: valid addresses run from 0 to MaxAddressableMemory-1 inclusive.
const MaxAddressableMemory uint16 = 1 << 15

// LocationType disambiguates how an AInstruction's location should be resolved.
type LocationType uint8

const (
	Raw     LocationType = iota // A literal decimal address, e.g. @2345
	Label                       // A user-defined label or dynamically allocated variable
	BuiltIn                     // One of the predefined Hack symbols, e.g. @SCREEN
)

func (t LocationType) String() string {
	switch t {
	case Raw:
		return "raw"
	case Label:
		return "label"
	case BuiltIn:
		return "builtin"
	default:
		return "unknown"
	}
}

// AInstruction loads a 15-bit address into the A register.
type AInstruction struct {
	LocType LocationType
	LocName string
}

func (AInstruction) isInstruction() {}

// Dest is a bitmask over the three writable registers of a C instruction. Unlike the
// source program's table of letter-permutation strings, a mask is total over all eight
// subsets of {A, D, M} and needs no lookup: its bit layout already matches the Hack
// instruction's 3-bit dest field (A is the high bit, M the low bit).
type Dest uint8

const (
	DestNone Dest = 0
	DestM    Dest = 1 << 0
	DestD    Dest = 1 << 1
	DestA    Dest = 1 << 2
)

func (d Dest) String() string {
	if d == DestNone {
		return ""
	}
	var s string
	if d&DestA != 0 {
		s += "A"
	}
	if d&DestM != 0 {
		s += "M"
	}
	if d&DestD != 0 {
		s += "D"
	}
	return s
}

// ParseDest canonicalises a dest mnemonic (any order, e.g. "MD", "AD", "AMD") into its
// Dest bitmask. An empty string is the valid "null" destination. Any letter outside
// {A, D, M}, or a repeated letter, is rejected.
func ParseDest(mnemonic string) (Dest, error) {
	var d Dest
	for _, r := range mnemonic {
		var bit Dest
		switch r {
		case 'A':
			bit = DestA
		case 'D':
			bit = DestD
		case 'M':
			bit = DestM
		default:
			return 0, fmt.Errorf("hack: invalid dest mnemonic %q", mnemonic)
		}
		if d&bit != 0 {
			return 0, fmt.Errorf("hack: repeated register in dest mnemonic %q", mnemonic)
		}
		d |= bit
	}
	return d, nil
}

// CInstruction computes a value and optionally stores it and/or jumps.
type CInstruction struct {
	Dest Dest
	Comp string
	Jump string
}

func (CInstruction) isInstruction() {}

// Program is a flat, already-label-resolved sequence of encodable instructions; label
// pseudo-instructions never appear here, they are folded into a SymbolTable instead.
type Program []Instruction
