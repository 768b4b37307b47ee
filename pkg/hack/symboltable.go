package hack

import "fmt"

// firstVariableAddress is where dynamically allocated variables begin; everything below
// is reserved for the predefined registers and VM segment pointers.
const firstVariableAddress uint16 = 16

// SymbolTable resolves symbolic names to 16-bit addresses. It is seeded with every entry
// of BuiltInTable and, over the lifetime of a single assembler invocation, accumulates
// label bindings from pass one and variable bindings allocated lazily during pass two.
type SymbolTable struct {
	addresses  map[string]uint16
	nextVarRAM uint16
}

// NewSymbolTable returns a table pre-populated with the predefined Hack symbols.
func NewSymbolTable() *SymbolTable {
	table := &SymbolTable{
		addresses:  make(map[string]uint16, len(BuiltInTable)),
		nextVarRAM: firstVariableAddress,
	}
	for name, addr := range BuiltInTable {
		table.addresses[name] = addr
	}
	return table
}

// Contains reports whether name has a binding, predefined, label, or variable.
func (t *SymbolTable) Contains(name string) bool {
	_, ok := t.addresses[name]
	return ok
}

// AddressOf returns the address bound to name, if any.
func (t *SymbolTable) AddressOf(name string) (uint16, bool) {
	addr, ok := t.addresses[name]
	return addr, ok
}

// AddLabel binds name to address, used for label declarations during pass one. Labels
// win over later variable allocation attempts: binding a name that already exists is
// rejected rather than silently ignored, so a duplicate label declaration surfaces as
// an error instead of quietly keeping the first definition.
func (t *SymbolTable) AddLabel(name string, address uint16) error {
	if _, exists := t.addresses[name]; exists {
		return fmt.Errorf("hack: symbol %q is already defined", name)
	}
	t.addresses[name] = address
	return nil
}

// AllocateVariable returns the address bound to name, allocating the next free RAM slot
// (starting at 16, incrementing by one per newly seen identifier) if name is unbound.
// The k-th distinct previously-unknown identifier is guaranteed to land at 16+k-1.
func (t *SymbolTable) AllocateVariable(name string) uint16 {
	if addr, ok := t.addresses[name]; ok {
		return addr
	}
	addr := t.nextVarRAM
	t.addresses[name] = addr
	t.nextVarRAM++
	return addr
}
