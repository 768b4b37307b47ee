package vm

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/n2t-go/toolchain/pkg/asm"
)

// Driver discovers the translation units implied by a single CLI argument and drives
// their translation into one combined stream of Hack assembly text. A single regular
// file is translated alone, with no bootstrap. A directory is treated as a whole program:
// every .vm file inside it is translated, in lexicographically sorted order for
// determinism, preceded by bootstrap code that sets SP and calls Sys.init.
type Driver struct {
	codegen *CodeGenerator
}

// NewDriver returns a Driver with fresh run-scoped codegen state.
func NewDriver() *Driver {
	return &Driver{codegen: NewCodeGenerator()}
}

// Run translates the program rooted at path and returns the assembled output lines.
func (d *Driver) Run(path string) ([]string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("vm: unable to stat %q: %w", path, err)
	}

	if !info.IsDir() {
		return d.translateSingleFile(path)
	}
	return d.translateDirectory(path)
}

func (d *Driver) translateSingleFile(path string) ([]string, error) {
	fragments, err := d.translateUnit(path)
	if err != nil {
		return nil, err
	}
	return renderFragments(fragments)
}

func (d *Driver) translateDirectory(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("vm: unable to list directory %q: %w", dir, err)
	}

	var units []string
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".vm" {
			continue
		}
		units = append(units, filepath.Join(dir, entry.Name()))
	}
	sort.Strings(units)

	if len(units) == 0 {
		return nil, fmt.Errorf("vm: directory %q contains no .vm files", dir)
	}

	allLines, err := renderFragments([]Fragment{d.codegen.Bootstrap()})
	if err != nil {
		return nil, err
	}

	for _, unit := range units {
		fragments, err := d.translateUnit(unit)
		if err != nil {
			return nil, err
		}
		lines, err := renderFragments(fragments)
		if err != nil {
			return nil, err
		}
		allLines = append(allLines, lines...)
	}

	return allLines, nil
}

func (d *Driver) translateUnit(path string) ([]Fragment, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("vm: unable to open %q: %w", path, err)
	}
	defer file.Close()

	d.codegen.SetFileStem(stemOf(path))

	parser := NewParser(file)
	module, err := parser.Parse()
	if err != nil {
		return nil, fmt.Errorf("vm: %q: %w", path, err)
	}

	return d.codegen.Translate(module)
}

func stemOf(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// renderFragments flattens fragments into text, one "// <command>" comment line
// followed by that command's generated instructions.
func renderFragments(fragments []Fragment) ([]string, error) {
	var lines []string
	for _, fragment := range fragments {
		lines = append(lines, fmt.Sprintf("// %s", fragment.Comment))

		generator := asm.NewCodeGenerator(fragment.Statements)
		rendered, err := generator.Generate()
		if err != nil {
			return nil, fmt.Errorf("vm: rendering %q: %w", fragment.Comment, err)
		}
		lines = append(lines, rendered...)
	}
	return lines, nil
}

// OutputPath derives the .asm file the Driver should write to for a given input path:
// <stem>.asm in the file's directory for single-file mode, <dir-stem>.asm for directory
// mode.
func OutputPath(inputPath string) (string, error) {
	info, err := os.Stat(inputPath)
	if err != nil {
		return "", fmt.Errorf("vm: unable to stat %q: %w", inputPath, err)
	}

	if info.IsDir() {
		abs := strings.TrimRight(inputPath, string(filepath.Separator))
		return filepath.Join(inputPath, filepath.Base(abs)+".asm"), nil
	}
	dir := filepath.Dir(inputPath)
	return filepath.Join(dir, stemOf(inputPath)+".asm"), nil
}
