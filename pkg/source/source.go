// Package source implements the shared "line source" preprocessing stage used by both
// the Hack assembler and the VM translator: it reads a text file, strips comments and
// blank lines, and hands back a sequence of trimmed logical lines with stable ordinals.
package source

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// Line is a single surviving logical line of input.
//
// Ordinal is 0-based and contiguous over surviving lines only: blank and comment-only
// lines never consume an ordinal slot. Label pseudo-instructions do, since this package
// does not know about them; callers that need a ROM address must derive it themselves
// (asm.Lowerer counts only non-label statements).
type Line struct {
	Ordinal int
	Text    string
}

// StripLineComment deletes everything from the first "//" onward, then trims
// leading and trailing whitespace. It does not understand block comments.
func StripLineComment(raw string) string {
	if idx := strings.Index(raw, "//"); idx >= 0 {
		raw = raw[:idx]
	}
	return strings.TrimSpace(raw)
}

// StripBlockComments removes every /* ... */ span from src, including ones that span
// multiple lines. It's only needed by Jack input; Asm and VM sources only ever use "//".
func StripBlockComments(src string) string {
	var b strings.Builder
	for {
		start := strings.Index(src, "/*")
		if start < 0 {
			b.WriteString(src)
			break
		}
		end := strings.Index(src[start:], "*/")
		if end < 0 {
			b.WriteString(src[:start])
			break
		}
		b.WriteString(src[:start])
		src = src[start+end+2:]
	}
	return b.String()
}

// Read scans r line by line, strips "//" comments, trims whitespace, and discards lines
// that become empty. Surviving lines are numbered contiguously starting at 0.
func Read(r io.Reader) ([]Line, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	lines := make([]Line, 0)
	ordinal := 0
	for scanner.Scan() {
		text := StripLineComment(scanner.Text())
		if text == "" {
			continue
		}
		lines = append(lines, Line{Ordinal: ordinal, Text: text})
		ordinal++
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("source: failed reading input: %w", err)
	}
	return lines, nil
}

// ReadJack behaves like Read but additionally strips /* ... */ block comments before
// splitting into lines, since the Jack language allows comments to span multiple lines.
func ReadJack(r io.Reader) ([]Line, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("source: failed reading input: %w", err)
	}

	cleaned := StripBlockComments(string(raw))
	return Read(strings.NewReader(cleaned))
}
