package source_test

import (
	"strings"
	"testing"

	"github.com/n2t-go/toolchain/pkg/source"
)

func TestStripLineComment(t *testing.T) {
	cases := map[string]string{
		"D=M  // load first operand": "D=M",
		"// a whole-line comment":    "",
		"  @17  ":                    "@17",
		"D=D+A":                      "D=D+A",
	}
	for in, want := range cases {
		if got := source.StripLineComment(in); got != want {
			t.Errorf("StripLineComment(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestStripBlockComments(t *testing.T) {
	in := "let x = 1; /* a comment\nspanning lines */ let y = 2;"
	want := "let x = 1;  let y = 2;"
	if got := source.StripBlockComments(in); got != want {
		t.Errorf("StripBlockComments(%q) = %q, want %q", in, got, want)
	}
}

func TestStripBlockCommentsUnterminatedIsDropped(t *testing.T) {
	in := "keep this /* but not this"
	want := "keep this "
	if got := source.StripBlockComments(in); got != want {
		t.Errorf("StripBlockComments(%q) = %q, want %q", in, got, want)
	}
}

func TestReadDiscardsBlanksAndAssignsContiguousOrdinals(t *testing.T) {
	input := "@2\n// comment only\n\nD=A\n   \n@3\n"
	lines, err := source.Read(strings.NewReader(input))
	if err != nil {
		t.Fatalf("Read: %s", err)
	}
	if len(lines) != 3 {
		t.Fatalf("expected 3 surviving lines, got %d: %+v", len(lines), lines)
	}

	wantText := []string{"@2", "D=A", "@3"}
	for i, line := range lines {
		if line.Ordinal != i {
			t.Errorf("line %d: ordinal = %d, want %d", i, line.Ordinal, i)
		}
		if line.Text != wantText[i] {
			t.Errorf("line %d: text = %q, want %q", i, line.Text, wantText[i])
		}
	}
}

func TestReadJackStripsBlockCommentsAcrossLines(t *testing.T) {
	input := "class Main {\n/* a multi\nline comment */\nfield int x;\n}\n"
	lines, err := source.ReadJack(strings.NewReader(input))
	if err != nil {
		t.Fatalf("ReadJack: %s", err)
	}

	var texts []string
	for _, line := range lines {
		texts = append(texts, line.Text)
	}
	joined := strings.Join(texts, " ")
	if strings.Contains(joined, "multi") {
		t.Fatalf("block comment content leaked into surviving lines: %q", joined)
	}
	if !strings.Contains(joined, "field int x;") {
		t.Fatalf("expected surviving declaration line, got %q", joined)
	}
}
