package vm_test

import (
	"strings"
	"testing"

	"github.com/n2t-go/toolchain/pkg/asm"
	"github.com/n2t-go/toolchain/pkg/vm"
)

func render(t *testing.T, stmts []asm.Statement) []string {
	t.Helper()
	generator := asm.NewCodeGenerator(stmts)
	out, err := generator.Generate()
	if err != nil {
		t.Fatalf("rendering: %s", err)
	}
	return out
}

func TestPushConstant(t *testing.T) {
	cg := vm.NewCodeGenerator()
	fragments, err := cg.Translate(vm.Module{vm.PushCommand{Segment: vm.SegConstant, Index: 7}})
	if err != nil {
		t.Fatalf("translate: %s", err)
	}
	lines := render(t, fragments[0].Statements)
	joined := strings.Join(lines, "\n")
	if !strings.Contains(joined, "@7") {
		t.Fatalf("expected literal @7 in output, got:\n%s", joined)
	}
	if lines[len(lines)-1] != "M=M+1" {
		t.Fatalf("expected final SP increment, got %q", lines[len(lines)-1])
	}
}

func TestCompareLabelsAreUniquePerCall(t *testing.T) {
	cg := vm.NewCodeGenerator()
	fragments, err := cg.Translate(vm.Module{
		vm.ArithmeticCommand{Op: vm.Eq},
		vm.ArithmeticCommand{Op: vm.Gt},
	})
	if err != nil {
		t.Fatalf("translate: %s", err)
	}

	first := strings.Join(render(t, fragments[0].Statements), "\n")
	second := strings.Join(render(t, fragments[1].Statements), "\n")

	if !strings.Contains(first, "(LABEL0)") || !strings.Contains(first, "(LABEL0END)") {
		t.Fatalf("expected LABEL0/LABEL0END in first comparison:\n%s", first)
	}
	if !strings.Contains(second, "(LABEL1)") || !strings.Contains(second, "(LABEL1END)") {
		t.Fatalf("expected LABEL1/LABEL1END in second comparison:\n%s", second)
	}
}

func TestCallReturnLabelsIncrementPerCallee(t *testing.T) {
	cg := vm.NewCodeGenerator()
	fragments, err := cg.Translate(vm.Module{
		vm.CallCommand{Name: "Foo", NArgs: 0},
		vm.CallCommand{Name: "Foo", NArgs: 1},
		vm.CallCommand{Name: "Bar", NArgs: 0},
	})
	if err != nil {
		t.Fatalf("translate: %s", err)
	}

	first := strings.Join(render(t, fragments[0].Statements), "\n")
	second := strings.Join(render(t, fragments[1].Statements), "\n")
	third := strings.Join(render(t, fragments[2].Statements), "\n")

	if !strings.Contains(first, "(Foo$ret.1)") {
		t.Fatalf("expected Foo$ret.1 in first call:\n%s", first)
	}
	if !strings.Contains(second, "(Foo$ret.2)") {
		t.Fatalf("expected Foo$ret.2 in second call:\n%s", second)
	}
	if !strings.Contains(third, "(Bar$ret.1)") {
		t.Fatalf("expected Bar$ret.1 (counters are per-callee):\n%s", third)
	}
}

func TestFunctionEmitsLabelThenZeroedLocals(t *testing.T) {
	cg := vm.NewCodeGenerator()
	fragments, err := cg.Translate(vm.Module{vm.FunctionCommand{Name: "Main.run", NVars: 2}})
	if err != nil {
		t.Fatalf("translate: %s", err)
	}

	lines := render(t, fragments[0].Statements)
	if lines[0] != "(Main.run)" {
		t.Fatalf("expected function label first, got %q", lines[0])
	}

	pushes := 0
	for _, line := range lines {
		if line == "M=M+1" {
			pushes++
		}
	}
	if pushes != 2 {
		t.Fatalf("expected exactly 2 pushes for 2 locals, got %d", pushes)
	}
}

func TestStaticSegmentIsMangledPerFile(t *testing.T) {
	cgA := vm.NewCodeGenerator()
	cgA.SetFileStem("Foo")
	fragA, err := cgA.Translate(vm.Module{vm.PushCommand{Segment: vm.SegStatic, Index: 3}})
	if err != nil {
		t.Fatalf("translate: %s", err)
	}

	cgB := vm.NewCodeGenerator()
	cgB.SetFileStem("Bar")
	fragB, err := cgB.Translate(vm.Module{vm.PushCommand{Segment: vm.SegStatic, Index: 3}})
	if err != nil {
		t.Fatalf("translate: %s", err)
	}

	linesA := strings.Join(render(t, fragA[0].Statements), "\n")
	linesB := strings.Join(render(t, fragB[0].Statements), "\n")

	if !strings.Contains(linesA, "@Foo.3") {
		t.Fatalf("expected @Foo.3 in:\n%s", linesA)
	}
	if !strings.Contains(linesB, "@Bar.3") {
		t.Fatalf("expected @Bar.3 in:\n%s", linesB)
	}
}

func TestBootstrapCallsSysInitWithUniqueReturnLabel(t *testing.T) {
	cg := vm.NewCodeGenerator()
	fragment := cg.Bootstrap()
	lines := strings.Join(render(t, fragment.Statements), "\n")

	if !strings.Contains(lines, "@256") {
		t.Fatalf("expected SP initialised to 256:\n%s", lines)
	}
	if !strings.Contains(lines, "@Sys.init") {
		t.Fatalf("expected jump to Sys.init:\n%s", lines)
	}
	if !strings.Contains(lines, "(Sys.init$ret.0)") {
		t.Fatalf("expected bootstrap's own unique return label:\n%s", lines)
	}

	// A subsequent user-level "call Sys.init 0" must not collide with the bootstrap's
	// return label, since callCount is untouched by Bootstrap.
	fragments, err := cg.Translate(vm.Module{vm.CallCommand{Name: "Sys.init", NArgs: 0}})
	if err != nil {
		t.Fatalf("translate: %s", err)
	}
	userCall := strings.Join(render(t, fragments[0].Statements), "\n")
	if !strings.Contains(userCall, "(Sys.init$ret.1)") {
		t.Fatalf("expected user call to land on Sys.init$ret.1:\n%s", userCall)
	}
}
