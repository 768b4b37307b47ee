package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHandlerTranslatesSingleFileWithoutBootstrap(t *testing.T) {
	dir := t.TempDir()
	inputPath := filepath.Join(dir, "SimpleAdd.vm")
	require.NoError(t, os.WriteFile(inputPath, []byte("push constant 7\npush constant 8\nadd\n"), 0o644))

	outputPath := filepath.Join(dir, "out.asm")
	status := handler([]string{inputPath}, map[string]string{"output": outputPath})
	require.Equal(t, 0, status)

	content, err := os.ReadFile(outputPath)
	require.NoError(t, err)

	text := string(content)
	assert.Contains(t, text, "// push constant 7")
	assert.Contains(t, text, "// push constant 8")
	assert.Contains(t, text, "// add")
	assert.NotContains(t, text, "bootstrap", "single-file mode must not emit bootstrap code")
}

func TestHandlerTranslatesDirectoryWithBootstrapAndSortedUnits(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "Zeta.vm"), []byte("function Zeta.run 0\nreturn\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "Alpha.vm"), []byte("function Alpha.run 0\nreturn\n"), 0o644))

	outputPath := filepath.Join(dir, "out.asm")
	status := handler([]string{dir}, map[string]string{"output": outputPath})
	require.Equal(t, 0, status)

	content, err := os.ReadFile(outputPath)
	require.NoError(t, err)

	text := string(content)
	require.Contains(t, text, "// bootstrap")

	alphaPos := strings.Index(text, "(Alpha.run)")
	zetaPos := strings.Index(text, "(Zeta.run)")
	bootstrapPos := strings.Index(text, "// bootstrap")
	require.True(t, bootstrapPos >= 0 && alphaPos > bootstrapPos && zetaPos > alphaPos,
		"expected bootstrap first, then Alpha.vm before Zeta.vm in lexicographic order")
}

func TestHandlerReportsMissingInput(t *testing.T) {
	dir := t.TempDir()
	status := handler([]string{filepath.Join(dir, "missing.vm")}, map[string]string{"output": filepath.Join(dir, "out.asm")})
	assert.Equal(t, -1, status)
}
