package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHandlerAssemblesKnownProgram(t *testing.T) {
	dir := t.TempDir()
	inputPath := filepath.Join(dir, "program.asm")
	outputPath := filepath.Join(dir, "program.hack")

	source := "@17\nD=D+A\n@LOOP\n0;JMP\n(LOOP)\n@LOOP\nD;JGT\n"
	require.NoError(t, os.WriteFile(inputPath, []byte(source), 0o644))

	status := handler([]string{inputPath, outputPath}, nil)
	require.Equal(t, 0, status)

	content, err := os.ReadFile(outputPath)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimRight(string(content), "\n"), "\n")
	require.Len(t, lines, 6)

	assert.Equal(t, "0000000000010001", lines[0]) // @17
	assert.Equal(t, "1110000010010000", lines[1]) // D=D+A
	assert.Equal(t, "0000000000000100", lines[2]) // @LOOP (resolves to 4)
	assert.Equal(t, "1110101010000111", lines[3]) // 0;JMP
	assert.Equal(t, "0000000000000100", lines[4]) // @LOOP
	assert.Equal(t, "1110001100000001", lines[5]) // D;JGT
}

func TestHandlerRejectsMalformedInput(t *testing.T) {
	dir := t.TempDir()
	inputPath := filepath.Join(dir, "bad.asm")
	outputPath := filepath.Join(dir, "bad.hack")

	require.NoError(t, os.WriteFile(inputPath, []byte("D=NOTACOMP\n"), 0o644))

	status := handler([]string{inputPath, outputPath}, nil)
	assert.Equal(t, -1, status)
}

func TestHandlerReportsMissingInputFile(t *testing.T) {
	dir := t.TempDir()
	status := handler([]string{filepath.Join(dir, "missing.asm"), filepath.Join(dir, "out.hack")}, nil)
	assert.Equal(t, -1, status)
}
