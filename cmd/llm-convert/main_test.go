package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"llmdc/internal/diag"
)

const alpacaFixture = `[
  {"instruction": "Write a function that doubles a number.", "input": "", "output": "def double(x): return x * 2"},
  {"instruction": "Name the capital of France.", "input": "", "output": "Paris."},
  {"instruction": "Write a function that negates a boolean.", "input": "", "output": "def negate(b): return not b"}
]`

func TestRunPipeline(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "data.json")
	output := filepath.Join(dir, "out.csv")
	require.NoError(t, os.WriteFile(input, []byte(alpacaFixture), 0o644))

	code := run([]string{
		"-l", "error",
		"from-alpaca", "-i", input,
		"keyword", "-k", "function",
		"to-csv-pr", "-o", output,
	})
	require.Equal(t, diag.ExitOK, code)

	data, err := os.ReadFile(output)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	// 表头 + 两条命中 "function" 的记录。
	require.Len(t, lines, 3)
	assert.Equal(t, "instruction,input,output", lines[0])
	for _, line := range lines[1:] {
		assert.Contains(t, strings.ToLower(line), "function")
	}
}

func TestRunSubFlowTee(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "data.json")
	output := filepath.Join(dir, "all.jsonl")
	teed := filepath.Join(dir, "functions.jsonl")
	require.NoError(t, os.WriteFile(input, []byte(alpacaFixture), 0o644))

	code := run([]string{
		"-l", "error",
		"from-alpaca", "-i", input,
		"tee", "-f", "keyword -k function to-jsonlines-pr -o " + teed,
		"to-jsonlines-pr", "-o", output,
	})
	require.Equal(t, diag.ExitOK, code)

	all, err := os.ReadFile(output)
	require.NoError(t, err)
	assert.Len(t, strings.Split(strings.TrimSpace(string(all)), "\n"), 3)

	branch, err := os.ReadFile(teed)
	require.NoError(t, err)
	assert.Len(t, strings.Split(strings.TrimSpace(string(branch)), "\n"), 2)
}

func TestRunUsageErrors(t *testing.T) {
	assert.Equal(t, diag.ExitUsage, run([]string{"no-such-plugin"}))
	assert.Equal(t, diag.ExitUsage, run([]string{"keyword", "-k", "x"}))
	assert.Equal(t, diag.ExitUsage, run([]string{"-c", "rar", "from-alpaca", "-i", "x.json"}))
}

func TestRunHelp(t *testing.T) {
	assert.Equal(t, diag.ExitOK, run([]string{"-h"}))
	assert.Equal(t, diag.ExitOK, run([]string{"--help-plugin", "keyword"}))
	assert.Equal(t, diag.ExitUsage, run([]string{"--help-plugin", "no-such-plugin"}))
}

func TestRunRuntimeError(t *testing.T) {
	dir := t.TempDir()
	code := run([]string{
		"-l", "error",
		"from-alpaca", "-i", filepath.Join(dir, "missing.json"),
		"to-jsonlines-pr", "-o", filepath.Join(dir, "out.jsonl"),
	})
	assert.Equal(t, diag.ExitRuntime, code)
}
