package textutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestSplitIntoSentences 句末字符切分与悬挂字符并回。
func TestSplitIntoSentences(t *testing.T) {
	got := SplitIntoSentences([]string{"One. Two! Three?"}, DefaultEndChars)
	assert.Equal(t, []string{"One.", "Two!", "Three?"}, got)

	// 末尾引号作为悬挂字符并回前一句
	got = SplitIntoSentences([]string{`He said hi." Done.`}, DefaultEndChars)
	assert.Equal(t, []string{`He said hi."`, "Done."}, got)

	// 无句末字符的行原样保留
	got = SplitIntoSentences([]string{"no terminator here"}, DefaultEndChars)
	assert.Equal(t, []string{"no terminator here"}, got)
}

// TestAssemblePreformatted 硬换行的段落按句末字符/空行重组。
func TestAssemblePreformatted(t *testing.T) {
	lines := []string{
		"The quick brown",
		"fox jumps.",
		"",
		"Another sentence",
		"continues here",
	}
	got := AssemblePreformatted(lines, DefaultEndChars, DefaultQuoteChars)
	assert.Equal(t, []string{"The quick brown fox jumps.", "Another sentence continues here"}, got)
}

// TestCombineSentences 合句并给缺句号的句子补点。
func TestCombineSentences(t *testing.T) {
	got := CombineSentences([]string{"One.", "Two", "Three."}, 2)
	assert.Equal(t, []string{"One. Two.", "Three."}, got)

	same := []string{"a.", "b."}
	assert.Equal(t, same, CombineSentences(same, 1))
}

// TestApplyMaxLength 超长行在词边界折断。
func TestApplyMaxLength(t *testing.T) {
	got := ApplyMaxLength([]string{"alpha beta gamma delta"}, 11)
	for _, l := range got {
		assert.LessOrEqual(t, len(l), 11)
	}
	assert.Equal(t, []string{"alpha beta", "gamma delta"}, got)

	assert.Equal(t, []string{"short"}, ApplyMaxLength([]string{"short"}, 0))
}

// TestRemoveAndReplacePatterns 删除/替换计数只统计变更行。
func TestRemoveAndReplacePatterns(t *testing.T) {
	pats, err := CompilePatterns([]string{`\[\d+\]`})
	require.NoError(t, err)
	lines, affected := RemovePatterns([]string{"cite [1] here", "clean"}, pats)
	assert.Equal(t, []string{"cite  here", "clean"}, lines)
	assert.Equal(t, 1, affected)

	pats, err = CompilePatterns([]string{"colour"})
	require.NoError(t, err)
	lines, affected, err = ReplacePatterns([]string{"colour me", "plain"}, pats, []string{"color"})
	require.NoError(t, err)
	assert.Equal(t, []string{"color me", "plain"}, lines)
	assert.Equal(t, 1, affected)

	_, _, err = ReplacePatterns(nil, pats, []string{"a", "b"})
	assert.Error(t, err)

	_, err = CompilePatterns([]string{"(["})
	assert.Error(t, err)
}

// TestRemoveBlocks 区块连同标记一并删除。
func TestRemoveBlocks(t *testing.T) {
	lines := []string{"keep", "BEGIN", "drop me", "END", "keep too"}
	got := RemoveBlocks(lines, []string{"BEGIN"}, []string{"END"})
	assert.Equal(t, []string{"keep", "keep too"}, got)
}

// TestPruneAndRemoveEmpty 行修剪辅助。
func TestPruneAndRemoveEmpty(t *testing.T) {
	assert.Equal(t, []string{"ok"}, PruneLines([]string{"ok", "x", " "}, 1))
	assert.Equal(t, []string{"a", "b"}, RemoveEmpty([]string{"a", "  ", "b", ""}))
}
