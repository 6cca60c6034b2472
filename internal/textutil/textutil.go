// Package textutil 提供纯文本整理原语：断句、合句、行长限制与
// 基于正则的批量删除/替换。预训练读取器与文本过滤器共用。
package textutil

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/pkg/errors"
)

// 断句/引号默认字符集。
const (
	DefaultEndChars   = ".!?;:)"
	DefaultQuoteChars = "\"'”’"
)

// PruneLines 丢弃 strip 后长度不超过 minLen 的行。
func PruneLines(lines []string, minLen int) []string {
	var out []string
	for _, l := range lines {
		if len(strings.TrimSpace(l)) > minLen {
			out = append(out, l)
		}
	}
	return out
}

// AssemblePreformatted 把硬换行的预排版文本拼回完整句子：
// 行尾命中句末字符（忽略收尾引号）或遇到空行即断句，否则与下一行合并。
func AssemblePreformatted(lines []string, endChars, quoteChars string) []string {
	var out []string
	var buffer string
	haveBuffer := false
	newSentence := false

	for _, line := range lines {
		line = strings.TrimSpace(line)
		curr := line
		for _, q := range quoteChars {
			curr = strings.TrimSuffix(curr, string(q))
		}
		if len(curr) == 0 {
			newSentence = true
		} else {
			for _, c := range endChars {
				if strings.HasSuffix(curr, string(c)) {
					newSentence = true
					break
				}
			}
		}
		if newSentence {
			newSentence = false
			if len(line) > 0 {
				if !haveBuffer {
					buffer, haveBuffer = line, true
				} else {
					buffer += " " + line
				}
			}
			if haveBuffer {
				out = append(out, buffer)
				buffer, haveBuffer = "", false
			}
		} else {
			if !haveBuffer {
				buffer, haveBuffer = line, true
			} else {
				buffer += " " + line
			}
		}
	}
	if haveBuffer {
		out = append(out, buffer)
	}
	return out
}

// SplitIntoSentences 在最近的句末字符处切分每一行；
// 切剩的单个悬挂字符并回前一句。过短的结果行被丢弃。
func SplitIntoSentences(lines []string, endChars string) []string {
	var out []string
	for _, line := range lines {
		for len(line) > 0 {
			pos := len(line)
			for _, c := range endChars {
				if i := strings.IndexRune(line, c); i >= 0 && i < pos {
					pos = i
				}
			}
			if pos < len(line) {
				out = append(out, strings.TrimSpace(line[:pos+1]))
				line = strings.TrimSpace(line[pos+1:])
				if len(line) == 1 {
					out[len(out)-1] += line
					line = ""
				}
			} else {
				out = append(out, strings.TrimSpace(line))
				line = ""
			}
		}
	}
	return PruneLines(out, 1)
}

// CombineSentences 把单句行合并为每行至多 maxSentences 句；
// 未以句末字符结尾的句子补句号。maxSentences <= 1 原样返回。
func CombineSentences(sentences []string, maxSentences int) []string {
	if maxSentences <= 1 {
		return sentences
	}
	var out []string
	var current []string
	for _, s := range sentences {
		if len(current) < maxSentences {
			if len(strings.TrimSpace(s)) > 1 && !strings.ContainsRune(DefaultEndChars, rune(s[len(s)-1])) {
				s += "."
			}
			current = append(current, s)
		} else {
			out = append(out, strings.Join(current, " "))
			current = nil
		}
	}
	if len(current) > 0 {
		out = append(out, strings.Join(current, " "))
	}
	return PruneLines(out, 1)
}

// ApplyMaxLength 把超过 maxLength 的行在词边界处折行。maxLength <= 0 不限。
func ApplyMaxLength(lines []string, maxLength int) []string {
	if maxLength <= 0 {
		return lines
	}
	var out []string
	for _, line := range lines {
		line = strings.TrimSpace(line)
		for len(line) > 0 {
			if len(line) <= maxLength {
				out = append(out, line)
				break
			}
			parts := strings.Fields(line)
			line = ""
			for _, part := range parts {
				if len(line)+len(part)+1 <= maxLength {
					line += " " + part
				} else {
					if s := strings.TrimSpace(line); s != "" {
						out = append(out, s)
					}
					line = part
				}
			}
			if s := strings.TrimSpace(line); s != "" {
				out = append(out, s)
			}
			line = ""
		}
	}
	return out
}

// FindWordBoundary 自 pos 起向前/向后找最近的空白或标点；找不到返回 pos。
func FindWordBoundary(s string, pos int, before bool) int {
	runes := []rune(s)
	isBoundary := func(r rune) bool { return unicode.IsSpace(r) || unicode.IsPunct(r) }
	if before {
		for i := pos; i >= 0; i-- {
			if i < len(runes) && isBoundary(runes[i]) {
				return i
			}
		}
	} else {
		for i := pos; i < len(runes); i++ {
			if isBoundary(runes[i]) {
				return i
			}
		}
	}
	return pos
}

// CompilePatterns 编译正则列表；任一非法立即报错。
func CompilePatterns(exprs []string) ([]*regexp.Regexp, error) {
	res := make([]*regexp.Regexp, 0, len(exprs))
	for _, e := range exprs {
		re, err := regexp.Compile(e)
		if err != nil {
			return nil, errors.Wrapf(err, "pattern %q", e)
		}
		res = append(res, re)
	}
	return res, nil
}

// RemovePatterns 对每行依次删除各模式的命中，返回受影响行数。
func RemovePatterns(lines []string, patterns []*regexp.Regexp) ([]string, int) {
	out := make([]string, len(lines))
	affected := 0
	for i, line := range lines {
		next := line
		for _, re := range patterns {
			next = re.ReplaceAllString(next, "")
		}
		if next != line {
			affected++
		}
		out[i] = next
	}
	return out, affected
}

// ReplacePatterns 按等长的 find/replace 列表做正则替换，返回受影响行数。
func ReplacePatterns(lines []string, patterns []*regexp.Regexp, replace []string) ([]string, int, error) {
	if len(patterns) != len(replace) {
		return nil, 0, errors.Errorf("find/replace count mismatch: %d != %d", len(patterns), len(replace))
	}
	out := make([]string, len(lines))
	affected := 0
	for i, line := range lines {
		next := line
		for n, re := range patterns {
			next = re.ReplaceAllString(next, replace[n])
		}
		if next != line {
			affected++
		}
		out[i] = next
	}
	return out, affected, nil
}

// RemoveEmpty 去掉 strip 后为空的行。
func RemoveEmpty(lines []string) []string {
	var out []string
	for _, l := range lines {
		if strings.TrimSpace(l) != "" {
			out = append(out, l)
		}
	}
	return out
}

// RemoveBlocks 删除 start/end 标记之间（含标记行）的文本块。
func RemoveBlocks(lines []string, starts, ends []string) []string {
	var out []string
	inBlock := false
	for _, line := range lines {
		if inBlock {
			for _, end := range ends {
				if strings.Contains(line, end) {
					inBlock = false
					break
				}
			}
			continue
		}
		for _, start := range starts {
			if strings.Contains(line, start) {
				inBlock = true
				break
			}
		}
		if !inBlock {
			out = append(out, line)
		}
	}
	return out
}
