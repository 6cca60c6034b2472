// Package cli 负责命令行切分、插件组装与帮助文本。
// 参数按插件名边界切成位置组：首个已注册插件名之前是全局参数，
// 其后每遇到一个插件名开启新组；组内参数交由该插件自己的 FlagSet 解析。
package cli

import (
	"strings"

	"github.com/pkg/errors"

	"llmdc/pkg/registry"
)

// Group: 一个插件名及其后续参数。
type Group struct {
	Name string
	Args []string
}

// isPluginName: 名称属于读/滤/写任意类别即视为组边界。
func isPluginName(name string) bool {
	return registry.IsReader(name) || registry.IsFilter(name) || registry.IsWriter(name)
}

// SplitArgs 把参数切成 全局段 + 插件组列表。
func SplitArgs(args []string) (global []string, groups []Group) {
	for _, a := range args {
		if isPluginName(a) {
			groups = append(groups, Group{Name: a})
			continue
		}
		if len(groups) == 0 {
			global = append(global, a)
			continue
		}
		last := &groups[len(groups)-1]
		last.Args = append(last.Args, a)
	}
	return global, groups
}

// ShellSplit 按 shell 规则切分子流命令行：空白分词，单双引号成组，
// 反斜杠转义下一个字符。用于 tee/sub-process 的 --sub_flow。
func ShellSplit(s string) ([]string, error) {
	var out []string
	var cur strings.Builder
	started := false
	var quote rune
	escaped := false

	flush := func() {
		if started {
			out = append(out, cur.String())
			cur.Reset()
			started = false
		}
	}

	for _, r := range s {
		switch {
		case escaped:
			cur.WriteRune(r)
			started = true
			escaped = false
		case r == '\\' && quote != '\'':
			escaped = true
			started = true
		case quote != 0:
			if r == quote {
				quote = 0
			} else {
				cur.WriteRune(r)
			}
		case r == '\'' || r == '"':
			quote = r
			started = true
		case r == ' ' || r == '\t' || r == '\n':
			flush()
		default:
			cur.WriteRune(r)
			started = true
		}
	}
	if quote != 0 {
		return nil, errors.Errorf("unterminated quote in %q", s)
	}
	if escaped {
		return nil, errors.Errorf("trailing escape in %q", s)
	}
	flush()
	return out, nil
}
