package cli

import (
	"fmt"
	"io"

	"github.com/pkg/errors"

	"llmdc/pkg/contract"
	"llmdc/pkg/registry"
)

const usageLine = "usage: llm-convert [-l LEVEL] [-c COMPRESSION] [-u INTERVAL] [-b] <reader> [<filter>...] [<writer>]"

// Usage 输出用法与可用插件名清单。
func Usage(w io.Writer) {
	fmt.Fprintln(w, usageLine)
	fmt.Fprintln(w)
	g := &Globals{}
	fmt.Fprintln(w, GlobalFlags(g).FlagUsages())
	for _, cat := range []registry.Category{registry.CategoryReader, registry.CategoryFilter, registry.CategoryWriter} {
		fmt.Fprintf(w, "%ss:\n", cat)
		for _, name := range registry.List(cat) {
			fmt.Fprintf(w, "  %s\n", name)
		}
		fmt.Fprintln(w)
	}
	fmt.Fprintln(w, "use --help-plugin NAME for a plugin's options, --help-all for everything")
}

// PluginHelp 输出单个插件的描述与选项。
func PluginHelp(w io.Writer, name string) error {
	p, err := instantiate(name)
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "%s\n  %s\n%s", p.Name(), p.Description(), p.Flags().FlagUsages())
	return nil
}

// AllHelp 输出用法加全部插件的选项（稳定字母序）。
func AllHelp(w io.Writer) {
	Usage(w)
	for _, name := range registry.AllNames() {
		fmt.Fprintln(w)
		// 枚举来自注册表，实例化不会失败
		_ = PluginHelp(w, name)
	}
}

func instantiate(name string) (contract.Plugin, error) {
	if f, err := registry.Reader(name); err == nil {
		return f(), nil
	}
	if f, err := registry.Filter(name); err == nil {
		return f(), nil
	}
	if f, err := registry.Writer(name); err == nil {
		return f(), nil
	}
	if f, err := registry.Downloader(name); err == nil {
		return f(), nil
	}
	return nil, errors.Wrapf(contract.ErrPluginNotFound, "%q", name)
}
