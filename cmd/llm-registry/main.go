// llm-registry 枚举注册表中的插件，供脚本与排错使用。
package main

import (
	"fmt"
	"os"

	"github.com/spf13/pflag"

	"llmdc/internal/diag"
	"llmdc/pkg/registry"
	_ "llmdc/plugins/all"
)

func main() { os.Exit(run(os.Args[1:])) }

func run(args []string) int {
	var category string
	var help bool
	fs := pflag.NewFlagSet("llm-registry", pflag.ContinueOnError)
	fs.StringVarP(&category, "type", "t", "", "only list this plugin type (downloader|reader|filter|writer)")
	fs.BoolVarP(&help, "help", "h", false, "show usage")
	if err := fs.Parse(args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return diag.ExitUsage
	}
	if help {
		fmt.Println("usage: llm-registry [-t TYPE]")
		fmt.Println()
		fs.PrintDefaults()
		return diag.ExitOK
	}
	if rest := fs.Args(); len(rest) > 0 {
		fmt.Fprintf(os.Stderr, "unexpected arguments %v\n", rest)
		return diag.ExitUsage
	}

	all := []registry.Category{
		registry.CategoryDownloader,
		registry.CategoryReader,
		registry.CategoryFilter,
		registry.CategoryWriter,
	}
	var selected []registry.Category
	if category == "" {
		selected = all
	} else {
		for _, cat := range all {
			if string(cat) == category {
				selected = []registry.Category{cat}
			}
		}
		if selected == nil {
			fmt.Fprintf(os.Stderr, "unknown plugin type %q\n", category)
			return diag.ExitUsage
		}
	}

	for _, cat := range selected {
		fmt.Printf("%ss:\n", cat)
		for _, name := range registry.List(cat) {
			fmt.Printf("  %s\n", name)
		}
		fmt.Println()
	}
	return diag.ExitOK
}
