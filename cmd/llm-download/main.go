// llm-download 执行单个下载器插件，为流水线备好本地输入。
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"llmdc/internal/cli"
	"llmdc/internal/diag"
	"llmdc/pkg/contract"
	"llmdc/pkg/registry"
	_ "llmdc/plugins/all"

	"github.com/pkg/errors"
)

func main() { os.Exit(run(os.Args[1:])) }

func usage(w io.Writer) {
	fmt.Fprintln(w, "usage: llm-download [-l LEVEL] <downloader> [options...]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "downloaders:")
	for _, name := range registry.List(registry.CategoryDownloader) {
		fmt.Fprintf(w, "  %s\n", name)
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, "use --help-plugin NAME for a downloader's options")
}

func run(args []string) int {
	// 下载器名之前的段作为全局参数。
	split := len(args)
	for i, a := range args {
		if _, err := registry.Downloader(a); err == nil {
			split = i
			break
		}
	}
	g, sess, err := cli.ParseGlobals(args[:split])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		usage(os.Stderr)
		return diag.Classify(err)
	}

	switch {
	case g.Help:
		usage(os.Stdout)
		return diag.ExitOK
	case g.HelpPlugin != "":
		if err := cli.PluginHelp(os.Stdout, g.HelpPlugin); err != nil {
			return diag.Fail(sess.Logger, err)
		}
		return diag.ExitOK
	}

	if split == len(args) {
		usage(os.Stderr)
		return diag.ExitUsage
	}
	f, err := registry.Downloader(args[split])
	if err != nil {
		return diag.Fail(sess.Logger, err)
	}
	d := f()
	fs := d.Flags()
	if err := fs.Parse(args[split+1:]); err != nil {
		return diag.Fail(sess.Logger, errors.Wrapf(contract.ErrInvalidOption, "%s: %v", d.Name(), err))
	}
	if rest := fs.Args(); len(rest) > 0 {
		return diag.Fail(sess.Logger, errors.Wrapf(contract.ErrInvalidOption, "%s: unexpected arguments %v", d.Name(), rest))
	}
	if err := d.Init(sess); err != nil {
		return diag.Fail(sess.Logger, errors.Wrapf(err, "init %s", d.Name()))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := d.Download(ctx); err != nil {
		return diag.Fail(sess.Logger, err)
	}
	return diag.ExitOK
}
