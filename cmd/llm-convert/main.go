// llm-convert 组装并执行 读取器 -> 过滤器链 -> 写出器 流水线。
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"llmdc/internal/cli"
	"llmdc/internal/diag"
	"llmdc/internal/pipeline"
	_ "llmdc/plugins/all"
)

func main() { os.Exit(run(os.Args[1:])) }

func run(args []string) int {
	global, groups := cli.SplitArgs(args)
	g, sess, err := cli.ParseGlobals(global)
	if err != nil {
		// 会话尚未建立，直接写标准错误。
		fmt.Fprintln(os.Stderr, err)
		cli.Usage(os.Stderr)
		return diag.Classify(err)
	}

	switch {
	case g.Help:
		cli.Usage(os.Stdout)
		return diag.ExitOK
	case g.HelpAll:
		cli.AllHelp(os.Stdout)
		return diag.ExitOK
	case g.HelpPlugin != "":
		if err := cli.PluginHelp(os.Stdout, g.HelpPlugin); err != nil {
			return diag.Fail(sess.Logger, err)
		}
		return diag.ExitOK
	}

	if len(groups) == 0 {
		cli.Usage(os.Stderr)
		return diag.ExitUsage
	}
	c, err := cli.Build(sess, groups)
	if err != nil {
		return diag.Fail(sess.Logger, err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := pipeline.Run(ctx, sess, c); err != nil {
		return diag.Fail(sess.Logger, err)
	}
	return diag.ExitOK
}
