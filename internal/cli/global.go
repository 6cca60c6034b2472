package cli

import (
	"github.com/kelseyhightower/envconfig"
	"github.com/pkg/errors"
	"github.com/spf13/pflag"

	"llmdc/pkg/contract"
	"llmdc/pkg/session"
)

// Globals: llm-convert 的全局参数（插件组之前的段）。
type Globals struct {
	LogLevel       string
	Compression    string
	UpdateInterval int
	ForceBatch     bool

	Help       bool
	HelpAll    bool
	HelpPlugin string
}

type globalEnv struct {
	// LogLevel: 未给 -l 时的默认日志级别。
	LogLevel string `envconfig:"LOGLEVEL"`
}

// GlobalFlags 构造全局 FlagSet 并绑定到 g。
func GlobalFlags(g *Globals) *pflag.FlagSet {
	fs := pflag.NewFlagSet("llm-convert", pflag.ContinueOnError)
	fs.StringVarP(&g.LogLevel, "logging_level", "l", "", "logging level (trace|debug|info|warn|error)")
	fs.StringVarP(&g.Compression, "compression", "c", "", "output compression when writing into a directory (none|bz2|gz|xz|zstd)")
	fs.IntVarP(&g.UpdateInterval, "update_interval", "u", 1000, "log progress every N records")
	fs.BoolVarP(&g.ForceBatch, "force_batch", "b", false, "materialize the full record sequence before writing")
	fs.BoolVarP(&g.Help, "help", "h", false, "show usage and plugin names")
	fs.BoolVar(&g.HelpAll, "help-all", false, "show usage plus every plugin's options")
	fs.StringVar(&g.HelpPlugin, "help-plugin", "", "show one plugin's options")
	fs.SetInterspersed(false)
	return fs
}

// ParseGlobals 解析全局段并构造会话。级别优先级：-l > LLMDC_LOGLEVEL > warn。
func ParseGlobals(args []string) (*Globals, *session.Session, error) {
	g := &Globals{}
	fs := GlobalFlags(g)
	if err := fs.Parse(args); err != nil {
		return nil, nil, errors.Wrapf(contract.ErrInvalidOption, "global: %v", err)
	}
	if rest := fs.Args(); len(rest) > 0 {
		return nil, nil, errors.Wrapf(contract.ErrPluginNotFound, "%q", rest[0])
	}

	level := g.LogLevel
	if level == "" {
		var env globalEnv
		if err := envconfig.Process("llmdc", &env); err == nil {
			level = env.LogLevel
		}
	}
	sess := session.New(level)

	comp, ok := session.ValidCompression(g.Compression)
	if !ok {
		return nil, nil, errors.Wrapf(contract.ErrInvalidOption, "unknown compression %q", g.Compression)
	}
	sess.Compression = comp
	sess.UpdateInterval = g.UpdateInterval
	sess.ForceBatch = g.ForceBatch
	return g, sess, nil
}
