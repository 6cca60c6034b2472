package cli

import (
	"github.com/pkg/errors"

	"llmdc/internal/pipeline"
	"llmdc/pkg/contract"
	"llmdc/pkg/registry"
	"llmdc/pkg/session"
)

// Build 把插件组装配成流水线组件：首组必须是读取器，写出器至多一个
// 且必须收尾，中间全部为过滤器。每个插件先解析自身参数再 Init。
func Build(sess *session.Session, groups []Group) (*pipeline.Components, error) {
	if len(groups) == 0 {
		return nil, errors.Wrap(contract.ErrInvalidOption, "no plugins given")
	}
	c := &pipeline.Components{}
	for i, g := range groups {
		switch {
		case i == 0:
			f, err := registry.Reader(g.Name)
			if err != nil {
				if registry.IsFilter(g.Name) || registry.IsWriter(g.Name) {
					return nil, errors.Wrapf(contract.ErrInvalidOption, "first plugin must be a reader, got %q", g.Name)
				}
				return nil, err
			}
			r := f()
			if err := configure(sess, r, g.Args); err != nil {
				return nil, err
			}
			c.Reader = r
		case registry.IsFilter(g.Name):
			f, err := registry.Filter(g.Name)
			if err != nil {
				return nil, err
			}
			if c.Writer != nil {
				return nil, errors.Wrapf(contract.ErrInvalidOption, "filter %q after writer", g.Name)
			}
			flt := f()
			if err := configure(sess, flt, g.Args); err != nil {
				return nil, err
			}
			c.Filters = append(c.Filters, flt)
		case registry.IsWriter(g.Name):
			if c.Writer != nil {
				return nil, errors.Wrapf(contract.ErrInvalidOption, "more than one writer (%q)", g.Name)
			}
			f, err := registry.Writer(g.Name)
			if err != nil {
				return nil, err
			}
			w := f()
			if err := configure(sess, w, g.Args); err != nil {
				return nil, err
			}
			c.Writer = w
		default:
			return nil, errors.Wrapf(contract.ErrPluginNotFound, "%q", g.Name)
		}
	}
	return c, nil
}

// BuildSubFlow 为 tee/sub-process 组装无读取器子流：
// 过滤器序列 + 可选收尾写出器。allowWriter 为假时写出器报错。
func BuildSubFlow(sess *session.Session, cmdline string, allowWriter bool) ([]contract.Filter, contract.Writer, error) {
	args, err := ShellSplit(cmdline)
	if err != nil {
		return nil, nil, errors.Wrap(contract.ErrInvalidOption, err.Error())
	}
	global, groups := SplitArgs(args)
	if len(global) > 0 {
		return nil, nil, errors.Wrapf(contract.ErrInvalidOption, "unexpected leading arguments %v in sub-flow", global)
	}
	if len(groups) == 0 {
		return nil, nil, errors.Wrap(contract.ErrInvalidOption, "empty sub-flow")
	}

	var filters []contract.Filter
	var writer contract.Writer
	for _, g := range groups {
		switch {
		case registry.IsFilter(g.Name):
			if writer != nil {
				return nil, nil, errors.Wrapf(contract.ErrInvalidOption, "filter %q after writer in sub-flow", g.Name)
			}
			f, err := registry.Filter(g.Name)
			if err != nil {
				return nil, nil, err
			}
			flt := f()
			if err := configure(sess, flt, g.Args); err != nil {
				return nil, nil, err
			}
			filters = append(filters, flt)
		case registry.IsWriter(g.Name):
			if !allowWriter {
				return nil, nil, errors.Wrapf(contract.ErrInvalidOption, "writer %q not allowed in this sub-flow", g.Name)
			}
			if writer != nil {
				return nil, nil, errors.Wrapf(contract.ErrInvalidOption, "more than one writer in sub-flow (%q)", g.Name)
			}
			f, err := registry.Writer(g.Name)
			if err != nil {
				return nil, nil, err
			}
			w := f()
			if err := configure(sess, w, g.Args); err != nil {
				return nil, nil, err
			}
			writer = w
		default:
			return nil, nil, errors.Wrapf(contract.ErrInvalidOption, "readers not allowed in sub-flow: %q", g.Name)
		}
	}
	return filters, writer, nil
}

// configure 解析插件自身参数并初始化。未知参数硬失败。
func configure(sess *session.Session, p contract.Plugin, args []string) error {
	fs := p.Flags()
	if err := fs.Parse(args); err != nil {
		return errors.Wrapf(contract.ErrInvalidOption, "%s: %v", p.Name(), err)
	}
	if rest := fs.Args(); len(rest) > 0 {
		return errors.Wrapf(contract.ErrInvalidOption, "%s: unexpected arguments %v", p.Name(), rest)
	}
	if err := p.Init(sess); err != nil {
		return errors.Wrapf(err, "init %s", p.Name())
	}
	return nil
}
