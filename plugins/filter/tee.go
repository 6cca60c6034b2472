package filter

import (
	"regexp"

	"github.com/pkg/errors"
	"github.com/spf13/pflag"

	"llmdc/internal/cli"
	"llmdc/pkg/contract"
	"llmdc/pkg/session"
)

// gate: tee/sub-process 共用的元数据比较闸门。
// 未配置 field 时恒通过；记录缺字段时不通过。
type gate struct {
	field      string
	value      string
	comparison string
}

func (g *gate) bind(fs *pflag.FlagSet) {
	fs.StringVar(&g.field, "field", "", "meta-data field to use in the comparison (always passes when empty)")
	fs.StringVar(&g.value, "value", "", "value to use in the comparison")
	fs.StringVar(&g.comparison, "comparison", contract.CompareEqual, "comparison to apply (lt|le|eq|ne|ge|gt|contains|matches)")
}

func (g *gate) validate() error {
	if !contract.ValidComparison(g.comparison, true) {
		return errors.Wrapf(contract.ErrInvalidOption, "invalid comparison %q", g.comparison)
	}
	if g.comparison == contract.CompareMatches {
		if _, err := regexp.Compile(g.value); err != nil {
			return errors.Wrapf(contract.ErrInvalidOption, "invalid pattern %q: %v", g.value, err)
		}
	}
	return nil
}

func (g *gate) pass(rec contract.Record) (bool, error) {
	if g.field == "" {
		return true, nil
	}
	m := rec.GetMeta()
	if m == nil {
		return false, nil
	}
	v, ok := m[g.field]
	if !ok {
		return false, nil
	}
	return contract.CompareValues(v, g.comparison, g.value)
}

// runSubFilters 把记录推过子流过滤器链。
func runSubFilters(filters []contract.Filter, rec contract.Record) ([]contract.Record, error) {
	recs := []contract.Record{rec}
	for _, f := range filters {
		var next []contract.Record
		for _, r := range recs {
			out, err := f.Process(r)
			if err != nil {
				return nil, errors.Wrapf(err, "sub-flow %s", f.Name())
			}
			next = append(next, out...)
		}
		recs = next
		if len(recs) == 0 {
			return nil, nil
		}
	}
	return recs, nil
}

func finalizeSubFilters(filters []contract.Filter) error {
	for _, f := range filters {
		if err := f.Finalize(); err != nil {
			return errors.Wrapf(err, "sub-flow %s", f.Name())
		}
	}
	return nil
}

// Tee 把（闸门命中的）记录复制进子流（过滤器 + 可选写出器），
// 主路径记录原样继续。批写出器的内容在 Finalize 时冲刷。
type Tee struct {
	subFlow string
	gate    gate

	filters []contract.Filter
	writer  contract.Writer
	buffer  []contract.Record

	fs   *pflag.FlagSet
	sess *session.Session
}

func NewTee() contract.Filter { return &Tee{} }

func (p *Tee) Name() string { return "tee" }
func (p *Tee) Description() string {
	return "Forwards a copy of the (optionally gated) records into a sub-flow of filters and an optional writer; " +
		"the main flow continues unchanged."
}

func (p *Tee) Flags() *pflag.FlagSet {
	if p.fs == nil {
		p.fs = pflag.NewFlagSet(p.Name(), pflag.ContinueOnError)
		p.fs.StringVarP(&p.subFlow, "sub_flow", "f", "", "command-line defining the sub-flow (filter(s)/writer)")
		p.gate.bind(p.fs)
	}
	return p.fs
}

func (p *Tee) Init(sess *session.Session) error {
	p.sess = sess
	if p.subFlow == "" {
		return errors.Wrap(contract.ErrInvalidOption, "no --sub_flow given")
	}
	if err := p.gate.validate(); err != nil {
		return err
	}
	filters, writer, err := cli.BuildSubFlow(sess, p.subFlow, true)
	if err != nil {
		return err
	}
	p.filters, p.writer = filters, writer
	p.buffer = nil
	return nil
}

func (p *Tee) Accepts() []contract.Domain   { return anyDomain() }
func (p *Tee) Generates() []contract.Domain { return anyDomain() }

func (p *Tee) Process(rec contract.Record) ([]contract.Record, error) {
	pass, err := p.gate.pass(rec)
	if err != nil {
		return nil, err
	}
	if !pass {
		return []contract.Record{rec}, nil
	}

	branch, err := runSubFilters(p.filters, rec.Clone())
	if err != nil {
		return nil, err
	}
	if p.writer != nil {
		for _, r := range branch {
			switch w := p.writer.(type) {
			case contract.StreamWriter:
				if err := w.Write(r); err != nil {
					return nil, errors.Wrapf(err, "sub-flow %s", p.writer.Name())
				}
			case contract.BatchWriter:
				p.buffer = append(p.buffer, r)
			default:
				return nil, errors.Errorf("sub-flow writer %s implements neither stream nor batch", p.writer.Name())
			}
		}
	}
	return []contract.Record{rec}, nil
}

func (p *Tee) Finalize() error {
	if bw, ok := p.writer.(contract.BatchWriter); ok && p.buffer != nil {
		p.sess.Logger.Info().Int("records", len(p.buffer)).Msg("flushing sub-flow buffer")
		if err := bw.WriteBatch(p.buffer); err != nil {
			return errors.Wrapf(err, "sub-flow %s", p.writer.Name())
		}
		p.buffer = nil
	}
	if err := finalizeSubFilters(p.filters); err != nil {
		return err
	}
	if p.writer != nil {
		return errors.Wrapf(p.writer.Close(), "sub-flow %s", p.writer.Name())
	}
	return nil
}

// SubProcess 把（闸门命中的）记录就地替换为子流过滤结果；
// 闸门未命中的记录原样透传。子流只允许过滤器。
type SubProcess struct {
	subFlow string
	gate    gate

	filters []contract.Filter

	fs   *pflag.FlagSet
	sess *session.Session
}

func NewSubProcess() contract.Filter { return &SubProcess{} }

func (p *SubProcess) Name() string { return "sub-process" }
func (p *SubProcess) Description() string {
	return "Replaces the (optionally gated) records with the output of a sub-flow of filters; " +
		"records failing the gate pass through unchanged."
}

func (p *SubProcess) Flags() *pflag.FlagSet {
	if p.fs == nil {
		p.fs = pflag.NewFlagSet(p.Name(), pflag.ContinueOnError)
		p.fs.StringVarP(&p.subFlow, "sub_flow", "f", "", "command-line defining the sub-flow filter(s)")
		p.gate.bind(p.fs)
	}
	return p.fs
}

func (p *SubProcess) Init(sess *session.Session) error {
	p.sess = sess
	if p.subFlow == "" {
		return errors.Wrap(contract.ErrInvalidOption, "no --sub_flow given")
	}
	if err := p.gate.validate(); err != nil {
		return err
	}
	filters, _, err := cli.BuildSubFlow(sess, p.subFlow, false)
	if err != nil {
		return err
	}
	p.filters = filters
	return nil
}

func (p *SubProcess) Accepts() []contract.Domain   { return anyDomain() }
func (p *SubProcess) Generates() []contract.Domain { return anyDomain() }

func (p *SubProcess) Process(rec contract.Record) ([]contract.Record, error) {
	pass, err := p.gate.pass(rec)
	if err != nil {
		return nil, err
	}
	if !pass {
		return []contract.Record{rec}, nil
	}
	return runSubFilters(p.filters, rec)
}

func (p *SubProcess) Finalize() error {
	return finalizeSubFilters(p.filters)
}
