package filter

import (
	"regexp"

	"github.com/pkg/errors"
	"github.com/spf13/pflag"

	"llmdc/pkg/contract"
	"llmdc/pkg/session"
)

// Metadata 按元数据字段比较保留或丢弃记录。
// 缺字段的记录一律丢弃，不视为运行失败。
type Metadata struct {
	field      string
	value      string
	comparison string
	action     string

	kept      int64
	discarded int64
	fs        *pflag.FlagSet
	sess      *session.Session
}

func NewMetadata() contract.Filter { return &Metadata{} }

func (p *Metadata) Name() string { return "metadata" }
func (p *Metadata) Description() string {
	return "Keeps or discards data records based on meta-data comparisons. " +
		"Records lacking the field get discarded."
}

func (p *Metadata) Flags() *pflag.FlagSet {
	if p.fs == nil {
		p.fs = pflag.NewFlagSet(p.Name(), pflag.ContinueOnError)
		p.fs.StringVarP(&p.field, "field", "f", "", "meta-data field to compare")
		p.fs.StringVarP(&p.value, "value", "v", "", "value to compare against")
		p.fs.StringVarP(&p.comparison, "comparison", "c", contract.CompareEqual, "comparison to apply (lt|le|eq|ne|ge|gt|contains|matches)")
		p.fs.StringVarP(&p.action, "action", "a", ActionKeep, "how to react when the comparison matches (keep|discard)")
	}
	return p.fs
}

func (p *Metadata) Init(sess *session.Session) error {
	p.sess = sess
	if p.field == "" {
		return errors.Wrap(contract.ErrInvalidOption, "no --field given")
	}
	if !contract.ValidComparison(p.comparison, true) {
		return errors.Wrapf(contract.ErrInvalidOption, "invalid comparison %q", p.comparison)
	}
	if !validAction(p.action) {
		return errors.Wrapf(contract.ErrInvalidOption, "invalid action %q", p.action)
	}
	if p.comparison == contract.CompareMatches {
		if _, err := regexp.Compile(p.value); err != nil {
			return errors.Wrapf(contract.ErrInvalidOption, "invalid pattern %q: %v", p.value, err)
		}
	}
	p.kept, p.discarded = 0, 0
	return nil
}

func (p *Metadata) Accepts() []contract.Domain   { return anyDomain() }
func (p *Metadata) Generates() []contract.Domain { return anyDomain() }

func (p *Metadata) Process(rec contract.Record) ([]contract.Record, error) {
	m := rec.GetMeta()
	v, ok := m[p.field]
	if m == nil || !ok {
		p.discarded++
		return nil, nil
	}
	matched, err := contract.CompareValues(v, p.comparison, p.value)
	if err != nil {
		return nil, err
	}
	keep := matched == (p.action == ActionKeep)
	if !keep {
		p.discarded++
		return nil, nil
	}
	p.kept++
	return []contract.Record{rec}, nil
}

func (p *Metadata) Finalize() error {
	p.sess.Logger.Info().Int64("kept", p.kept).Int64("discarded", p.discarded).Msg("metadata")
	return nil
}
