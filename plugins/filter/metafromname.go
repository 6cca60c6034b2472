package filter

import (
	"regexp"

	"github.com/pkg/errors"
	"github.com/spf13/pflag"

	"llmdc/pkg/contract"
	"llmdc/pkg/session"
	"llmdc/plugins/pio"
)

// MetadataFromName 用正则从 'file' 元数据提取第一个分组，
// 存入指定元数据字段。不匹配的记录原样透传。
type MetadataFromName struct {
	expr  string
	field string

	pattern *regexp.Regexp
	fs      *pflag.FlagSet
	sess    *session.Session
}

func NewMetadataFromName() contract.Filter { return &MetadataFromName{} }

func (p *MetadataFromName) Name() string { return "metadata-from-name" }
func (p *MetadataFromName) Description() string {
	return "Extracts the first regexp group from the 'file' meta-data value into another meta-data field."
}

func (p *MetadataFromName) Flags() *pflag.FlagSet {
	if p.fs == nil {
		p.fs = pflag.NewFlagSet(p.Name(), pflag.ContinueOnError)
		p.fs.StringVarP(&p.expr, "expr", "e", "", "regular expression with one group to apply to the file name")
		p.fs.StringVarP(&p.field, "field", "f", "", "meta-data field to store the extracted group under")
	}
	return p.fs
}

func (p *MetadataFromName) Init(sess *session.Session) error {
	p.sess = sess
	if p.expr == "" || p.field == "" {
		return errors.Wrap(contract.ErrInvalidOption, "--expr and --field are required")
	}
	re, err := regexp.Compile(p.expr)
	if err != nil {
		return errors.Wrapf(contract.ErrInvalidOption, "invalid pattern %q: %v", p.expr, err)
	}
	if re.NumSubexp() < 1 {
		return errors.Wrapf(contract.ErrInvalidOption, "pattern %q has no group", p.expr)
	}
	p.pattern = re
	return nil
}

func (p *MetadataFromName) Accepts() []contract.Domain   { return anyDomain() }
func (p *MetadataFromName) Generates() []contract.Domain { return anyDomain() }

func (p *MetadataFromName) Process(rec contract.Record) ([]contract.Record, error) {
	m := rec.GetMeta()
	if m == nil {
		return []contract.Record{rec}, nil
	}
	file, ok := m["file"]
	if !ok {
		return []contract.Record{rec}, nil
	}
	if g := p.pattern.FindStringSubmatch(pio.String(file)); g != nil {
		contract.EnsureMeta(rec)[p.field] = g[1]
	}
	return []contract.Record{rec}, nil
}

func (p *MetadataFromName) Finalize() error { return nil }
