package filter

import (
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/pflag"

	"llmdc/pkg/contract"
	"llmdc/pkg/session"
	"llmdc/plugins/pio"
)

// SkipDuplicateIDs 抑制 'id' 元数据重复的记录，首见者保留。
// 无 id 的记录不参与去重，直接透传。
type SkipDuplicateIDs struct {
	seen    map[string]struct{}
	skipped int64
	fs      *pflag.FlagSet
	sess    *session.Session
}

func NewSkipDuplicateIDs() contract.Filter { return &SkipDuplicateIDs{} }

func (p *SkipDuplicateIDs) Name() string { return "skip-duplicate-ids" }
func (p *SkipDuplicateIDs) Description() string {
	return "Suppresses records with IDs that have been encountered before; the first occurrence wins."
}

func (p *SkipDuplicateIDs) Flags() *pflag.FlagSet {
	if p.fs == nil {
		p.fs = pflag.NewFlagSet(p.Name(), pflag.ContinueOnError)
	}
	return p.fs
}

func (p *SkipDuplicateIDs) Init(sess *session.Session) error {
	p.sess = sess
	p.seen = map[string]struct{}{}
	p.skipped = 0
	return nil
}

func (p *SkipDuplicateIDs) Accepts() []contract.Domain   { return anyDomain() }
func (p *SkipDuplicateIDs) Generates() []contract.Domain { return anyDomain() }

func (p *SkipDuplicateIDs) Process(rec contract.Record) ([]contract.Record, error) {
	m := rec.GetMeta()
	if m == nil {
		return []contract.Record{rec}, nil
	}
	v, ok := m["id"]
	if !ok {
		return []contract.Record{rec}, nil
	}
	id := pio.String(v)
	if _, dup := p.seen[id]; dup {
		p.skipped++
		return nil, nil
	}
	p.seen[id] = struct{}{}
	return []contract.Record{rec}, nil
}

func (p *SkipDuplicateIDs) Finalize() error {
	p.sess.Logger.Info().Int64("skipped", p.skipped).Msg("skip-duplicate-ids")
	return nil
}

// SkipDuplicateText 抑制文本字段重复的记录，首见者保留。
// 去重范围受 --location 与 --language 约束。
type SkipDuplicateText struct {
	location  string
	languages []string

	seen    map[string]struct{}
	skipped int64
	fs      *pflag.FlagSet
	sess    *session.Session
}

func NewSkipDuplicateText() contract.Filter { return &SkipDuplicateText{} }

func (p *SkipDuplicateText) Name() string { return "skip-duplicate-text" }
func (p *SkipDuplicateText) Description() string {
	return "Suppresses records whose text has been encountered before; the first occurrence wins."
}

func (p *SkipDuplicateText) Flags() *pflag.FlagSet {
	if p.fs == nil {
		p.fs = pflag.NewFlagSet(p.Name(), pflag.ContinueOnError)
		p.fs.StringVarP(&p.location, "location", "L", contract.LocationAny, "which text fields to compare")
		p.fs.StringArrayVarP(&p.languages, "language", "g", nil, "languages to inspect; all if not specified")
	}
	return p.fs
}

func (p *SkipDuplicateText) Init(sess *session.Session) error {
	p.sess = sess
	loc, ok := contract.ValidLocation(p.location)
	if !ok {
		return errors.Wrapf(contract.ErrInvalidOption, "invalid location %q", p.location)
	}
	p.location = loc
	for i, g := range p.languages {
		p.languages[i] = strings.ToLower(g)
	}
	p.seen = map[string]struct{}{}
	p.skipped = 0
	return nil
}

func (p *SkipDuplicateText) Accepts() []contract.Domain   { return anyDomain() }
func (p *SkipDuplicateText) Generates() []contract.Domain { return anyDomain() }

// 逐条文本小写后查重：任一命中即抑制整条记录；无论去留，
// 本条记录的全部文本都进入已见集合。
func (p *SkipDuplicateText) Process(rec contract.Record) ([]contract.Record, error) {
	texts := contract.Texts(rec, p.location, p.languages)
	dup := false
	for _, t := range texts {
		if _, ok := p.seen[strings.ToLower(t)]; ok {
			dup = true
			break
		}
	}
	for _, t := range texts {
		p.seen[strings.ToLower(t)] = struct{}{}
	}
	if dup {
		p.skipped++
		return nil, nil
	}
	return []contract.Record{rec}, nil
}

func (p *SkipDuplicateText) Finalize() error {
	p.sess.Logger.Info().Int64("skipped", p.skipped).Msg("skip-duplicate-text")
	return nil
}
