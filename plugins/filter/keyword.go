// Package filter 汇集核心流水线的全部过滤器插件。
package filter

import (
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/pflag"

	"llmdc/pkg/contract"
	"llmdc/pkg/session"
)

// 保留/丢弃动作。
const (
	ActionKeep    = "keep"
	ActionDiscard = "discard"
)

func validAction(a string) bool { return a == ActionKeep || a == ActionDiscard }

func anyDomain() []contract.Domain { return []contract.Domain{contract.DomainAny} }

// Keyword 按关键词的词集合命中保留或丢弃记录。匹配按小写、
// 空白分词进行。
type Keyword struct {
	keywords  []string
	location  string
	languages []string
	action    string

	kept      int64
	discarded int64
	fs        *pflag.FlagSet
	sess      *session.Session
}

func NewKeyword() contract.Filter { return &Keyword{} }

func (p *Keyword) Name() string { return "keyword" }
func (p *Keyword) Description() string {
	return "Keeps or discards data records based on keyword(s). Search is performed in lower-case."
}

func (p *Keyword) Flags() *pflag.FlagSet {
	if p.fs == nil {
		p.fs = pflag.NewFlagSet(p.Name(), pflag.ContinueOnError)
		p.fs.StringArrayVarP(&p.keywords, "keyword", "k", nil, "keywords to look for (lower case)")
		p.fs.StringVarP(&p.location, "location", "L", contract.LocationAny, "where to look for the keywords")
		p.fs.StringArrayVarP(&p.languages, "language", "g", nil, "languages to inspect; all if not specified")
		p.fs.StringVarP(&p.action, "action", "a", ActionKeep, "how to react when a keyword is encountered (keep|discard)")
	}
	return p.fs
}

func (p *Keyword) Init(sess *session.Session) error {
	p.sess = sess
	if len(p.keywords) == 0 {
		return errors.Wrap(contract.ErrInvalidOption, "no --keyword given")
	}
	loc, ok := contract.ValidLocation(p.location)
	if !ok {
		return errors.Wrapf(contract.ErrInvalidOption, "invalid location %q", p.location)
	}
	p.location = loc
	if !validAction(p.action) {
		return errors.Wrapf(contract.ErrInvalidOption, "invalid action %q", p.action)
	}
	for i, k := range p.keywords {
		p.keywords[i] = strings.ToLower(k)
	}
	for i, g := range p.languages {
		p.languages[i] = strings.ToLower(g)
	}
	p.kept, p.discarded = 0, 0
	return nil
}

func (p *Keyword) Accepts() []contract.Domain   { return anyDomain() }
func (p *Keyword) Generates() []contract.Domain { return anyDomain() }

func (p *Keyword) Process(rec contract.Record) ([]contract.Record, error) {
	words := map[string]struct{}{}
	for _, text := range contract.Texts(rec, p.location, p.languages) {
		for _, w := range strings.Fields(strings.ToLower(text)) {
			words[w] = struct{}{}
		}
	}
	found := false
	for _, k := range p.keywords {
		if _, ok := words[k]; ok {
			found = true
			break
		}
	}
	keep := found == (p.action == ActionKeep)
	if !keep {
		p.discarded++
		return nil, nil
	}
	p.kept++
	return []contract.Record{rec}, nil
}

func (p *Keyword) Finalize() error {
	p.sess.Logger.Info().Int64("kept", p.kept).Int64("discarded", p.discarded).Msg("keyword")
	return nil
}
