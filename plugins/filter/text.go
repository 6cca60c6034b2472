package filter

import (
	"regexp"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/pflag"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"llmdc/internal/textutil"
	"llmdc/pkg/contract"
	"llmdc/pkg/session"
)

// TextLength 按文本长度保留/丢弃记录。任一命中字段越界即丢弃。
type TextLength struct {
	minLength int
	maxLength int
	location  string
	languages []string

	kept      int64
	discarded int64
	fs        *pflag.FlagSet
	sess      *session.Session
}

func NewTextLength() contract.Filter { return &TextLength{} }

func (p *TextLength) Name() string { return "text-length" }
func (p *TextLength) Description() string {
	return "Keeps or discards data records based on text length constraints."
}

func (p *TextLength) Flags() *pflag.FlagSet {
	if p.fs == nil {
		p.fs = pflag.NewFlagSet(p.Name(), pflag.ContinueOnError)
		p.fs.IntVar(&p.minLength, "min_length", -1, "minimum text length (<0 for none)")
		p.fs.IntVar(&p.maxLength, "max_length", -1, "maximum text length (<0 for none)")
		p.fs.StringVarP(&p.location, "location", "L", contract.LocationAny, "which text fields to check")
		p.fs.StringArrayVarP(&p.languages, "language", "g", nil, "languages to inspect; all if not specified")
	}
	return p.fs
}

func (p *TextLength) Init(sess *session.Session) error {
	p.sess = sess
	loc, ok := contract.ValidLocation(p.location)
	if !ok {
		return errors.Wrapf(contract.ErrInvalidOption, "invalid location %q", p.location)
	}
	p.location = loc
	if p.minLength >= 0 && p.maxLength >= 0 && p.minLength > p.maxLength {
		return errors.Wrapf(contract.ErrInvalidOption, "min_length > max_length: %d > %d", p.minLength, p.maxLength)
	}
	p.kept, p.discarded = 0, 0
	return nil
}

func (p *TextLength) Accepts() []contract.Domain   { return anyDomain() }
func (p *TextLength) Generates() []contract.Domain { return anyDomain() }

func (p *TextLength) Process(rec contract.Record) ([]contract.Record, error) {
	for _, text := range contract.Texts(rec, p.location, p.languages) {
		n := len([]rune(text))
		if p.minLength >= 0 && n < p.minLength {
			p.discarded++
			return nil, nil
		}
		if p.maxLength >= 0 && n > p.maxLength {
			p.discarded++
			return nil, nil
		}
	}
	p.kept++
	return []contract.Record{rec}, nil
}

func (p *TextLength) Finalize() error {
	p.sess.Logger.Info().Int64("kept", p.kept).Int64("discarded", p.discarded).Msg("text-length")
	return nil
}

// RemoveEmpty 抑制命中字段全为空白的记录。
type RemoveEmpty struct {
	location  string
	languages []string

	discarded int64
	fs        *pflag.FlagSet
	sess      *session.Session
}

func NewRemoveEmpty() contract.Filter { return &RemoveEmpty{} }

func (p *RemoveEmpty) Name() string { return "remove-empty" }
func (p *RemoveEmpty) Description() string {
	return "Removes records with empty text fields."
}

func (p *RemoveEmpty) Flags() *pflag.FlagSet {
	if p.fs == nil {
		p.fs = pflag.NewFlagSet(p.Name(), pflag.ContinueOnError)
		p.fs.StringVarP(&p.location, "location", "L", contract.LocationAny, "which text fields to check")
		p.fs.StringArrayVarP(&p.languages, "language", "g", nil, "languages to inspect; all if not specified")
	}
	return p.fs
}

func (p *RemoveEmpty) Init(sess *session.Session) error {
	p.sess = sess
	loc, ok := contract.ValidLocation(p.location)
	if !ok {
		return errors.Wrapf(contract.ErrInvalidOption, "invalid location %q", p.location)
	}
	p.location = loc
	p.discarded = 0
	return nil
}

func (p *RemoveEmpty) Accepts() []contract.Domain   { return anyDomain() }
func (p *RemoveEmpty) Generates() []contract.Domain { return anyDomain() }

func (p *RemoveEmpty) Process(rec contract.Record) ([]contract.Record, error) {
	for _, text := range contract.Texts(rec, p.location, p.languages) {
		if strings.TrimSpace(text) != "" {
			return []contract.Record{rec}, nil
		}
	}
	p.discarded++
	return nil, nil
}

func (p *RemoveEmpty) Finalize() error {
	p.sess.Logger.Info().Int64("discarded", p.discarded).Msg("remove-empty")
	return nil
}

// 大小写变换取值。
const (
	CaseLower = "lower"
	CaseUpper = "upper"
	CaseTitle = "title"
)

// ChangeCase 就地变换命中字段的大小写。
type ChangeCase struct {
	caseKind  string
	location  string
	languages []string

	apply func(string) string
	fs    *pflag.FlagSet
	sess  *session.Session
}

func NewChangeCase() contract.Filter { return &ChangeCase{} }

func (p *ChangeCase) Name() string { return "change-case" }
func (p *ChangeCase) Description() string {
	return "Changes the case of the text fields (lower|upper|title)."
}

func (p *ChangeCase) Flags() *pflag.FlagSet {
	if p.fs == nil {
		p.fs = pflag.NewFlagSet(p.Name(), pflag.ContinueOnError)
		p.fs.StringVarP(&p.caseKind, "case", "C", CaseLower, "case to apply (lower|upper|title)")
		p.fs.StringVarP(&p.location, "location", "L", contract.LocationAny, "which text fields to transform")
		p.fs.StringArrayVarP(&p.languages, "language", "g", nil, "languages to inspect; all if not specified")
	}
	return p.fs
}

func (p *ChangeCase) Init(sess *session.Session) error {
	p.sess = sess
	loc, ok := contract.ValidLocation(p.location)
	if !ok {
		return errors.Wrapf(contract.ErrInvalidOption, "invalid location %q", p.location)
	}
	p.location = loc
	switch p.caseKind {
	case CaseLower:
		p.apply = strings.ToLower
	case CaseUpper:
		p.apply = strings.ToUpper
	case CaseTitle:
		caser := cases.Title(language.Und)
		p.apply = caser.String
	default:
		return errors.Wrapf(contract.ErrInvalidOption, "invalid case %q", p.caseKind)
	}
	return nil
}

func (p *ChangeCase) Accepts() []contract.Domain   { return anyDomain() }
func (p *ChangeCase) Generates() []contract.Domain { return anyDomain() }

func (p *ChangeCase) Process(rec contract.Record) ([]contract.Record, error) {
	contract.Apply(rec, p.location, p.languages, p.apply)
	return []contract.Record{rec}, nil
}

func (p *ChangeCase) Finalize() error { return nil }

// StripStrings 去掉命中字段首尾的空白。
type StripStrings struct {
	location  string
	languages []string

	fs   *pflag.FlagSet
	sess *session.Session
}

func NewStripStrings() contract.Filter { return &StripStrings{} }

func (p *StripStrings) Name() string { return "strip-strings" }
func (p *StripStrings) Description() string {
	return "Strips leading and trailing whitespace from the text fields."
}

func (p *StripStrings) Flags() *pflag.FlagSet {
	if p.fs == nil {
		p.fs = pflag.NewFlagSet(p.Name(), pflag.ContinueOnError)
		p.fs.StringVarP(&p.location, "location", "L", contract.LocationAny, "which text fields to strip")
		p.fs.StringArrayVarP(&p.languages, "language", "g", nil, "languages to inspect; all if not specified")
	}
	return p.fs
}

func (p *StripStrings) Init(sess *session.Session) error {
	p.sess = sess
	loc, ok := contract.ValidLocation(p.location)
	if !ok {
		return errors.Wrapf(contract.ErrInvalidOption, "invalid location %q", p.location)
	}
	p.location = loc
	return nil
}

func (p *StripStrings) Accepts() []contract.Domain   { return anyDomain() }
func (p *StripStrings) Generates() []contract.Domain { return anyDomain() }

func (p *StripStrings) Process(rec contract.Record) ([]contract.Record, error) {
	contract.Apply(rec, p.location, p.languages, strings.TrimSpace)
	return []contract.Record{rec}, nil
}

func (p *StripStrings) Finalize() error { return nil }

// RemovePatterns 对命中字段做正则删除。
type RemovePatterns struct {
	exprRemove []string
	location   string
	languages  []string

	patterns []*regexp.Regexp
	affected int64
	fs       *pflag.FlagSet
	sess     *session.Session
}

func NewRemovePatterns() contract.Filter { return &RemovePatterns{} }

func (p *RemovePatterns) Name() string { return "remove-patterns" }
func (p *RemovePatterns) Description() string {
	return "Removes substrings matching the regular expressions from the text fields."
}

func (p *RemovePatterns) Flags() *pflag.FlagSet {
	if p.fs == nil {
		p.fs = pflag.NewFlagSet(p.Name(), pflag.ContinueOnError)
		p.fs.StringArrayVarP(&p.exprRemove, "expr_remove", "r", nil, "regular expressions for removing sub-strings")
		p.fs.StringVarP(&p.location, "location", "L", contract.LocationAny, "which text fields to transform")
		p.fs.StringArrayVarP(&p.languages, "language", "g", nil, "languages to inspect; all if not specified")
	}
	return p.fs
}

func (p *RemovePatterns) Init(sess *session.Session) error {
	p.sess = sess
	if len(p.exprRemove) == 0 {
		return errors.Wrap(contract.ErrInvalidOption, "no --expr_remove given")
	}
	loc, ok := contract.ValidLocation(p.location)
	if !ok {
		return errors.Wrapf(contract.ErrInvalidOption, "invalid location %q", p.location)
	}
	p.location = loc
	patterns, err := textutil.CompilePatterns(p.exprRemove)
	if err != nil {
		return errors.Wrap(contract.ErrInvalidOption, err.Error())
	}
	p.patterns = patterns
	p.affected = 0
	return nil
}

func (p *RemovePatterns) Accepts() []contract.Domain   { return anyDomain() }
func (p *RemovePatterns) Generates() []contract.Domain { return anyDomain() }

func (p *RemovePatterns) Process(rec contract.Record) ([]contract.Record, error) {
	changed := false
	contract.Apply(rec, p.location, p.languages, func(s string) string {
		next := s
		for _, re := range p.patterns {
			next = re.ReplaceAllString(next, "")
		}
		if next != s {
			changed = true
		}
		return next
	})
	if changed {
		p.affected++
	}
	return []contract.Record{rec}, nil
}

func (p *RemovePatterns) Finalize() error {
	p.sess.Logger.Info().Int64("affected", p.affected).Msg("remove-patterns")
	return nil
}

// ReplacePatterns 对命中字段做正则替换；find/replace 必须等长。
type ReplacePatterns struct {
	find      []string
	replace   []string
	location  string
	languages []string

	patterns []*regexp.Regexp
	affected int64
	fs       *pflag.FlagSet
	sess     *session.Session
}

func NewReplacePatterns() contract.Filter { return &ReplacePatterns{} }

func (p *ReplacePatterns) Name() string { return "replace-patterns" }
func (p *ReplacePatterns) Description() string {
	return "Replaces substrings matching the regular expressions in the text fields."
}

func (p *ReplacePatterns) Flags() *pflag.FlagSet {
	if p.fs == nil {
		p.fs = pflag.NewFlagSet(p.Name(), pflag.ContinueOnError)
		p.fs.StringArrayVarP(&p.find, "find", "f", nil, "regular expressions to find")
		p.fs.StringArrayVarP(&p.replace, "replace", "R", nil, "replacement strings, one per find expression")
		p.fs.StringVarP(&p.location, "location", "L", contract.LocationAny, "which text fields to transform")
		p.fs.StringArrayVarP(&p.languages, "language", "g", nil, "languages to inspect; all if not specified")
	}
	return p.fs
}

func (p *ReplacePatterns) Init(sess *session.Session) error {
	p.sess = sess
	if len(p.find) == 0 {
		return errors.Wrap(contract.ErrInvalidOption, "no --find given")
	}
	if len(p.find) != len(p.replace) {
		return errors.Wrapf(contract.ErrInvalidOption, "find/replace count mismatch: %d != %d", len(p.find), len(p.replace))
	}
	loc, ok := contract.ValidLocation(p.location)
	if !ok {
		return errors.Wrapf(contract.ErrInvalidOption, "invalid location %q", p.location)
	}
	p.location = loc
	patterns, err := textutil.CompilePatterns(p.find)
	if err != nil {
		return errors.Wrap(contract.ErrInvalidOption, err.Error())
	}
	p.patterns = patterns
	p.affected = 0
	return nil
}

func (p *ReplacePatterns) Accepts() []contract.Domain   { return anyDomain() }
func (p *ReplacePatterns) Generates() []contract.Domain { return anyDomain() }

func (p *ReplacePatterns) Process(rec contract.Record) ([]contract.Record, error) {
	changed := false
	contract.Apply(rec, p.location, p.languages, func(s string) string {
		next := s
		for i, re := range p.patterns {
			next = re.ReplaceAllString(next, p.replace[i])
		}
		if next != s {
			changed = true
		}
		return next
	})
	if changed {
		p.affected++
	}
	return []contract.Record{rec}, nil
}

func (p *ReplacePatterns) Finalize() error {
	p.sess.Logger.Info().Int64("affected", p.affected).Msg("replace-patterns")
	return nil
}
