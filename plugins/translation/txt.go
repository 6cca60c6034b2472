package translation

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/pflag"

	"llmdc/internal/fileio"
	"llmdc/pkg/contract"
	"llmdc/pkg/session"
	"llmdc/plugins/pio"
)

// FromTxt 读取块状纯文本翻译数据：每块若干 "lang: text" 行，
// 块之间以空行分隔。
type FromTxt struct {
	in     pio.Input
	colSep string

	fs   *pflag.FlagSet
	sess *session.Session
}

func NewFromTxt() contract.Reader { return &FromTxt{} }

func (p *FromTxt) Name() string {
	return "from-txt-" + contract.DomainSuffix(contract.DomainTranslation)
}
func (p *FromTxt) Description() string {
	return "Reads translation data from plain text files: blocks of 'lang: text' lines separated by empty lines."
}

func (p *FromTxt) Flags() *pflag.FlagSet {
	if p.fs == nil {
		p.fs = pflag.NewFlagSet(p.Name(), pflag.ContinueOnError)
		p.in.Bind(p.fs)
		p.fs.StringVar(&p.colSep, "col_sep", ":", "separator between language ID and text")
	}
	return p.fs
}

func (p *FromTxt) Init(sess *session.Session) error {
	p.sess = sess
	if err := p.in.Validate(); err != nil {
		return err
	}
	if p.colSep == "" {
		return errors.Wrap(contract.ErrInvalidOption, "empty --col_sep")
	}
	return nil
}

func (p *FromTxt) Generates() []contract.Domain {
	return []contract.Domain{contract.DomainTranslation}
}

func (p *FromTxt) Read(ctx context.Context, yield func(contract.Record) error) error {
	return p.in.ForEach(ctx, p.sess, func(path string, r io.Reader) error {
		emit := func(block map[string]string) error {
			if len(block) == 0 {
				return nil
			}
			rec := &contract.TranslationData{Translations: block}
			pio.FileMeta(rec, path)
			return yield(rec)
		}

		block := map[string]string{}
		sc := bufio.NewScanner(r)
		sc.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
		lineNo := 0
		for sc.Scan() {
			if err := ctx.Err(); err != nil {
				return err
			}
			lineNo++
			line := strings.TrimSpace(sc.Text())
			if line == "" {
				if err := emit(block); err != nil {
					return err
				}
				block = map[string]string{}
				continue
			}
			lang, text, found := strings.Cut(line, p.colSep)
			if !found {
				return errors.Errorf("%s line %d: no %q separator", path, lineNo, p.colSep)
			}
			block[strings.TrimSpace(lang)] = strings.TrimSpace(text)
		}
		if err := sc.Err(); err != nil {
			return errors.Wrapf(err, "read %s", path)
		}
		return emit(block)
	})
}

// ToTxt 按同样的块格式写出翻译数据，语言按字母序稳定输出。
type ToTxt struct {
	out    pio.Output
	colSep string

	first  bool
	fs     *pflag.FlagSet
	sess   *session.Session
	router *fileio.Router
}

func NewToTxt() contract.Writer { return &ToTxt{} }

func (p *ToTxt) Name() string {
	return "to-txt-" + contract.DomainSuffix(contract.DomainTranslation)
}
func (p *ToTxt) Description() string {
	return "Writes translation data to plain text files: blocks of 'lang: text' lines separated by empty lines."
}

func (p *ToTxt) Flags() *pflag.FlagSet {
	if p.fs == nil {
		p.fs = pflag.NewFlagSet(p.Name(), pflag.ContinueOnError)
		p.out.Bind(p.fs)
		p.fs.StringVar(&p.colSep, "col_sep", ":", "separator between language ID and text")
	}
	return p.fs
}

func (p *ToTxt) Init(sess *session.Session) error {
	p.sess = sess
	if err := p.out.Validate(); err != nil {
		return err
	}
	p.first = true
	p.router = p.out.Router(sess, ".txt")
	return nil
}

func (p *ToTxt) Accepts() []contract.Domain {
	return []contract.Domain{contract.DomainTranslation}
}

func (p *ToTxt) Write(rec contract.Record) error {
	d, ok := rec.(*contract.TranslationData)
	if !ok {
		return errors.Errorf("%s: unexpected record domain %s", p.Name(), rec.Domain())
	}
	w, fresh, err := p.router.Current()
	if err != nil {
		return err
	}
	if !fresh && !p.first {
		if _, err := io.WriteString(w, "\n"); err != nil {
			return err
		}
	}
	p.first = false

	langs := make([]string, 0, len(d.Translations))
	for lang := range d.Translations {
		langs = append(langs, lang)
	}
	sort.Strings(langs)
	for _, lang := range langs {
		if _, err := fmt.Fprintf(w, "%s%s %s\n", lang, p.colSep, d.Translations[lang]); err != nil {
			return err
		}
	}
	return nil
}

func (p *ToTxt) Close() error {
	if p.router == nil {
		return nil
	}
	return p.router.Close()
}
