// Package translation 实现 语言 ID → 文本 翻译映射领域的读取器与写出器。
package translation

import (
	"context"
	"encoding/csv"
	"io"
	"sort"

	"github.com/pkg/errors"
	"github.com/spf13/pflag"

	"llmdc/internal/fileio"
	"llmdc/pkg/contract"
	"llmdc/pkg/session"
	"llmdc/plugins/pio"
)

// FromCsv 读取 CSV 翻译数据：表头列名即语言 ID；--col_id 指定 ID 列，
// --languages 限制读入的语言。
type FromCsv struct {
	in        pio.Input
	colID     string
	languages []string

	fs   *pflag.FlagSet
	sess *session.Session
}

func NewFromCsv() contract.Reader { return &FromCsv{} }

func (p *FromCsv) Name() string {
	return "from-csv-" + contract.DomainSuffix(contract.DomainTranslation)
}
func (p *FromCsv) Description() string {
	return "Reads translation data in CSV format, with the header columns being the language IDs."
}

func (p *FromCsv) Flags() *pflag.FlagSet {
	if p.fs == nil {
		p.fs = pflag.NewFlagSet(p.Name(), pflag.ContinueOnError)
		p.in.Bind(p.fs)
		p.fs.StringVar(&p.colID, "col_id", "", "name of the column with the row IDs (stored under 'id' in the meta-data)")
		p.fs.StringArrayVarP(&p.languages, "languages", "g", nil, "language IDs to read (all columns when empty)")
	}
	return p.fs
}

func (p *FromCsv) Init(sess *session.Session) error {
	p.sess = sess
	return p.in.Validate()
}

func (p *FromCsv) Generates() []contract.Domain {
	return []contract.Domain{contract.DomainTranslation}
}

func (p *FromCsv) wantLang(lang string) bool {
	if len(p.languages) == 0 {
		return true
	}
	for _, l := range p.languages {
		if l == lang {
			return true
		}
	}
	return false
}

func (p *FromCsv) Read(ctx context.Context, yield func(contract.Record) error) error {
	return p.in.ForEach(ctx, p.sess, func(path string, r io.Reader) error {
		cr := csv.NewReader(r)
		cr.FieldsPerRecord = -1

		header, err := cr.Read()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return errors.Wrapf(err, "read header %s", path)
		}
		idxID := -1
		for i, h := range header {
			if p.colID != "" && h == p.colID {
				idxID = i
			}
		}

		for {
			if err := ctx.Err(); err != nil {
				return err
			}
			row, err := cr.Read()
			if err == io.EOF {
				return nil
			}
			if err != nil {
				return errors.Wrapf(err, "read %s", path)
			}
			rec := &contract.TranslationData{Translations: map[string]string{}}
			for i, h := range header {
				if i == idxID || !p.wantLang(h) {
					continue
				}
				rec.Translations[h] = pio.Cell(row, i)
			}
			pio.FileMeta(rec, path)
			if idxID >= 0 {
				rec.GetMeta()["id"] = pio.Cell(row, idxID)
			}
			if err := yield(rec); err != nil {
				return err
			}
		}
	})
}

// ToCsv 流式写出 CSV 翻译数据；列集合在 Init 时由 --languages 固定
// （写出器必须先知道表头）。
type ToCsv struct {
	out       pio.Output
	colID     string
	languages []string

	fs     *pflag.FlagSet
	sess   *session.Session
	router *fileio.Router
	cw     *csv.Writer
}

func NewToCsv() contract.Writer { return &ToCsv{} }

func (p *ToCsv) Name() string {
	return "to-csv-" + contract.DomainSuffix(contract.DomainTranslation)
}
func (p *ToCsv) Description() string {
	return "Writes translation data in CSV format, one column per language ID."
}

func (p *ToCsv) Flags() *pflag.FlagSet {
	if p.fs == nil {
		p.fs = pflag.NewFlagSet(p.Name(), pflag.ContinueOnError)
		p.out.Bind(p.fs)
		p.fs.StringVar(&p.colID, "col_id", "", "header name for the row ID column (omitted when empty)")
		p.fs.StringArrayVarP(&p.languages, "languages", "g", nil, "language IDs (and column order) to write")
	}
	return p.fs
}

func (p *ToCsv) Init(sess *session.Session) error {
	p.sess = sess
	if err := p.out.Validate(); err != nil {
		return err
	}
	if len(p.languages) == 0 {
		return errors.Wrap(contract.ErrInvalidOption, "no --languages given")
	}
	sort.Strings(p.languages)
	p.router = p.out.Router(sess, ".csv")
	return nil
}

func (p *ToCsv) Accepts() []contract.Domain {
	return []contract.Domain{contract.DomainTranslation}
}

func (p *ToCsv) Write(rec contract.Record) error {
	d, ok := rec.(*contract.TranslationData)
	if !ok {
		return errors.Errorf("%s: unexpected record domain %s", p.Name(), rec.Domain())
	}
	if p.cw != nil {
		p.cw.Flush()
		if err := p.cw.Error(); err != nil {
			return err
		}
	}
	w, fresh, err := p.router.Current()
	if err != nil {
		return err
	}
	if fresh {
		p.cw = csv.NewWriter(w)
		header := p.languages
		if p.colID != "" {
			header = append([]string{p.colID}, header...)
		}
		if err := p.cw.Write(header); err != nil {
			return err
		}
	}
	row := make([]string, 0, len(p.languages)+1)
	if p.colID != "" {
		var id string
		if m := d.GetMeta(); m != nil {
			if v, ok := m["id"]; ok {
				id = pio.String(v)
			}
		}
		row = append(row, id)
	}
	for _, lang := range p.languages {
		row = append(row, d.Translations[lang])
	}
	if err := p.cw.Write(row); err != nil {
		return err
	}
	p.cw.Flush()
	return p.cw.Error()
}

func (p *ToCsv) Close() error {
	if p.cw != nil {
		p.cw.Flush()
		if err := p.cw.Error(); err != nil {
			_ = p.router.Close()
			return err
		}
	}
	if p.router == nil {
		return nil
	}
	return p.router.Close()
}
