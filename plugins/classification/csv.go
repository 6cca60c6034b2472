// Package classification 实现 文本+标签 分类领域的读取器与写出器。
package classification

import (
	"context"
	"encoding/csv"
	"io"

	"github.com/pkg/errors"
	"github.com/spf13/pflag"

	"llmdc/internal/fileio"
	"llmdc/pkg/contract"
	"llmdc/pkg/session"
	"llmdc/plugins/pio"
)

// FromCsv 读取 CSV 分类数据。
type FromCsv struct {
	in       pio.Input
	noHeader bool
	colText  pio.Column
	colLabel pio.Column
	colID    pio.Column

	fs   *pflag.FlagSet
	sess *session.Session
}

func NewFromCsv() contract.Reader { return &FromCsv{} }

func (p *FromCsv) Name() string {
	return "from-csv-" + contract.DomainSuffix(contract.DomainClassification)
}
func (p *FromCsv) Description() string { return "Reads classification data in CSV format." }

func (p *FromCsv) Flags() *pflag.FlagSet {
	if p.fs == nil {
		p.fs = pflag.NewFlagSet(p.Name(), pflag.ContinueOnError)
		p.in.Bind(p.fs)
		p.fs.StringVar((*string)(&p.colText), "col_text", "", "column with the text (name, or 1-based index if no header)")
		p.fs.StringVar((*string)(&p.colLabel), "col_label", "", "column with the label")
		p.fs.StringVar((*string)(&p.colID), "col_id", "", "column with the row IDs (stored under 'id' in the meta-data)")
		p.fs.BoolVarP(&p.noHeader, "no_header", "n", false, "the data files have no header row")
	}
	return p.fs
}

func (p *FromCsv) Init(sess *session.Session) error {
	p.sess = sess
	if err := p.in.Validate(); err != nil {
		return err
	}
	if !p.colText.Set() {
		return errors.Wrap(contract.ErrInvalidOption, "no --col_text specified")
	}
	return nil
}

func (p *FromCsv) Generates() []contract.Domain {
	return []contract.Domain{contract.DomainClassification}
}

func (p *FromCsv) Read(ctx context.Context, yield func(contract.Record) error) error {
	return p.in.ForEach(ctx, p.sess, func(path string, r io.Reader) error {
		cr := csv.NewReader(r)
		cr.FieldsPerRecord = -1

		var header []string
		if !p.noHeader {
			row, err := cr.Read()
			if err == io.EOF {
				return nil
			}
			if err != nil {
				return errors.Wrapf(err, "read header %s", path)
			}
			header = row
		}
		idxText, err := p.colText.Resolve(header, p.noHeader)
		if err != nil {
			return err
		}
		idxLabel, err := p.colLabel.Resolve(header, p.noHeader)
		if err != nil {
			return err
		}
		idxID, err := p.colID.Resolve(header, p.noHeader)
		if err != nil {
			return err
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
			rec := &contract.ClassificationData{
				Text:  pio.Cell(row, idxText),
				Label: pio.Cell(row, idxLabel),
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

// ToCsv 流式写出 CSV 分类数据。
type ToCsv struct {
	out      pio.Output
	noHeader bool
	colText  string
	colLabel string
	colID    string

	fs     *pflag.FlagSet
	sess   *session.Session
	router *fileio.Router
	cw     *csv.Writer
}

func NewToCsv() contract.Writer { return &ToCsv{} }

func (p *ToCsv) Name() string {
	return "to-csv-" + contract.DomainSuffix(contract.DomainClassification)
}
func (p *ToCsv) Description() string { return "Writes classification data in CSV format." }

func (p *ToCsv) Flags() *pflag.FlagSet {
	if p.fs == nil {
		p.fs = pflag.NewFlagSet(p.Name(), pflag.ContinueOnError)
		p.out.Bind(p.fs)
		p.fs.StringVar(&p.colText, "col_text", "text", "header name for the text column")
		p.fs.StringVar(&p.colLabel, "col_label", "label", "header name for the label column")
		p.fs.StringVar(&p.colID, "col_id", "", "header name for the row ID column (omitted when empty)")
		p.fs.BoolVarP(&p.noHeader, "no_header", "n", false, "suppress the header row")
	}
	return p.fs
}

func (p *ToCsv) Init(sess *session.Session) error {
	p.sess = sess
	if err := p.out.Validate(); err != nil {
		return err
	}
	p.router = p.out.Router(sess, ".csv")
	return nil
}

func (p *ToCsv) Accepts() []contract.Domain {
	return []contract.Domain{contract.DomainClassification}
}

func (p *ToCsv) Write(rec contract.Record) error {
	d, ok := rec.(*contract.ClassificationData)
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
		if !p.noHeader {
			header := []string{p.colText, p.colLabel}
			if p.colID != "" {
				header = append([]string{p.colID}, header...)
			}
			if err := p.cw.Write(header); err != nil {
				return err
			}
		}
	}
	row := []string{d.Text, d.Label}
	if p.colID != "" {
		var id string
		if m := d.GetMeta(); m != nil {
			if v, ok := m["id"]; ok {
				id = pio.String(v)
			}
		}
		row = append([]string{id}, row...)
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
