package pretrain

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

// FromCsv 读取 CSV 的预训练文本（单内容列）。
type FromCsv struct {
	in         pio.Input
	noHeader   bool
	colContent pio.Column
	colID      pio.Column

	fs   *pflag.FlagSet
	sess *session.Session
}

func NewFromCsv() contract.Reader { return &FromCsv{} }

func (p *FromCsv) Name() string {
	return "from-csv-" + contract.DomainSuffix(contract.DomainPretrain)
}
func (p *FromCsv) Description() string { return "Reads pretrain data in CSV format." }

func (p *FromCsv) Flags() *pflag.FlagSet {
	if p.fs == nil {
		p.fs = pflag.NewFlagSet(p.Name(), pflag.ContinueOnError)
		p.in.Bind(p.fs)
		p.fs.StringVar((*string)(&p.colContent), "col_content", "", "column with the text content (name, or 1-based index if no header)")
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
	if !p.colContent.Set() {
		return errors.Wrap(contract.ErrInvalidOption, "no --col_content specified")
	}
	return nil
}

func (p *FromCsv) Generates() []contract.Domain {
	return []contract.Domain{contract.DomainPretrain}
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
		idxContent, err := p.colContent.Resolve(header, p.noHeader)
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
			rec := &contract.PretrainData{Content: pio.Cell(row, idxContent)}
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

// ToCsv 流式写出 CSV 的预训练文本。
type ToCsv struct {
	out        pio.Output
	noHeader   bool
	colContent string
	colID      string

	fs     *pflag.FlagSet
	sess   *session.Session
	router *fileio.Router
	cw     *csv.Writer
}

func NewToCsv() contract.Writer { return &ToCsv{} }

func (p *ToCsv) Name() string {
	return "to-csv-" + contract.DomainSuffix(contract.DomainPretrain)
}
func (p *ToCsv) Description() string { return "Writes pretrain data in CSV format." }

func (p *ToCsv) Flags() *pflag.FlagSet {
	if p.fs == nil {
		p.fs = pflag.NewFlagSet(p.Name(), pflag.ContinueOnError)
		p.out.Bind(p.fs)
		p.fs.StringVar(&p.colContent, "col_content", "content", "header name for the content column")
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

func (p *ToCsv) Accepts() []contract.Domain { return []contract.Domain{contract.DomainPretrain} }

func (p *ToCsv) Write(rec contract.Record) error {
	d, ok := rec.(*contract.PretrainData)
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
			header := []string{p.colContent}
			if p.colID != "" {
				header = append([]string{p.colID}, header...)
			}
			if err := p.cw.Write(header); err != nil {
				return err
			}
		}
	}
	row := []string{d.Content}
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
