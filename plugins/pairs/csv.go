package pairs

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

// FromCsv 读取 CSV/TSV 的指令对数据。列标识：表头模式用列名，
// --no_header 用 1 基索引。三个数据列至少要给一个。
type FromCsv struct {
	tab bool // TSV 变体

	in             pio.Input
	noHeader       bool
	colInstruction pio.Column
	colInput       pio.Column
	colOutput      pio.Column
	colID          pio.Column
	colMeta        []string

	fs   *pflag.FlagSet
	sess *session.Session
}

func NewFromCsv() contract.Reader { return &FromCsv{} }
func NewFromTsv() contract.Reader { return &FromCsv{tab: true} }

func (p *FromCsv) Name() string {
	if p.tab {
		return "from-tsv-" + contract.DomainSuffix(contract.DomainPairs)
	}
	return "from-csv-" + contract.DomainSuffix(contract.DomainPairs)
}

func (p *FromCsv) Description() string {
	if p.tab {
		return "Reads prompt/response pairs in TSV format."
	}
	return "Reads prompt/response pairs in CSV format."
}

func (p *FromCsv) Flags() *pflag.FlagSet {
	if p.fs == nil {
		p.fs = pflag.NewFlagSet(p.Name(), pflag.ContinueOnError)
		p.in.Bind(p.fs)
		p.fs.StringVar((*string)(&p.colInstruction), "col_instruction", "", "column with the instructions (name, or 1-based index if no header)")
		p.fs.StringVar((*string)(&p.colInput), "col_input", "", "column with the inputs")
		p.fs.StringVar((*string)(&p.colOutput), "col_output", "", "column with the outputs")
		p.fs.StringVar((*string)(&p.colID), "col_id", "", "column with the row IDs (stored under 'id' in the meta-data)")
		p.fs.StringArrayVar(&p.colMeta, "col_meta", nil, "columns to store in the meta-data")
		p.fs.BoolVarP(&p.noHeader, "no_header", "n", false, "the data files have no header row")
	}
	return p.fs
}

func (p *FromCsv) Init(sess *session.Session) error {
	p.sess = sess
	if err := p.in.Validate(); err != nil {
		return err
	}
	if !p.colInstruction.Set() && !p.colInput.Set() && !p.colOutput.Set() {
		return errors.Wrap(contract.ErrInvalidOption, "no data columns specified")
	}
	return nil
}

func (p *FromCsv) Generates() []contract.Domain { return []contract.Domain{contract.DomainPairs} }

func (p *FromCsv) Read(ctx context.Context, yield func(contract.Record) error) error {
	return p.in.ForEach(ctx, p.sess, func(path string, r io.Reader) error {
		cr := csv.NewReader(r)
		if p.tab {
			cr.Comma = '\t'
		}
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
		idxInstruction, err := p.colInstruction.Resolve(header, p.noHeader)
		if err != nil {
			return err
		}
		idxInput, err := p.colInput.Resolve(header, p.noHeader)
		if err != nil {
			return err
		}
		idxOutput, err := p.colOutput.Resolve(header, p.noHeader)
		if err != nil {
			return err
		}
		idxID, err := p.colID.Resolve(header, p.noHeader)
		if err != nil {
			return err
		}
		idxMeta := make([]int, len(p.colMeta))
		for i, c := range p.colMeta {
			if idxMeta[i], err = pio.Column(c).Resolve(header, p.noHeader); err != nil {
				return err
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
			rec := &contract.PairData{
				Instruction: pio.Cell(row, idxInstruction),
				Input:       pio.Cell(row, idxInput),
				Output:      pio.Cell(row, idxOutput),
			}
			pio.FileMeta(rec, path)
			if idxID >= 0 {
				rec.GetMeta()["id"] = pio.Cell(row, idxID)
			}
			for i, c := range p.colMeta {
				rec.GetMeta()[c] = pio.Cell(row, idxMeta[i])
			}
			if err := yield(rec); err != nil {
				return err
			}
		}
	})
}

// ToCsv 流式写出 CSV/TSV；目标为目录时按输入切换文件并重写表头。
type ToCsv struct {
	tab bool

	out            pio.Output
	noHeader       bool
	colInstruction string
	colInput       string
	colOutput      string
	colID          string

	fs     *pflag.FlagSet
	sess   *session.Session
	router *fileio.Router
	cw     *csv.Writer
}

func NewToCsv() contract.Writer { return &ToCsv{} }
func NewToTsv() contract.Writer { return &ToCsv{tab: true} }

func (p *ToCsv) Name() string {
	if p.tab {
		return "to-tsv-" + contract.DomainSuffix(contract.DomainPairs)
	}
	return "to-csv-" + contract.DomainSuffix(contract.DomainPairs)
}

func (p *ToCsv) Description() string {
	if p.tab {
		return "Writes prompt/response pairs in TSV format."
	}
	return "Writes prompt/response pairs in CSV format."
}

func (p *ToCsv) Flags() *pflag.FlagSet {
	if p.fs == nil {
		p.fs = pflag.NewFlagSet(p.Name(), pflag.ContinueOnError)
		p.out.Bind(p.fs)
		p.fs.StringVar(&p.colInstruction, "col_instruction", "instruction", "header name for the instruction column")
		p.fs.StringVar(&p.colInput, "col_input", "input", "header name for the input column")
		p.fs.StringVar(&p.colOutput, "col_output", "output", "header name for the output column")
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
	p.router = p.out.Router(sess, p.ext())
	return nil
}

func (p *ToCsv) ext() string {
	if p.tab {
		return ".tsv"
	}
	return ".csv"
}

func (p *ToCsv) Accepts() []contract.Domain { return []contract.Domain{contract.DomainPairs} }

func (p *ToCsv) Write(rec contract.Record) error {
	d, ok := rec.(*contract.PairData)
	if !ok {
		return errors.Errorf("%s: unexpected record domain %s", p.Name(), rec.Domain())
	}
	// 路由切换前冲刷缓冲，避免丢尾部行
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
		if p.tab {
			p.cw.Comma = '\t'
		}
		if !p.noHeader {
			header := []string{p.colInstruction, p.colInput, p.colOutput}
			if p.colID != "" {
				header = append([]string{p.colID}, header...)
			}
			if err := p.cw.Write(header); err != nil {
				return err
			}
		}
	}
	row := []string{d.Instruction, d.Input, d.Output}
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
