// Package pairs 实现 指令/输入/输出 三元组领域的读取器与写出器。
package pairs

import (
	"context"
	"encoding/json"
	"io"

	"github.com/pkg/errors"
	"github.com/spf13/pflag"

	"llmdc/internal/fileio"
	"llmdc/pkg/contract"
	"llmdc/pkg/session"
	"llmdc/plugins/pio"
)

// alpacaRow: Alpaca JSON 数组元素。
type alpacaRow struct {
	Instruction string `json:"instruction"`
	Input       string `json:"input"`
	Output      string `json:"output"`
}

// FromAlpaca 读取 Alpaca 格式的 JSON 数组文件。
type FromAlpaca struct {
	in   pio.Input
	fs   *pflag.FlagSet
	sess *session.Session
}

func NewFromAlpaca() contract.Reader { return &FromAlpaca{} }

func (p *FromAlpaca) Name() string { return "from-alpaca" }
func (p *FromAlpaca) Description() string {
	return "Reads prompt/response pairs in Alpaca-like JSON format."
}

func (p *FromAlpaca) Flags() *pflag.FlagSet {
	if p.fs == nil {
		p.fs = pflag.NewFlagSet(p.Name(), pflag.ContinueOnError)
		p.in.Bind(p.fs)
	}
	return p.fs
}

func (p *FromAlpaca) Init(sess *session.Session) error {
	p.sess = sess
	return p.in.Validate()
}

func (p *FromAlpaca) Generates() []contract.Domain { return []contract.Domain{contract.DomainPairs} }

func (p *FromAlpaca) Read(ctx context.Context, yield func(contract.Record) error) error {
	return p.in.ForEach(ctx, p.sess, func(path string, r io.Reader) error {
		dec := json.NewDecoder(r)
		// 期待顶层数组
		tok, err := dec.Token()
		if err != nil {
			return errors.Wrapf(err, "parse %s", path)
		}
		if d, ok := tok.(json.Delim); !ok || d != '[' {
			return errors.Errorf("%s: expected JSON array, got %v", path, tok)
		}
		for dec.More() {
			if err := ctx.Err(); err != nil {
				return err
			}
			var row alpacaRow
			if err := dec.Decode(&row); err != nil {
				return errors.Wrapf(err, "parse %s", path)
			}
			rec := &contract.PairData{Instruction: row.Instruction, Input: row.Input, Output: row.Output}
			pio.FileMeta(rec, path)
			if err := yield(rec); err != nil {
				return err
			}
		}
		return nil
	})
}

// ToAlpaca 写出单个 Alpaca JSON 数组（整批物化）。
type ToAlpaca struct {
	out    pio.Output
	pretty bool
	fs     *pflag.FlagSet
	sess   *session.Session
}

func NewToAlpaca() contract.Writer { return &ToAlpaca{} }

func (p *ToAlpaca) Name() string { return "to-alpaca" }
func (p *ToAlpaca) Description() string {
	return "Writes prompt/response pairs in Alpaca-like JSON format."
}

func (p *ToAlpaca) Flags() *pflag.FlagSet {
	if p.fs == nil {
		p.fs = pflag.NewFlagSet(p.Name(), pflag.ContinueOnError)
		p.out.Bind(p.fs)
		p.fs.BoolVarP(&p.pretty, "pretty_print", "p", false, "output the JSON with indentation")
	}
	return p.fs
}

func (p *ToAlpaca) Init(sess *session.Session) error {
	p.sess = sess
	return p.out.Validate()
}

func (p *ToAlpaca) Accepts() []contract.Domain { return []contract.Domain{contract.DomainPairs} }

func (p *ToAlpaca) WriteBatch(recs []contract.Record) error {
	rows := make([]alpacaRow, 0, len(recs))
	for _, r := range recs {
		d, ok := r.(*contract.PairData)
		if !ok {
			return errors.Errorf("to-alpaca: unexpected record domain %s", r.Domain())
		}
		rows = append(rows, alpacaRow{Instruction: d.Instruction, Input: d.Input, Output: d.Output})
	}
	path := fileio.GenerateOutput(p.sess.CurrentInput, p.out.Target, ".json", p.sess.Compression)
	w, err := fileio.OpenOutput(path)
	if err != nil {
		return err
	}
	p.sess.Logger.Info().Str("output", path).Msg("writing")
	enc := json.NewEncoder(w)
	if p.pretty {
		enc.SetIndent("", "  ")
	}
	if err := enc.Encode(rows); err != nil {
		_ = w.Close()
		return errors.Wrapf(err, "write %s", path)
	}
	return w.Close()
}

func (p *ToAlpaca) Close() error { return nil }
