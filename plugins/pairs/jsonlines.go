package pairs

import (
	"bufio"
	"context"
	"encoding/json"
	"io"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/pflag"

	"llmdc/internal/fileio"
	"llmdc/pkg/contract"
	"llmdc/pkg/session"
	"llmdc/plugins/pio"
)

const maxLineSize = 16 * 1024 * 1024

// FromJsonlines 读取 JSON-lines 的指令对数据，属性名可配置。
type FromJsonlines struct {
	in             pio.Input
	attInstruction string
	attInput       string
	attOutput      string
	attID          string
	attMeta        []string

	fs   *pflag.FlagSet
	sess *session.Session
}

func NewFromJsonlines() contract.Reader { return &FromJsonlines{} }

func (p *FromJsonlines) Name() string {
	return "from-jsonlines-" + contract.DomainSuffix(contract.DomainPairs)
}
func (p *FromJsonlines) Description() string {
	return "Reads prompt/response pairs in JsonLines-like JSON format."
}

func (p *FromJsonlines) Flags() *pflag.FlagSet {
	if p.fs == nil {
		p.fs = pflag.NewFlagSet(p.Name(), pflag.ContinueOnError)
		p.in.Bind(p.fs)
		p.fs.StringVar(&p.attInstruction, "att_instruction", "instruction", "attribute with the instructions")
		p.fs.StringVar(&p.attInput, "att_input", "input", "attribute with the inputs")
		p.fs.StringVar(&p.attOutput, "att_output", "output", "attribute with the outputs")
		p.fs.StringVar(&p.attID, "att_id", "", "attribute with the row IDs (stored under 'id' in the meta-data)")
		p.fs.StringArrayVar(&p.attMeta, "att_meta", nil, "attributes to store in the meta-data")
	}
	return p.fs
}

func (p *FromJsonlines) Init(sess *session.Session) error {
	p.sess = sess
	return p.in.Validate()
}

func (p *FromJsonlines) Generates() []contract.Domain {
	return []contract.Domain{contract.DomainPairs}
}

func (p *FromJsonlines) Read(ctx context.Context, yield func(contract.Record) error) error {
	return p.in.ForEach(ctx, p.sess, func(path string, r io.Reader) error {
		sc := bufio.NewScanner(r)
		sc.Buffer(make([]byte, 0, 64*1024), maxLineSize)
		line := 0
		for sc.Scan() {
			if err := ctx.Err(); err != nil {
				return err
			}
			line++
			text := strings.TrimSpace(sc.Text())
			if text == "" {
				continue
			}
			var obj map[string]any
			if err := json.Unmarshal([]byte(text), &obj); err != nil {
				return errors.Wrapf(err, "parse %s line %d", path, line)
			}
			rec := &contract.PairData{
				Instruction: pio.String(obj[p.attInstruction]),
				Input:       pio.String(obj[p.attInput]),
				Output:      pio.String(obj[p.attOutput]),
			}
			pio.FileMeta(rec, path)
			if p.attID != "" {
				if v, ok := obj[p.attID]; ok {
					rec.GetMeta()["id"] = v
				}
			}
			for _, att := range p.attMeta {
				if v, ok := obj[att]; ok {
					rec.GetMeta()[att] = v
				}
			}
			if err := yield(rec); err != nil {
				return err
			}
		}
		return errors.Wrapf(sc.Err(), "read %s", path)
	})
}

// ToJsonlines 流式写出 JSON-lines。
type ToJsonlines struct {
	out            pio.Output
	attInstruction string
	attInput       string
	attOutput      string
	attID          string

	fs     *pflag.FlagSet
	sess   *session.Session
	router *fileio.Router
}

func NewToJsonlines() contract.Writer { return &ToJsonlines{} }

func (p *ToJsonlines) Name() string {
	return "to-jsonlines-" + contract.DomainSuffix(contract.DomainPairs)
}
func (p *ToJsonlines) Description() string {
	return "Writes prompt/response pairs in JsonLines-like JSON format."
}

func (p *ToJsonlines) Flags() *pflag.FlagSet {
	if p.fs == nil {
		p.fs = pflag.NewFlagSet(p.Name(), pflag.ContinueOnError)
		p.out.Bind(p.fs)
		p.fs.StringVar(&p.attInstruction, "att_instruction", "instruction", "attribute for the instructions")
		p.fs.StringVar(&p.attInput, "att_input", "input", "attribute for the inputs")
		p.fs.StringVar(&p.attOutput, "att_output", "output", "attribute for the outputs")
		p.fs.StringVar(&p.attID, "att_id", "", "attribute for the row IDs (omitted when empty)")
	}
	return p.fs
}

func (p *ToJsonlines) Init(sess *session.Session) error {
	p.sess = sess
	if err := p.out.Validate(); err != nil {
		return err
	}
	p.router = p.out.Router(sess, ".jsonl")
	return nil
}

func (p *ToJsonlines) Accepts() []contract.Domain { return []contract.Domain{contract.DomainPairs} }

func (p *ToJsonlines) Write(rec contract.Record) error {
	d, ok := rec.(*contract.PairData)
	if !ok {
		return errors.Errorf("%s: unexpected record domain %s", p.Name(), rec.Domain())
	}
	w, _, err := p.router.Current()
	if err != nil {
		return err
	}
	obj := map[string]any{
		p.attInstruction: d.Instruction,
		p.attInput:       d.Input,
		p.attOutput:      d.Output,
	}
	if p.attID != "" {
		if m := d.GetMeta(); m != nil {
			if v, ok := m["id"]; ok {
				obj[p.attID] = v
			}
		}
	}
	buf, err := json.Marshal(obj)
	if err != nil {
		return err
	}
	_, err = w.Write(append(buf, '\n'))
	return err
}

func (p *ToJsonlines) Close() error {
	if p.router == nil {
		return nil
	}
	return p.router.Close()
}
