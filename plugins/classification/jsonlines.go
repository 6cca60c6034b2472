package classification

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

// FromJsonlines 读取 JSON-lines 分类数据。
type FromJsonlines struct {
	in       pio.Input
	attText  string
	attLabel string
	attID    string

	fs   *pflag.FlagSet
	sess *session.Session
}

func NewFromJsonlines() contract.Reader { return &FromJsonlines{} }

func (p *FromJsonlines) Name() string {
	return "from-jsonlines-" + contract.DomainSuffix(contract.DomainClassification)
}
func (p *FromJsonlines) Description() string {
	return "Reads classification data in JsonLines-like JSON format."
}

func (p *FromJsonlines) Flags() *pflag.FlagSet {
	if p.fs == nil {
		p.fs = pflag.NewFlagSet(p.Name(), pflag.ContinueOnError)
		p.in.Bind(p.fs)
		p.fs.StringVar(&p.attText, "att_text", "text", "attribute with the text")
		p.fs.StringVar(&p.attLabel, "att_label", "label", "attribute with the label")
		p.fs.StringVar(&p.attID, "att_id", "", "attribute with the row IDs (stored under 'id' in the meta-data)")
	}
	return p.fs
}

func (p *FromJsonlines) Init(sess *session.Session) error {
	p.sess = sess
	return p.in.Validate()
}

func (p *FromJsonlines) Generates() []contract.Domain {
	return []contract.Domain{contract.DomainClassification}
}

func (p *FromJsonlines) Read(ctx context.Context, yield func(contract.Record) error) error {
	return p.in.ForEach(ctx, p.sess, func(path string, r io.Reader) error {
		sc := bufio.NewScanner(r)
		sc.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
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
			rec := &contract.ClassificationData{
				Text:  pio.String(obj[p.attText]),
				Label: pio.String(obj[p.attLabel]),
			}
			pio.FileMeta(rec, path)
			if p.attID != "" {
				if v, ok := obj[p.attID]; ok {
					rec.GetMeta()["id"] = v
				}
			}
			if err := yield(rec); err != nil {
				return err
			}
		}
		return errors.Wrapf(sc.Err(), "read %s", path)
	})
}

// ToJsonlines 流式写出 JSON-lines 分类数据。
type ToJsonlines struct {
	out      pio.Output
	attText  string
	attLabel string
	attID    string

	fs     *pflag.FlagSet
	sess   *session.Session
	router *fileio.Router
}

func NewToJsonlines() contract.Writer { return &ToJsonlines{} }

func (p *ToJsonlines) Name() string {
	return "to-jsonlines-" + contract.DomainSuffix(contract.DomainClassification)
}
func (p *ToJsonlines) Description() string {
	return "Writes classification data in JsonLines-like JSON format."
}

func (p *ToJsonlines) Flags() *pflag.FlagSet {
	if p.fs == nil {
		p.fs = pflag.NewFlagSet(p.Name(), pflag.ContinueOnError)
		p.out.Bind(p.fs)
		p.fs.StringVar(&p.attText, "att_text", "text", "attribute for the text")
		p.fs.StringVar(&p.attLabel, "att_label", "label", "attribute for the label")
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

func (p *ToJsonlines) Accepts() []contract.Domain {
	return []contract.Domain{contract.DomainClassification}
}

func (p *ToJsonlines) Write(rec contract.Record) error {
	d, ok := rec.(*contract.ClassificationData)
	if !ok {
		return errors.Errorf("%s: unexpected record domain %s", p.Name(), rec.Domain())
	}
	w, _, err := p.router.Current()
	if err != nil {
		return err
	}
	obj := map[string]any{p.attText: d.Text, p.attLabel: d.Label}
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
