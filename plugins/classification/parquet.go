package classification

import (
	"context"

	"github.com/pkg/errors"
	"github.com/spf13/pflag"
	"github.com/xitongsys/parquet-go-source/local"
	"github.com/xitongsys/parquet-go/reader"
	"github.com/xitongsys/parquet-go/writer"

	"llmdc/internal/fileio"
	"llmdc/pkg/contract"
	"llmdc/pkg/session"
	"llmdc/plugins/pio"
)

const parquetChunk = 1024

type parquetClassification struct {
	Text  string `parquet:"name=text, type=BYTE_ARRAY, convertedtype=UTF8"`
	Label string `parquet:"name=label, type=BYTE_ARRAY, convertedtype=UTF8"`
}

// FromParquet 读取 Parquet 列存的分类数据。
type FromParquet struct {
	in   pio.Input
	fs   *pflag.FlagSet
	sess *session.Session
}

func NewFromParquet() contract.Reader { return &FromParquet{} }

func (p *FromParquet) Name() string {
	return "from-parquet-" + contract.DomainSuffix(contract.DomainClassification)
}
func (p *FromParquet) Description() string {
	return "Reads classification data from Parquet database files."
}

func (p *FromParquet) Flags() *pflag.FlagSet {
	if p.fs == nil {
		p.fs = pflag.NewFlagSet(p.Name(), pflag.ContinueOnError)
		p.in.Bind(p.fs)
	}
	return p.fs
}

func (p *FromParquet) Init(sess *session.Session) error {
	p.sess = sess
	return p.in.Validate()
}

func (p *FromParquet) Generates() []contract.Domain {
	return []contract.Domain{contract.DomainClassification}
}

func (p *FromParquet) Read(ctx context.Context, yield func(contract.Record) error) error {
	files, err := fileio.Locate(p.in.Inputs, p.in.Lists, true)
	if err != nil {
		return err
	}
	for _, path := range files {
		if err := ctx.Err(); err != nil {
			return err
		}
		p.sess.CurrentInput = path
		p.sess.Logger.Info().Str("input", path).Msg("reading")
		if err := p.readFile(ctx, path, yield); err != nil {
			return err
		}
	}
	return nil
}

func (p *FromParquet) readFile(ctx context.Context, path string, yield func(contract.Record) error) error {
	fr, err := local.NewLocalFileReader(path)
	if err != nil {
		return errors.Wrapf(err, "open %s", path)
	}
	defer fr.Close()
	pr, err := reader.NewParquetReader(fr, new(parquetClassification), 1)
	if err != nil {
		return errors.Wrapf(err, "parquet %s", path)
	}
	defer pr.ReadStop()

	remaining := pr.GetNumRows()
	for remaining > 0 {
		if err := ctx.Err(); err != nil {
			return err
		}
		n := int64(parquetChunk)
		if remaining < n {
			n = remaining
		}
		rows := make([]parquetClassification, n)
		if err := pr.Read(&rows); err != nil {
			return errors.Wrapf(err, "read %s", path)
		}
		remaining -= n
		for _, row := range rows {
			rec := &contract.ClassificationData{Text: row.Text, Label: row.Label}
			pio.FileMeta(rec, path)
			if err := yield(rec); err != nil {
				return err
			}
		}
	}
	return nil
}

// ToParquet 整批写出 Parquet 的分类数据。
type ToParquet struct {
	out  pio.Output
	fs   *pflag.FlagSet
	sess *session.Session
}

func NewToParquet() contract.Writer { return &ToParquet{} }

func (p *ToParquet) Name() string {
	return "to-parquet-" + contract.DomainSuffix(contract.DomainClassification)
}
func (p *ToParquet) Description() string {
	return "Writes classification data to Parquet database files."
}

func (p *ToParquet) Flags() *pflag.FlagSet {
	if p.fs == nil {
		p.fs = pflag.NewFlagSet(p.Name(), pflag.ContinueOnError)
		p.out.Bind(p.fs)
	}
	return p.fs
}

func (p *ToParquet) Init(sess *session.Session) error {
	p.sess = sess
	return p.out.Validate()
}

func (p *ToParquet) Accepts() []contract.Domain {
	return []contract.Domain{contract.DomainClassification}
}

func (p *ToParquet) WriteBatch(recs []contract.Record) error {
	// Parquet 自带压缩，忽略 -c
	path := fileio.GenerateOutput(p.sess.CurrentInput, p.out.Target, ".parquet", session.CompressionNone)
	fw, err := local.NewLocalFileWriter(path)
	if err != nil {
		return errors.Wrapf(err, "create %s", path)
	}
	pw, err := writer.NewParquetWriter(fw, new(parquetClassification), 1)
	if err != nil {
		_ = fw.Close()
		return errors.Wrapf(err, "parquet %s", path)
	}
	p.sess.Logger.Info().Str("output", path).Msg("writing")
	for _, r := range recs {
		d, ok := r.(*contract.ClassificationData)
		if !ok {
			_ = fw.Close()
			return errors.Errorf("%s: unexpected record domain %s", p.Name(), r.Domain())
		}
		if err := pw.Write(parquetClassification{Text: d.Text, Label: d.Label}); err != nil {
			_ = fw.Close()
			return errors.Wrapf(err, "write %s", path)
		}
	}
	if err := pw.WriteStop(); err != nil {
		_ = fw.Close()
		return errors.Wrapf(err, "finish %s", path)
	}
	return fw.Close()
}

func (p *ToParquet) Close() error { return nil }
