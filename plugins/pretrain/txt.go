// Package pretrain 实现预训练纯文本领域的读取器与写出器。
package pretrain

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/pflag"

	"llmdc/internal/fileio"
	"llmdc/internal/textutil"
	"llmdc/pkg/contract"
	"llmdc/pkg/session"
	"llmdc/plugins/pio"
)

// FromTxt 读取纯文本文件：默认整文件一条记录，--split_lines 逐行成记录。
// 行级整理顺序：块删除 → 断句重组 → 模式删除 → 去空行。
type FromTxt struct {
	in                pio.Input
	splitLines        bool
	skipEmpty         bool
	sentences         bool
	endChars          string
	quoteChars        string
	maxSentences      int
	exprRemove        []string
	blockRemovalStart []string
	blockRemovalEnd   []string

	patterns []*regexp.Regexp
	fs       *pflag.FlagSet
	sess     *session.Session
}

func NewFromTxt() contract.Reader { return &FromTxt{} }

func (p *FromTxt) Name() string {
	return "from-txt-" + contract.DomainSuffix(contract.DomainPretrain)
}

func (p *FromTxt) Description() string {
	return "Reads pretrain data from plain text files, with each file representing a data record. " +
		"Text files can be split into lines and forwarded as separate records as well."
}

func (p *FromTxt) Flags() *pflag.FlagSet {
	if p.fs == nil {
		p.fs = pflag.NewFlagSet(p.Name(), pflag.ContinueOnError)
		p.in.Bind(p.fs)
		p.fs.BoolVarP(&p.splitLines, "split_lines", "s", false, "split on new lines and forward them as separate records; line index stored under 'line' in the meta-data")
		p.fs.StringArrayVarP(&p.exprRemove, "expr_remove", "r", nil, "regular expressions for removing sub-strings from the text (applied before skipping empty lines)")
		p.fs.BoolVarP(&p.skipEmpty, "skip_empty", "e", false, "removes empty lines from the data")
		p.fs.BoolVar(&p.sentences, "sentences", false, "keep sentences together, e.g. when reading preformatted text")
		p.fs.StringVar(&p.endChars, "end_chars", textutil.DefaultEndChars, "characters signifying the end of a sentence")
		p.fs.StringVarP(&p.quoteChars, "quote_chars", "q", textutil.DefaultQuoteChars, "characters that represent quotes")
		p.fs.StringArrayVar(&p.blockRemovalStart, "block_removal_start", nil, "starting strings for blocks to remove")
		p.fs.StringArrayVar(&p.blockRemovalEnd, "block_removal_end", nil, "ending strings for blocks to remove")
		p.fs.IntVarP(&p.maxSentences, "max_sentences", "m", 1, "maximum number of sentences per line")
	}
	return p.fs
}

func (p *FromTxt) Init(sess *session.Session) error {
	p.sess = sess
	if err := p.in.Validate(); err != nil {
		return err
	}
	if (len(p.blockRemovalStart) == 0) != (len(p.blockRemovalEnd) == 0) {
		return errors.Wrap(contract.ErrInvalidOption, "block removal starts and ends must be given together")
	}
	if len(p.blockRemovalStart) != len(p.blockRemovalEnd) {
		return errors.Wrapf(contract.ErrInvalidOption, "block removal starts/ends differ: %d != %d",
			len(p.blockRemovalStart), len(p.blockRemovalEnd))
	}
	if p.maxSentences < 1 {
		return errors.Wrapf(contract.ErrInvalidOption, "at least one sentence per line required, got %d", p.maxSentences)
	}
	patterns, err := textutil.CompilePatterns(p.exprRemove)
	if err != nil {
		return errors.Wrap(contract.ErrInvalidOption, err.Error())
	}
	p.patterns = patterns
	return nil
}

func (p *FromTxt) Generates() []contract.Domain {
	return []contract.Domain{contract.DomainPretrain}
}

func (p *FromTxt) Read(ctx context.Context, yield func(contract.Record) error) error {
	return p.in.ForEach(ctx, p.sess, func(path string, r io.Reader) error {
		var lines []string
		sc := bufio.NewScanner(r)
		sc.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
		for sc.Scan() {
			lines = append(lines, sc.Text())
		}
		if err := sc.Err(); err != nil {
			return errors.Wrapf(err, "read %s", path)
		}

		if len(p.blockRemovalStart) > 0 {
			pre := len(lines)
			lines = textutil.RemoveBlocks(lines, p.blockRemovalStart, p.blockRemovalEnd)
			p.sess.Logger.Info().Int("before", pre).Int("after", len(lines)).Msg("block removal")
		}
		if p.sentences {
			pre := len(lines)
			lines = textutil.AssemblePreformatted(lines, p.endChars, p.quoteChars)
			lines = textutil.SplitIntoSentences(lines, p.endChars)
			lines = textutil.CombineSentences(lines, p.maxSentences)
			p.sess.Logger.Info().Int("before", pre).Int("after", len(lines)).Msg("assembling sentences")
		}
		if len(p.patterns) > 0 {
			var affected int
			lines, affected = textutil.RemovePatterns(lines, p.patterns)
			p.sess.Logger.Info().Int("affected", affected).Msg("remove patterns")
		}
		if p.skipEmpty {
			lines = textutil.RemoveEmpty(lines)
		}

		if p.splitLines {
			for i, line := range lines {
				if err := ctx.Err(); err != nil {
					return err
				}
				rec := &contract.PretrainData{Content: strings.TrimSpace(line)}
				pio.FileMeta(rec, path)
				rec.GetMeta()["line"] = i
				if err := yield(rec); err != nil {
					return err
				}
			}
			return nil
		}
		rec := &contract.PretrainData{Content: strings.Join(lines, "\n")}
		pio.FileMeta(rec, path)
		return yield(rec)
	})
}

// ToTxt 写出纯文本。目标为目录：每条记录一个文件，文件名取 id 元数据
// 或零填充的运行计数；目标为文件：全部内容串接（流式，不支持压缩）。
type ToTxt struct {
	out       pio.Output
	numDigits int

	concatenate bool
	first       bool
	single      io.WriteCloser
	fs          *pflag.FlagSet
	sess        *session.Session
}

func NewToTxt() contract.Writer { return &ToTxt{} }

func (p *ToTxt) Name() string {
	return "to-txt-" + contract.DomainSuffix(contract.DomainPretrain)
}

func (p *ToTxt) Description() string {
	return "Writes pretrain data to plain text files. With a directory as output, uses the session counter " +
		"or the 'id' meta-data value as the filename; with a file, all content gets concatenated into it."
}

func (p *ToTxt) Flags() *pflag.FlagSet {
	if p.fs == nil {
		p.fs = pflag.NewFlagSet(p.Name(), pflag.ContinueOnError)
		p.out.Bind(p.fs)
		p.fs.IntVarP(&p.numDigits, "num_digits", "d", 6, "number of digits for counter-derived filenames")
	}
	return p.fs
}

func (p *ToTxt) Init(sess *session.Session) error {
	p.sess = sess
	if err := p.out.Validate(); err != nil {
		return err
	}
	info, err := os.Stat(p.out.Target)
	p.concatenate = err != nil || !info.IsDir()
	if p.concatenate && fileio.IsCompressed(p.out.Target) {
		return errors.Wrap(contract.ErrInvalidOption, "cannot use compression when concatenating")
	}
	p.first = true
	return nil
}

func (p *ToTxt) Accepts() []contract.Domain { return []contract.Domain{contract.DomainPretrain} }

func (p *ToTxt) Write(rec contract.Record) error {
	d, ok := rec.(*contract.PretrainData)
	if !ok {
		return errors.Errorf("%s: unexpected record domain %s", p.Name(), rec.Domain())
	}
	if p.concatenate {
		if p.single == nil {
			w, err := fileio.OpenOutput(p.out.Target)
			if err != nil {
				return err
			}
			p.sess.Logger.Info().Str("output", p.out.Target).Msg("writing")
			p.single = w
		}
		_, err := io.WriteString(p.single, d.Content+"\n")
		return err
	}

	name := ""
	if m := d.GetMeta(); m != nil {
		if v, ok := m["id"]; ok {
			name = pio.String(v)
		}
	}
	if name == "" {
		name = fmt.Sprintf("%0*d", p.numDigits, p.sess.Count)
	}
	path := filepath.Join(p.out.Target, name+".txt")
	if p.sess.Compression != session.CompressionNone {
		path += "." + p.sess.Compression
	}
	if p.first {
		p.sess.Logger.Info().Str("output", p.out.Target).Msg("writing")
		p.first = false
	}
	w, err := fileio.OpenOutput(path)
	if err != nil {
		return err
	}
	if _, err := io.WriteString(w, d.Content); err != nil {
		_ = w.Close()
		return err
	}
	return w.Close()
}

func (p *ToTxt) Close() error {
	if p.single == nil {
		return nil
	}
	err := p.single.Close()
	p.single = nil
	return err
}
