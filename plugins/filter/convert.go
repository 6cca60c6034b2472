package filter

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/pflag"

	"llmdc/internal/textutil"
	"llmdc/pkg/contract"
	"llmdc/pkg/session"
)

// PairsToPretrain 把指令对记录折叠为预训练文本：
// 选定字段按给定顺序以空格拼接。
type PairsToPretrain struct {
	dataFields []string

	fs   *pflag.FlagSet
	sess *session.Session
}

func NewPairsToPretrain() contract.Filter { return &PairsToPretrain{} }

func (p *PairsToPretrain) Name() string { return "pairs-to-pretrain" }
func (p *PairsToPretrain) Description() string {
	return "Converts pair records to pretrain ones by concatenating the selected fields."
}

func (p *PairsToPretrain) Flags() *pflag.FlagSet {
	if p.fs == nil {
		p.fs = pflag.NewFlagSet(p.Name(), pflag.ContinueOnError)
		p.fs.StringArrayVarP(&p.dataFields, "data_fields", "f", nil, "pair fields to use for the pretrain content (instruction|input|output)")
	}
	return p.fs
}

func (p *PairsToPretrain) Init(sess *session.Session) error {
	p.sess = sess
	if len(p.dataFields) == 0 {
		return errors.Wrap(contract.ErrInvalidOption, "no --data_fields given")
	}
	for _, f := range p.dataFields {
		switch f {
		case contract.LocationInstruction, contract.LocationInput, contract.LocationOutput:
		default:
			return errors.Wrapf(contract.ErrInvalidOption, "invalid data field %q", f)
		}
	}
	return nil
}

func (p *PairsToPretrain) Accepts() []contract.Domain {
	return []contract.Domain{contract.DomainPairs}
}
func (p *PairsToPretrain) Generates() []contract.Domain {
	return []contract.Domain{contract.DomainPretrain}
}

func (p *PairsToPretrain) Process(rec contract.Record) ([]contract.Record, error) {
	d, ok := rec.(*contract.PairData)
	if !ok {
		return nil, errors.Errorf("%s: unexpected record domain %s", p.Name(), rec.Domain())
	}
	parts := make([]string, 0, len(p.dataFields))
	for _, f := range p.dataFields {
		switch f {
		case contract.LocationInstruction:
			parts = append(parts, d.Instruction)
		case contract.LocationInput:
			parts = append(parts, d.Input)
		case contract.LocationOutput:
			parts = append(parts, d.Output)
		}
	}
	out := &contract.PretrainData{Content: strings.Join(parts, " ")}
	out.SetMeta(d.GetMeta().Clone())
	return []contract.Record{out}, nil
}

func (p *PairsToPretrain) Finalize() error { return nil }

// TranslationToPairs 从翻译映射中取语言构造指令对。
// 缺指令或输出语言的记录被抑制。
type TranslationToPairs struct {
	langInstruction string
	langInput       string
	langOutput      string

	discarded int64
	fs        *pflag.FlagSet
	sess      *session.Session
}

func NewTranslationToPairs() contract.Filter { return &TranslationToPairs{} }

func (p *TranslationToPairs) Name() string { return "translation-to-pairs" }
func (p *TranslationToPairs) Description() string {
	return "Converts translation records to pair ones, using the specified languages for instruction, input and output."
}

func (p *TranslationToPairs) Flags() *pflag.FlagSet {
	if p.fs == nil {
		p.fs = pflag.NewFlagSet(p.Name(), pflag.ContinueOnError)
		p.fs.StringVar(&p.langInstruction, "lang_instruction", "", "language ID to use for the instruction")
		p.fs.StringVar(&p.langInput, "lang_input", "", "language ID to use for the input (optional)")
		p.fs.StringVar(&p.langOutput, "lang_output", "", "language ID to use for the output")
	}
	return p.fs
}

func (p *TranslationToPairs) Init(sess *session.Session) error {
	p.sess = sess
	if p.langInstruction == "" || p.langOutput == "" {
		return errors.Wrap(contract.ErrInvalidOption, "--lang_instruction and --lang_output are required")
	}
	p.discarded = 0
	return nil
}

func (p *TranslationToPairs) Accepts() []contract.Domain {
	return []contract.Domain{contract.DomainTranslation}
}
func (p *TranslationToPairs) Generates() []contract.Domain {
	return []contract.Domain{contract.DomainPairs}
}

func (p *TranslationToPairs) Process(rec contract.Record) ([]contract.Record, error) {
	d, ok := rec.(*contract.TranslationData)
	if !ok {
		return nil, errors.Errorf("%s: unexpected record domain %s", p.Name(), rec.Domain())
	}
	instruction, okIns := d.Translations[p.langInstruction]
	output, okOut := d.Translations[p.langOutput]
	if !okIns || !okOut {
		p.discarded++
		return nil, nil
	}
	out := &contract.PairData{
		Instruction: instruction,
		Input:       d.Translations[p.langInput],
		Output:      output,
	}
	out.SetMeta(d.GetMeta().Clone())
	return []contract.Record{out}, nil
}

func (p *TranslationToPairs) Finalize() error {
	p.sess.Logger.Info().Int64("discarded", p.discarded).Msg("translation-to-pairs")
	return nil
}

// TranslationToPretrain 取单一语言的文本构造预训练记录；
// 缺该语言的记录被抑制。
type TranslationToPretrain struct {
	lang string

	discarded int64
	fs        *pflag.FlagSet
	sess      *session.Session
}

func NewTranslationToPretrain() contract.Filter { return &TranslationToPretrain{} }

func (p *TranslationToPretrain) Name() string { return "translation-to-pretrain" }
func (p *TranslationToPretrain) Description() string {
	return "Converts translation records to pretrain ones, extracting the specified language."
}

func (p *TranslationToPretrain) Flags() *pflag.FlagSet {
	if p.fs == nil {
		p.fs = pflag.NewFlagSet(p.Name(), pflag.ContinueOnError)
		p.fs.StringVar(&p.lang, "lang", "", "language ID to convert")
	}
	return p.fs
}

func (p *TranslationToPretrain) Init(sess *session.Session) error {
	p.sess = sess
	if p.lang == "" {
		return errors.Wrap(contract.ErrInvalidOption, "no --lang given")
	}
	p.discarded = 0
	return nil
}

func (p *TranslationToPretrain) Accepts() []contract.Domain {
	return []contract.Domain{contract.DomainTranslation}
}
func (p *TranslationToPretrain) Generates() []contract.Domain {
	return []contract.Domain{contract.DomainPretrain}
}

func (p *TranslationToPretrain) Process(rec contract.Record) ([]contract.Record, error) {
	d, ok := rec.(*contract.TranslationData)
	if !ok {
		return nil, errors.Errorf("%s: unexpected record domain %s", p.Name(), rec.Domain())
	}
	text, found := d.Translations[p.lang]
	if !found {
		p.discarded++
		return nil, nil
	}
	out := &contract.PretrainData{Content: text}
	out.SetMeta(d.GetMeta().Clone())
	return []contract.Record{out}, nil
}

func (p *TranslationToPretrain) Finalize() error {
	p.sess.Logger.Info().Int64("discarded", p.discarded).Msg("translation-to-pretrain")
	return nil
}

// PretrainSentencesToPairs 把预训练文本断句后展开为指令对：
// 每隔 prompt_step 取一句作提示，后续 num_sentences_response 句作回答。
// prompt_step 为 0 时提示为空。
type PretrainSentencesToPairs struct {
	endChars     string
	promptStep   int
	numResponses int

	fs   *pflag.FlagSet
	sess *session.Session
}

func NewPretrainSentencesToPairs() contract.Filter { return &PretrainSentencesToPairs{} }

func (p *PretrainSentencesToPairs) Name() string { return "pretrain-sentences-to-pairs" }
func (p *PretrainSentencesToPairs) Description() string {
	return "Converts pretrain records to pairs by using sentences as prompt and the following ones as response."
}

func (p *PretrainSentencesToPairs) Flags() *pflag.FlagSet {
	if p.fs == nil {
		p.fs = pflag.NewFlagSet(p.Name(), pflag.ContinueOnError)
		p.fs.StringVarP(&p.endChars, "end_chars", "c", textutil.DefaultEndChars, "characters signifying the end of a sentence")
		p.fs.IntVarP(&p.promptStep, "prompt_step", "p", 1, "step size for selecting prompt sentences; 0 for no prompt")
		p.fs.IntVarP(&p.numResponses, "num_sentences_response", "r", 5, "number of sentences following the prompt to use as response")
	}
	return p.fs
}

func (p *PretrainSentencesToPairs) Init(sess *session.Session) error {
	p.sess = sess
	if p.promptStep < 0 {
		return errors.Wrapf(contract.ErrInvalidOption, "prompt_step must not be negative: %d", p.promptStep)
	}
	if p.numResponses < 1 {
		return errors.Wrapf(contract.ErrInvalidOption, "num_sentences_response must be at least 1: %d", p.numResponses)
	}
	return nil
}

func (p *PretrainSentencesToPairs) Accepts() []contract.Domain {
	return []contract.Domain{contract.DomainPretrain}
}
func (p *PretrainSentencesToPairs) Generates() []contract.Domain {
	return []contract.Domain{contract.DomainPairs}
}

func (p *PretrainSentencesToPairs) Process(rec contract.Record) ([]contract.Record, error) {
	d, ok := rec.(*contract.PretrainData)
	if !ok {
		return nil, errors.Errorf("%s: unexpected record domain %s", p.Name(), rec.Domain())
	}
	sentences := textutil.SplitIntoSentences(strings.Split(d.Content, "\n"), p.endChars)

	var file any
	if m := d.GetMeta(); m != nil {
		file = m["file"]
	}

	var out []contract.Record
	i := 0
	for len(sentences) > 0 {
		instruction := ""
		if p.promptStep > 0 {
			instruction = sentences[0]
			sentences = sentences[1:]
			i++
		}
		n := p.numResponses
		if n > len(sentences) {
			n = len(sentences)
		}
		if n == 0 {
			break
		}
		response := strings.Join(sentences[:n], " ")
		sentences = sentences[n:]

		pair := &contract.PairData{Instruction: instruction, Output: response}
		meta := contract.EnsureMeta(pair)
		if file != nil {
			meta["file"] = file
		}
		meta["output"] = fmt.Sprintf("%d:%d", i+p.promptStep, i+p.promptStep+n-1)
		out = append(out, pair)
		i += n
	}
	return out, nil
}

func (p *PretrainSentencesToPairs) Finalize() error { return nil }
