package filter

import (
	"github.com/pkg/errors"
	"github.com/spf13/pflag"

	"llmdc/pkg/contract"
	"llmdc/pkg/session"
)

// MaxRecords 放行前 N 条，其余抑制。
type MaxRecords struct {
	max int64

	count int64
	fs    *pflag.FlagSet
	sess  *session.Session
}

func NewMaxRecords() contract.Filter { return &MaxRecords{} }

func (p *MaxRecords) Name() string { return "max-records" }
func (p *MaxRecords) Description() string {
	return "Suppresses records once the maximum number of records has been forwarded."
}

func (p *MaxRecords) Flags() *pflag.FlagSet {
	if p.fs == nil {
		p.fs = pflag.NewFlagSet(p.Name(), pflag.ContinueOnError)
		p.fs.Int64VarP(&p.max, "max_records", "m", -1, "maximum number of records to forward (<1 for unlimited)")
	}
	return p.fs
}

func (p *MaxRecords) Init(sess *session.Session) error {
	p.sess = sess
	p.count = 0
	return nil
}

func (p *MaxRecords) Accepts() []contract.Domain   { return anyDomain() }
func (p *MaxRecords) Generates() []contract.Domain { return anyDomain() }

func (p *MaxRecords) Process(rec contract.Record) ([]contract.Record, error) {
	if p.max > 0 && p.count >= p.max {
		return nil, nil
	}
	p.count++
	return []contract.Record{rec}, nil
}

func (p *MaxRecords) Finalize() error {
	p.sess.Logger.Info().Int64("forwarded", p.count).Msg("max-records")
	return nil
}

// RecordWindow 只放行窗口 [from, to] 内、步长命中的记录（1 基序号）。
type RecordWindow struct {
	from int64
	to   int64
	step int64

	count     int64
	forwarded int64
	fs        *pflag.FlagSet
	sess      *session.Session
}

func NewRecordWindow() contract.Filter { return &RecordWindow{} }

func (p *RecordWindow) Name() string { return "record-window" }
func (p *RecordWindow) Description() string {
	return "Only forwards records that fall within the 1-based window defined by from/to and match the step."
}

func (p *RecordWindow) Flags() *pflag.FlagSet {
	if p.fs == nil {
		p.fs = pflag.NewFlagSet(p.Name(), pflag.ContinueOnError)
		p.fs.Int64VarP(&p.from, "from", "f", -1, "lower bound of the window (1-based, <1 for none)")
		p.fs.Int64VarP(&p.to, "to", "t", -1, "upper bound of the window (1-based, <1 for none)")
		p.fs.Int64VarP(&p.step, "step", "s", 1, "forward only every n-th record inside the window")
	}
	return p.fs
}

func (p *RecordWindow) Init(sess *session.Session) error {
	p.sess = sess
	if p.step < 1 {
		return errors.Wrapf(contract.ErrInvalidOption, "step must be at least 1, got %d", p.step)
	}
	if p.from > 0 && p.to > 0 && p.from > p.to {
		return errors.Wrapf(contract.ErrInvalidOption, "window from > to: %d > %d", p.from, p.to)
	}
	p.count, p.forwarded = 0, 0
	return nil
}

func (p *RecordWindow) Accepts() []contract.Domain   { return anyDomain() }
func (p *RecordWindow) Generates() []contract.Domain { return anyDomain() }

func (p *RecordWindow) Process(rec contract.Record) ([]contract.Record, error) {
	p.count++
	if p.from > 0 && p.count < p.from {
		return nil, nil
	}
	if p.to > 0 && p.count > p.to {
		return nil, nil
	}
	start := p.from
	if start < 1 {
		start = 1
	}
	if (p.count-start)%p.step != 0 {
		return nil, nil
	}
	p.forwarded++
	return []contract.Record{rec}, nil
}

func (p *RecordWindow) Finalize() error {
	p.sess.Logger.Info().Int64("forwarded", p.forwarded).Msg("record-window")
	return nil
}
