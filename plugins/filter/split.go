package filter

import (
	"github.com/pkg/errors"
	"github.com/spf13/pflag"

	"llmdc/pkg/contract"
	"llmdc/pkg/session"
)

// schedule: 按比例轮转的切分调度。比例除以最大公约数得到每轮配额，
// 依次填满各切分后开启下一轮，保证任意前缀内各切分数量与比例偏差 ≤1 轮。
type schedule struct {
	names  []string
	quota  []int
	fill   []int
	cur    int
	counts map[string]int64
}

func newSchedule(ratios []int, names []string) (*schedule, error) {
	if len(ratios) == 0 || len(ratios) != len(names) {
		return nil, errors.Wrap(contract.ErrInvalidOption, "split ratios and names must be non-empty and of equal length")
	}
	sum := 0
	for _, r := range ratios {
		if r <= 0 {
			return nil, errors.Wrapf(contract.ErrInvalidOption, "split ratio must be positive: %d", r)
		}
		sum += r
	}
	if sum != 100 {
		return nil, errors.Wrapf(contract.ErrInvalidOption, "split ratios must sum up to 100, got %d", sum)
	}
	g := ratios[0]
	for _, r := range ratios[1:] {
		g = gcd(g, r)
	}
	s := &schedule{
		names:  names,
		quota:  make([]int, len(ratios)),
		fill:   make([]int, len(ratios)),
		counts: map[string]int64{},
	}
	for i, r := range ratios {
		s.quota[i] = r / g
	}
	return s, nil
}

func gcd(a, b int) int {
	for b != 0 {
		a, b = b, a%b
	}
	return a
}

func (s *schedule) next() string {
	for s.fill[s.cur] >= s.quota[s.cur] {
		s.cur++
		if s.cur >= len(s.quota) {
			s.cur = 0
			for i := range s.fill {
				s.fill[i] = 0
			}
		}
	}
	s.fill[s.cur]++
	name := s.names[s.cur]
	s.counts[name]++
	return name
}

func (s *schedule) reset() {
	s.cur = 0
	for i := range s.fill {
		s.fill[i] = 0
	}
	s.counts = map[string]int64{}
}

func (s *schedule) total() int64 {
	var t int64
	for _, c := range s.counts {
		t += c
	}
	return t
}

func (s *schedule) logStats(sess *session.Session, name string) {
	for _, n := range s.names {
		sess.Logger.Info().Str("split", n).Int64("count", s.counts[n]).Msg(name)
	}
}

// Split 把记录按比例标注到切分（写 'split' 元数据）。
// 输入文件切换时重置调度，每个输入独立满足比例。
type Split struct {
	field string // 固定为 split

	ratios    []int
	names     []string
	sched     *schedule
	lastInput string

	fs   *pflag.FlagSet
	sess *session.Session
}

func NewSplit() contract.Filter { return &Split{field: "split"} }

func (p *Split) Name() string { return "split" }
func (p *Split) Description() string {
	return "Splits the incoming records into the specified split ratios by setting the 'split' meta-data value. " +
		"Resets whenever the input file changes."
}

func (p *Split) Flags() *pflag.FlagSet {
	if p.fs == nil {
		p.fs = pflag.NewFlagSet(p.Name(), pflag.ContinueOnError)
		p.fs.IntSliceVarP(&p.ratios, "split_ratios", "r", nil, "split ratios (must sum up to 100)")
		p.fs.StringArrayVarP(&p.names, "split_names", "n", nil, "split names, stored under 'split' in the meta-data")
	}
	return p.fs
}

func (p *Split) Init(sess *session.Session) error {
	p.sess = sess
	sched, err := newSchedule(p.ratios, p.names)
	if err != nil {
		return err
	}
	p.sched = sched
	p.lastInput = ""
	return nil
}

func (p *Split) Accepts() []contract.Domain   { return anyDomain() }
func (p *Split) Generates() []contract.Domain { return anyDomain() }

func (p *Split) Process(rec contract.Record) ([]contract.Record, error) {
	if p.sess.CurrentInput != p.lastInput {
		if p.sched.total() > 0 {
			p.sess.Logger.Info().Msg("input changed, resetting splitter")
			p.sched.logStats(p.sess, p.Name())
			p.sched.reset()
		}
		p.lastInput = p.sess.CurrentInput
	}
	contract.EnsureMeta(rec)[p.field] = p.sched.next()
	return []contract.Record{rec}, nil
}

func (p *Split) Finalize() error {
	p.sched.logStats(p.sess, p.Name())
	return nil
}

// SplitRecords 同样的调度，但元数据键可选、跨输入不重置。
type SplitRecords struct {
	ratios []int
	names  []string
	field  string
	sched  *schedule

	fs   *pflag.FlagSet
	sess *session.Session
}

func NewSplitRecords() contract.Filter { return &SplitRecords{} }

func (p *SplitRecords) Name() string { return "split-records" }
func (p *SplitRecords) Description() string {
	return "Splits the incoming records into the specified split ratios by setting a meta-data value. " +
		"Does not reset between input files."
}

func (p *SplitRecords) Flags() *pflag.FlagSet {
	if p.fs == nil {
		p.fs = pflag.NewFlagSet(p.Name(), pflag.ContinueOnError)
		p.fs.IntSliceVarP(&p.ratios, "split_ratios", "r", nil, "split ratios (must sum up to 100)")
		p.fs.StringArrayVarP(&p.names, "split_names", "n", nil, "split names to store in the meta-data")
		p.fs.StringVarP(&p.field, "field", "f", "split", "meta-data field to store the split name under")
	}
	return p.fs
}

func (p *SplitRecords) Init(sess *session.Session) error {
	p.sess = sess
	if p.field == "" {
		return errors.Wrap(contract.ErrInvalidOption, "empty --field")
	}
	sched, err := newSchedule(p.ratios, p.names)
	if err != nil {
		return err
	}
	p.sched = sched
	return nil
}

func (p *SplitRecords) Accepts() []contract.Domain   { return anyDomain() }
func (p *SplitRecords) Generates() []contract.Domain { return anyDomain() }

func (p *SplitRecords) Process(rec contract.Record) ([]contract.Record, error) {
	contract.EnsureMeta(rec)[p.field] = p.sched.next()
	return []contract.Record{rec}, nil
}

func (p *SplitRecords) Finalize() error {
	p.sched.logStats(p.sess, p.Name())
	return nil
}
