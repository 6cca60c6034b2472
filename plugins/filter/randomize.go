package filter

import (
	"math/rand"

	"github.com/spf13/pflag"

	"llmdc/pkg/contract"
	"llmdc/pkg/session"
)

// RandomizeRecords 整批洗牌（批过滤器，触发批模式）。
// seed <= 0 时每次运行随机。
type RandomizeRecords struct {
	seed int64

	rng  *rand.Rand
	fs   *pflag.FlagSet
	sess *session.Session
}

func NewRandomizeRecords() contract.Filter { return &RandomizeRecords{} }

func (p *RandomizeRecords) Name() string { return "randomize-records" }
func (p *RandomizeRecords) Description() string {
	return "Randomizes the order of the records. Forces the pipeline into batch mode."
}

func (p *RandomizeRecords) Flags() *pflag.FlagSet {
	if p.fs == nil {
		p.fs = pflag.NewFlagSet(p.Name(), pflag.ContinueOnError)
		p.fs.Int64VarP(&p.seed, "seed", "s", -1, "seed for reproducible shuffles (<=0 for random)")
	}
	return p.fs
}

func (p *RandomizeRecords) Init(sess *session.Session) error {
	p.sess = sess
	if p.seed > 0 {
		p.rng = rand.New(rand.NewSource(p.seed))
	} else {
		p.rng = rand.New(rand.NewSource(rand.Int63()))
	}
	return nil
}

func (p *RandomizeRecords) Accepts() []contract.Domain   { return anyDomain() }
func (p *RandomizeRecords) Generates() []contract.Domain { return anyDomain() }

// Process 单条路径不可达（批模式强制），按透传实现。
func (p *RandomizeRecords) Process(rec contract.Record) ([]contract.Record, error) {
	return []contract.Record{rec}, nil
}

func (p *RandomizeRecords) ProcessBatch(recs []contract.Record) ([]contract.Record, error) {
	p.rng.Shuffle(len(recs), func(i, j int) {
		recs[i], recs[j] = recs[j], recs[i]
	})
	p.sess.Logger.Info().Int("records", len(recs)).Msg("randomize-records")
	return recs, nil
}

func (p *RandomizeRecords) Finalize() error { return nil }
