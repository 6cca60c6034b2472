package filter

import (
	"github.com/spf13/pflag"

	"llmdc/pkg/contract"
	"llmdc/pkg/session"
)

// ResetIDs 重写 'id' 元数据为自 offset 起的连续编号。
// 先递增后赋值：第 i 条记录得到 offset+i+1。
type ResetIDs struct {
	offset int64

	counter int64
	fs      *pflag.FlagSet
	sess    *session.Session
}

func NewResetIDs() contract.Filter { return &ResetIDs{} }

func (p *ResetIDs) Name() string { return "reset-ids" }
func (p *ResetIDs) Description() string {
	return "Resets the 'id' values in the meta-data to consecutive numbers starting at the offset."
}

func (p *ResetIDs) Flags() *pflag.FlagSet {
	if p.fs == nil {
		p.fs = pflag.NewFlagSet(p.Name(), pflag.ContinueOnError)
		p.fs.Int64VarP(&p.offset, "offset", "o", 0, "offset to start the IDs at")
	}
	return p.fs
}

func (p *ResetIDs) Init(sess *session.Session) error {
	p.sess = sess
	p.counter = p.offset
	return nil
}

func (p *ResetIDs) Accepts() []contract.Domain   { return anyDomain() }
func (p *ResetIDs) Generates() []contract.Domain { return anyDomain() }

func (p *ResetIDs) Process(rec contract.Record) ([]contract.Record, error) {
	p.counter++
	contract.EnsureMeta(rec)["id"] = p.counter
	return []contract.Record{rec}, nil
}

func (p *ResetIDs) Finalize() error {
	p.sess.Logger.Info().Int64("last_id", p.counter).Msg("reset-ids")
	return nil
}
