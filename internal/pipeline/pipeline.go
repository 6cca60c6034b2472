// Package pipeline 实现 读取器 → 过滤器链 → 写出器 的同步执行器。
// 状态机：INIT（能力校验）→ RUNNING → DONE/FAILED。无重试，首错即停，
// 所有退出路径关闭句柄。核心路径单线程拉取，不起并发。
package pipeline

import (
	"context"

	"github.com/pkg/errors"

	"llmdc/pkg/contract"
	"llmdc/pkg/session"
)

// Components: 一条流水线的插件集合。Writer 可为 nil（只跑过滤统计）。
type Components struct {
	Reader  contract.Reader
	Filters []contract.Filter
	Writer  contract.Writer
}

// Check 逐跳校验领域相容性；任一跳交集为空立即返回 ErrIncompatible。
// 在任何文件 I/O 之前调用。
func Check(c *Components) error {
	if c.Reader == nil {
		return errors.Wrap(contract.ErrIncompatible, "no reader")
	}
	out := c.Reader.Generates()
	prev := c.Reader.Name()
	for _, f := range c.Filters {
		if !contract.Compatible(out, f.Accepts()) {
			return errors.Wrapf(contract.ErrIncompatible, "%s -> %s", prev, f.Name())
		}
		out = f.Generates()
		prev = f.Name()
	}
	if c.Writer != nil && !contract.Compatible(out, c.Writer.Accepts()) {
		return errors.Wrapf(contract.ErrIncompatible, "%s -> %s", prev, c.Writer.Name())
	}
	return nil
}

// batchMode: 强制批模式的三种来源——全局开关、批写出器、批过滤器。
func batchMode(sess *session.Session, c *Components) bool {
	if sess.ForceBatch {
		return true
	}
	if c.Writer != nil {
		if _, stream := c.Writer.(contract.StreamWriter); !stream {
			return true
		}
	}
	for _, f := range c.Filters {
		if _, ok := f.(contract.BatchFilter); ok {
			return true
		}
	}
	return false
}

// Run 执行流水线。先 Check，再依模式流式或整批推进。
func Run(ctx context.Context, sess *session.Session, c *Components) (err error) {
	if err := Check(c); err != nil {
		return err
	}

	if c.Writer != nil {
		defer func() {
			if cerr := c.Writer.Close(); cerr != nil && err == nil {
				err = errors.Wrap(cerr, "close writer")
			}
		}()
	}

	if batchMode(sess, c) {
		err = runBatch(ctx, sess, c)
	} else {
		err = runStream(ctx, sess, c)
	}
	if err != nil {
		return err
	}

	for _, f := range c.Filters {
		if ferr := f.Finalize(); ferr != nil {
			return errors.Wrapf(ferr, "finalize %s", f.Name())
		}
	}
	sess.Logger.Info().Int64("records", sess.Count).Msg("done")
	return nil
}

func runStream(ctx context.Context, sess *session.Session, c *Components) error {
	var sw contract.StreamWriter
	if c.Writer != nil {
		sw = c.Writer.(contract.StreamWriter)
	}
	return c.Reader.Read(ctx, func(rec contract.Record) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		tick(sess)
		recs, err := applyFilters(c.Filters, []contract.Record{rec})
		if err != nil {
			return err
		}
		if sw == nil {
			return nil
		}
		for _, r := range recs {
			if err := sw.Write(r); err != nil {
				return errors.Wrapf(err, "write %s", c.Writer.Name())
			}
		}
		return nil
	})
}

func runBatch(ctx context.Context, sess *session.Session, c *Components) error {
	var all []contract.Record
	err := c.Reader.Read(ctx, func(rec contract.Record) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		tick(sess)
		all = append(all, rec)
		return nil
	})
	if err != nil {
		return err
	}

	for _, f := range c.Filters {
		if bf, ok := f.(contract.BatchFilter); ok {
			all, err = bf.ProcessBatch(all)
		} else {
			all, err = applyFilters([]contract.Filter{f}, all)
		}
		if err != nil {
			return err
		}
	}

	switch w := c.Writer.(type) {
	case nil:
		return nil
	case contract.BatchWriter:
		return errors.Wrapf(w.WriteBatch(all), "write %s", c.Writer.Name())
	case contract.StreamWriter:
		for _, r := range all {
			if err := w.Write(r); err != nil {
				return errors.Wrapf(err, "write %s", c.Writer.Name())
			}
		}
		return nil
	}
	return errors.Errorf("writer %s implements neither stream nor batch", c.Writer.Name())
}

// applyFilters 把记录切片依次推过（非批）过滤器，保持展开/抑制语义。
func applyFilters(filters []contract.Filter, recs []contract.Record) ([]contract.Record, error) {
	for _, f := range filters {
		var next []contract.Record
		for _, r := range recs {
			out, err := f.Process(r)
			if err != nil {
				return nil, errors.Wrapf(err, "filter %s", f.Name())
			}
			next = append(next, out...)
		}
		recs = next
		if len(recs) == 0 {
			return nil, nil
		}
	}
	return recs, nil
}

func tick(sess *session.Session) {
	sess.Count++
	if sess.UpdateInterval > 0 && sess.Count%int64(sess.UpdateInterval) == 0 {
		sess.Logger.Info().Int64("records", sess.Count).Msg("progress")
	}
}
