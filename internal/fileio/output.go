package fileio

import (
	"io"
	"os"
	"path/filepath"
	"strings"

	"llmdc/pkg/session"
)

// GenerateOutput 由输入路径与输出目标派生实际输出文件名。
// 目标为已存在目录时：取输入 basename，剥离压缩后缀，替换扩展名为 ext，
// 再按 compression 追加压缩后缀；目标为文件时原样返回。
func GenerateOutput(input, target, ext, compression string) string {
	if !isDir(target) {
		return target
	}
	base := filepath.Base(StripCompressionSuffix(input))
	if i := strings.LastIndexByte(base, '.'); i > 0 {
		base = base[:i]
	}
	name := base + ext
	if compression != session.CompressionNone {
		name += "." + compression
	}
	return filepath.Join(target, name)
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

// Router 为流式写出器管理当前输出句柄：目标是目录时，
// 输入文件切换会触发换文件（新文件需重写表头时 fresh 为 true）。
type Router struct {
	sess   *session.Session
	target string
	ext    string

	path string
	out  io.WriteCloser
}

// NewRouter 构造写出路由。target 为 -o 目标（文件或目录），ext 为
// 写出器的原生扩展名（含点，如 ".csv"）。
func NewRouter(sess *session.Session, target, ext string) *Router {
	return &Router{sess: sess, target: target, ext: ext}
}

// Current 返回当前记录应写入的流。fresh 表示句柄刚切换（或首次打开），
// 写出器据此重写表头。
func (r *Router) Current() (w io.Writer, fresh bool, err error) {
	want := GenerateOutput(r.sess.CurrentInput, r.target, r.ext, r.sess.Compression)
	if r.out != nil && want == r.path {
		return r.out, false, nil
	}
	if r.out != nil {
		if err := r.out.Close(); err != nil {
			return nil, false, err
		}
		r.out = nil
	}
	out, err := OpenOutput(want)
	if err != nil {
		return nil, false, err
	}
	r.sess.Logger.Info().Str("output", want).Msg("writing")
	r.path = want
	r.out = out
	return out, true, nil
}

// Path 返回当前输出路径（未打开时为空串）。
func (r *Router) Path() string { return r.path }

// Close 关闭当前句柄；幂等。
func (r *Router) Close() error {
	if r.out == nil {
		return nil
	}
	err := r.out.Close()
	r.out = nil
	return err
}
