// Package pio 汇集插件共用的输入/输出选项与列定位逻辑，
// 读取器/写出器只声明格式差异部分。
package pio

import (
	"context"
	"fmt"
	"io"
	"strconv"

	"github.com/pkg/errors"
	"github.com/spf13/pflag"

	"llmdc/internal/fileio"
	"llmdc/pkg/contract"
	"llmdc/pkg/session"
)

// Input: 读取器的输入定位与编码选项。
type Input struct {
	Inputs   []string
	Lists    []string
	Encoding string
}

// Bind 把输入选项挂到插件自己的 FlagSet。
func (in *Input) Bind(fs *pflag.FlagSet) {
	fs.StringArrayVarP(&in.Inputs, "input", "i", nil, "path or glob of the data file(s) to read")
	fs.StringArrayVarP(&in.Lists, "input_list", "I", nil, "text file(s) listing the data files to use")
	fs.StringVar(&in.Encoding, "encoding", "", "encoding to force instead of auto-detecting it, e.g. utf-8")
}

// Validate 至少要有一个输入来源。
func (in *Input) Validate() error {
	if len(in.Inputs) == 0 && len(in.Lists) == 0 {
		return errors.Wrap(contract.ErrInvalidOption, "no --input or --input_list given")
	}
	return nil
}

// ForEach 展开输入并逐文件回调：维护 Session.CurrentInput、
// 透明解压/转码、保证句柄关闭。fn 返回错误立即中止。
func (in *Input) ForEach(ctx context.Context, sess *session.Session, fn func(path string, r io.Reader) error) error {
	files, err := fileio.Locate(in.Inputs, in.Lists, true)
	if err != nil {
		return err
	}
	for _, path := range files {
		if err := ctx.Err(); err != nil {
			return err
		}
		sess.CurrentInput = path
		sess.Logger.Info().Str("input", path).Msg("reading")
		rc, err := fileio.OpenInput(path, in.Encoding)
		if err != nil {
			return err
		}
		ferr := fn(path, rc)
		cerr := rc.Close()
		if ferr != nil {
			return ferr
		}
		if cerr != nil {
			return errors.Wrapf(cerr, "close %s", path)
		}
	}
	return nil
}

// Output: 写出器的目标选项。目标可为目录（输出名由当前输入派生）。
type Output struct {
	Target string
}

func (o *Output) Bind(fs *pflag.FlagSet) {
	fs.StringVarP(&o.Target, "output", "o", "", "file or directory to write to")
}

func (o *Output) Validate() error {
	if o.Target == "" {
		return errors.Wrap(contract.ErrInvalidOption, "no --output given")
	}
	return nil
}

// Router 构造按输入切换的写出路由（流式写出器使用）。
func (o *Output) Router(sess *session.Session, ext string) *fileio.Router {
	return fileio.NewRouter(sess, o.Target, ext)
}

// Column: 列标识。表头模式按列名匹配（纯数字亦作 1 基索引），
// 无表头模式必须为 1 基索引。空串表示未设置。
type Column string

func (c Column) Set() bool { return c != "" }

// Resolve 把列标识解析为 0 基索引；未设置返回 -1。
func (c Column) Resolve(header []string, noHeader bool) (int, error) {
	if !c.Set() {
		return -1, nil
	}
	if i, err := strconv.Atoi(string(c)); err == nil {
		if i < 1 {
			return -1, errors.Wrapf(contract.ErrInvalidOption, "column index must be 1-based: %q", c)
		}
		return i - 1, nil
	}
	if noHeader {
		return -1, errors.Wrapf(contract.ErrInvalidOption, "no header row, column must be a 1-based index: %q", c)
	}
	for i, h := range header {
		if h == string(c) {
			return i, nil
		}
	}
	return -1, errors.Wrapf(contract.ErrInvalidOption, "column %q not in header", c)
}

// Cell 返回行内指定索引的值；越界返回空串（残缺行按空值处理）。
func Cell(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return row[idx]
}

// FileMeta 为记录挂上来源文件元数据。
func FileMeta(r contract.Record, path string) {
	contract.EnsureMeta(r)["file"] = path
}

// String 把元数据值转成稳定的字符串表示（JSON 数值不带多余小数位）。
func String(v any) string {
	switch x := v.(type) {
	case string:
		return x
	case bool:
		if x {
			return "true"
		}
		return "false"
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case int:
		return strconv.Itoa(x)
	case int64:
		return strconv.FormatInt(x, 10)
	case nil:
		return ""
	default:
		return fmt.Sprintf("%v", x)
	}
}
