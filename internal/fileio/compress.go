// Package fileio 提供输入定位、透明压缩、编码探测与输出路径派生。
// 读取侧按扩展名嗅探（.gz/.bz2/.xz/.zst/.zstd），写出侧同样按目标
// 扩展名选择编解码；目录目标由 GenerateOutput 先行拼出带压缩后缀的文件名。
package fileio

import (
	"bufio"
	"io"
	"os"
	"strings"

	"github.com/dsnet/compress/bzip2"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/pkg/errors"
	"github.com/ulikunitz/xz"
)

const defaultBufSize = 64 * 1024

// IsCompressed: 是否为可处理的压缩扩展名。
func IsCompressed(path string) bool {
	p := strings.ToLower(path)
	return strings.HasSuffix(p, ".gz") || strings.HasSuffix(p, ".bz2") ||
		strings.HasSuffix(p, ".xz") || strings.HasSuffix(p, ".zst") || strings.HasSuffix(p, ".zstd")
}

// StripCompressionSuffix 去掉压缩扩展名；无压缩时原样返回。
func StripCompressionSuffix(path string) string {
	if !IsCompressed(path) {
		return path
	}
	i := strings.LastIndexByte(path, '.')
	return path[:i]
}

// OpenInput 打开输入文件：按扩展名解压；纯文本在未强制 encoding 时
// 自动探测并转码为 UTF-8。调用方负责 Close。
func OpenInput(path, forceEncoding string) (io.ReadCloser, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	p := strings.ToLower(path)
	switch {
	case strings.HasSuffix(p, ".gz"):
		zr, err := gzip.NewReader(f)
		if err != nil {
			_ = f.Close()
			return nil, errors.Wrapf(err, "gzip %s", path)
		}
		return &readCloser{r: zr, closers: []io.Closer{zr, f}}, nil
	case strings.HasSuffix(p, ".bz2"):
		br, err := bzip2.NewReader(f, nil)
		if err != nil {
			_ = f.Close()
			return nil, errors.Wrapf(err, "bzip2 %s", path)
		}
		return &readCloser{r: br, closers: []io.Closer{br, f}}, nil
	case strings.HasSuffix(p, ".xz"):
		xr, err := xz.NewReader(bufio.NewReaderSize(f, defaultBufSize))
		if err != nil {
			_ = f.Close()
			return nil, errors.Wrapf(err, "xz %s", path)
		}
		return &readCloser{r: xr, closers: []io.Closer{f}}, nil
	case strings.HasSuffix(p, ".zst"), strings.HasSuffix(p, ".zstd"):
		zr, err := zstd.NewReader(f)
		if err != nil {
			_ = f.Close()
			return nil, errors.Wrapf(err, "zstd %s", path)
		}
		return &readCloser{r: zr.IOReadCloser(), closers: []io.Closer{zr.IOReadCloser(), f}}, nil
	}
	// 纯文本：编码探测/强制转码
	dec, err := decodeReader(f, path, forceEncoding)
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	return &readCloser{r: bufio.NewReaderSize(dec, defaultBufSize), closers: []io.Closer{f}}, nil
}

// OpenOutput 创建输出文件并按扩展名包裹压缩编码器。调用方负责 Close
// （Close 依序冲刷编码器与文件）。
func OpenOutput(path string) (io.WriteCloser, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	p := strings.ToLower(path)
	switch {
	case strings.HasSuffix(p, ".gz"):
		zw := gzip.NewWriter(f)
		return &writeCloser{w: zw, closers: []io.Closer{zw, f}}, nil
	case strings.HasSuffix(p, ".bz2"):
		bw, err := bzip2.NewWriter(f, &bzip2.WriterConfig{Level: bzip2.DefaultCompression})
		if err != nil {
			_ = f.Close()
			return nil, errors.Wrapf(err, "bzip2 %s", path)
		}
		return &writeCloser{w: bw, closers: []io.Closer{bw, f}}, nil
	case strings.HasSuffix(p, ".xz"):
		xw, err := xz.NewWriter(f)
		if err != nil {
			_ = f.Close()
			return nil, errors.Wrapf(err, "xz %s", path)
		}
		return &writeCloser{w: xw, closers: []io.Closer{xw, f}}, nil
	case strings.HasSuffix(p, ".zst"), strings.HasSuffix(p, ".zstd"):
		zw, err := zstd.NewWriter(f)
		if err != nil {
			_ = f.Close()
			return nil, errors.Wrapf(err, "zstd %s", path)
		}
		return &writeCloser{w: zw, closers: []io.Closer{zw, f}}, nil
	}
	bw := bufio.NewWriterSize(f, defaultBufSize)
	return &writeCloser{w: bw, flush: bw.Flush, closers: []io.Closer{f}}, nil
}

// readCloser 组合解码链与底层句柄，保证所有出口路径都能释放。
type readCloser struct {
	r       io.Reader
	closers []io.Closer
}

func (c *readCloser) Read(p []byte) (int, error) { return c.r.Read(p) }

func (c *readCloser) Close() error {
	var first error
	for _, cl := range c.closers {
		if err := cl.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

type writeCloser struct {
	w       io.Writer
	flush   func() error
	closers []io.Closer
}

func (c *writeCloser) Write(p []byte) (int, error) { return c.w.Write(p) }

func (c *writeCloser) Close() error {
	var first error
	if c.flush != nil {
		first = c.flush()
	}
	for _, cl := range c.closers {
		if err := cl.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}
