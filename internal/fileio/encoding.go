package fileio

import (
	"io"
	"os"
	"strings"

	"github.com/kelseyhightower/envconfig"
	"github.com/pkg/errors"
	"github.com/saintfish/chardet"
	"golang.org/x/text/encoding/ianaindex"
	"golang.org/x/text/transform"
)

// 探测采样上限。大文件只看前段即可稳定判定。
const defaultMaxCheck = 1 << 20

type encodingEnv struct {
	// EncodingMaxCheck: 编码探测读取的最大字节数。
	EncodingMaxCheck int `envconfig:"ENCODING_MAX_CHECK"`
}

func maxCheck() int {
	var spec encodingEnv
	if err := envconfig.Process("llmdc", &spec); err == nil && spec.EncodingMaxCheck > 0 {
		return spec.EncodingMaxCheck
	}
	return defaultMaxCheck
}

// DetectEncoding 探测文件编码并返回 IANA 名称。
// ASCII 归一为 UTF-8（纯 ASCII 文件按 UTF-8 读是无损的）。
func DetectEncoding(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	buf := make([]byte, maxCheck())
	n, err := io.ReadFull(f, buf)
	if err != nil && err != io.EOF && err != io.ErrUnexpectedEOF {
		return "", errors.Wrapf(err, "sample %s", path)
	}
	if n == 0 {
		return "UTF-8", nil
	}
	best, err := chardet.NewTextDetector().DetectBest(buf[:n])
	if err != nil {
		// 判定失败按 UTF-8 处理，交给下游解析报错。
		return "UTF-8", nil
	}
	cs := best.Charset
	if strings.EqualFold(cs, "ISO-8859-1") && looksASCII(buf[:n]) {
		return "UTF-8", nil
	}
	if strings.EqualFold(cs, "ascii") || strings.EqualFold(cs, "US-ASCII") {
		return "UTF-8", nil
	}
	return cs, nil
}

func looksASCII(b []byte) bool {
	for _, c := range b {
		if c >= 0x80 {
			return false
		}
	}
	return true
}

// decodeReader 把 r 包装成 UTF-8 流。encoding 为空时自动探测（基于 path）。
func decodeReader(r io.Reader, path, encoding string) (io.Reader, error) {
	name := encoding
	if name == "" {
		detected, err := DetectEncoding(path)
		if err != nil {
			return nil, err
		}
		name = detected
	}
	if strings.EqualFold(name, "UTF-8") || strings.EqualFold(name, "utf8") {
		return r, nil
	}
	enc, err := ianaindex.IANA.Encoding(name)
	if err != nil || enc == nil {
		return nil, errors.Errorf("unsupported encoding %q for %s", name, path)
	}
	return transform.NewReader(r, enc.NewDecoder()), nil
}
