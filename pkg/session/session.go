// Package session 承载单次调用内读取器/过滤器/写出器共享的进程态。
// 每次 CLI 调用新建一个实例，退出即弃；不跨调用持久化。
package session

import (
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// 输出压缩编解码选择。空串表示不压缩。
const (
	CompressionNone  = ""
	CompressionBzip2 = "bz2"
	CompressionGzip  = "gz"
	CompressionXz    = "xz"
	CompressionZstd  = "zstd"
)

// CompressionFormats: -c 可选值（不含 none）。
var CompressionFormats = []string{CompressionBzip2, CompressionGzip, CompressionXz, CompressionZstd}

// ValidCompression 校验 -c 取值；"none" 归一为为空串。
func ValidCompression(c string) (string, bool) {
	c = strings.ToLower(strings.TrimSpace(c))
	if c == "" || c == "none" {
		return CompressionNone, true
	}
	for _, f := range CompressionFormats {
		if c == f {
			return c, true
		}
	}
	return "", false
}

// Session: 单次运行的共享状态。
// 约束：仅由单一执行线程变异，无锁。
type Session struct {
	Logger zerolog.Logger
	// CorrID: 本次运行的关联 ID，随日志输出。
	CorrID string
	// Compression: 写出器目标为目录时追加的压缩格式。
	Compression string
	// UpdateInterval: 每处理 N 条记录输出一次进度（<=0 关闭）。
	UpdateInterval int
	// ForceBatch: 强制整批物化后再写出。
	ForceBatch bool

	// Count: 已从读取器拉取的记录总数（跨文件累计）。
	Count int64
	// CurrentInput: 读取器当前正在消费的输入路径；写出器据此派生输出名。
	CurrentInput string
}

// New 以给定日志级别构造会话。非法级别回落到 warn（与原工具默认一致）。
func New(level string) *Session {
	lvl, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil || lvl == zerolog.NoLevel {
		lvl = zerolog.WarnLevel
	}
	corr := uuid.NewString()
	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).
		Level(lvl).
		With().Timestamp().Str("corr_id", corr).Logger()
	return &Session{
		Logger:         logger,
		CorrID:         corr,
		UpdateInterval: 1000,
	}
}
