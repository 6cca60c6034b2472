package contract

import (
	"context"

	"github.com/spf13/pflag"

	"llmdc/pkg/session"
)

// Plugin: 所有流水线插件的公共面。
// 约束：
// 1) Flags 返回本插件独立的参数组；未知参数由解析层硬失败；
// 2) Init 在参数解析之后、任何数据 I/O 之前调用一次，负责校验与计数器复位；
// 3) 除内部计数器/去重集合外，实例在运行期不可变。
type Plugin interface {
	Name() string
	Description() string
	Flags() *pflag.FlagSet
	Init(sess *session.Session) error
}

// Reader: 输入源抽象。自行定位输入（通配、清单文件）、解压与解码，
// 逐条回调 yield；yield 返回错误时立即中止。
// 不在内部起并发。
type Reader interface {
	Plugin
	Generates() []Domain
	Read(ctx context.Context, yield func(Record) error) error
}

// Filter: 单记录变换。Process 返回 0..n 条派生记录：
// 透传、就地变异、抑制（空切片）或展开（多条）。
// Finalize 在流结束后调用（统计日志、子流冲刷）。
type Filter interface {
	Plugin
	Accepts() []Domain
	Generates() []Domain
	Process(rec Record) ([]Record, error)
	Finalize() error
}

// BatchFilter: 需要整批物化的过滤器（如随机化）。
// 流水线检测到该能力时强制批模式。
type BatchFilter interface {
	Filter
	ProcessBatch(recs []Record) ([]Record, error)
}

// Writer: 写出器公共面。实现方必须同时实现 StreamWriter 或 BatchWriter 之一。
type Writer interface {
	Plugin
	Accepts() []Domain
	Close() error
}

// StreamWriter: 逐条消费，可按记录或缓冲块冲刷。
type StreamWriter interface {
	Writer
	Write(rec Record) error
}

// BatchWriter: 需要完整物化序列的写出器（如单数组 JSON）。
type BatchWriter interface {
	Writer
	WriteBatch(recs []Record) error
}

// Downloader: llm-download 使用的外部数据获取插件；不属于核心流水线。
type Downloader interface {
	Plugin
	Download(ctx context.Context) error
}
