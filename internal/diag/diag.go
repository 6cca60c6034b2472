// Package diag 把错误归类为进程退出码，并提供失败路径的统一日志出口。
// 退出码约定：0 成功；1 运行期失败（I/O、数据解析）；2 用法/配置错误。
package diag

import (
	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"llmdc/pkg/contract"
)

const (
	ExitOK      = 0
	ExitRuntime = 1
	ExitUsage   = 2
)

// Classify 按错误链归类退出码。配置类哨兵（未知插件、非法选项、
// 领域不相容、缺字段）判为用法错误，其余为运行期失败。
func Classify(err error) int {
	if err == nil {
		return ExitOK
	}
	switch {
	case errors.Is(err, contract.ErrPluginNotFound),
		errors.Is(err, contract.ErrInvalidOption),
		errors.Is(err, contract.ErrIncompatible),
		errors.Is(err, contract.ErrMissingField):
		return ExitUsage
	}
	return ExitRuntime
}

// Fail 记录失败并返回对应退出码；主函数直接 os.Exit(Fail(...))。
func Fail(logger zerolog.Logger, err error) int {
	code := Classify(err)
	evt := logger.Error()
	if code == ExitUsage {
		evt = logger.Error().Str("kind", "usage")
	}
	evt.Err(err).Msg("run failed")
	return code
}
