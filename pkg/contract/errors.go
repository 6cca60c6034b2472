package contract

import "errors"

// 最小错误分类哨兵。退出码与日志分类均建立在这些哨兵之上。
var (
	// ErrPluginNotFound: 注册表中不存在该名称的插件。
	ErrPluginNotFound = errors.New("plugin not found")
	// ErrIncompatible: 相邻两级的领域能力集合交集为空。
	ErrIncompatible = errors.New("incompatible pipeline stages")
	// ErrInvalidOption: 插件选项非法（缺必填、取值越界、未知旗标）。
	ErrInvalidOption = errors.New("invalid option")
	// ErrMissingField: 记录缺少过滤器要求的字段/元数据键。
	ErrMissingField = errors.New("missing field")
)
