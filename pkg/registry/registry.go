// Package registry 维护按命令行名称索引的插件工厂表（显式、零反射）。
// 基础插件由 plugins/all 一次性注册；第三方包可在其后追加注册。
// 环境变量 LLMDC_PLUGINS_EXCL（逗号分隔插件名）可屏蔽基础插件，
// 供下游打包隐藏不需要的条目。
package registry

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/kelseyhightower/envconfig"

	"llmdc/pkg/contract"
)

// Category: 插件类别。
type Category string

const (
	CategoryDownloader Category = "downloader"
	CategoryReader     Category = "reader"
	CategoryFilter     Category = "filter"
	CategoryWriter     Category = "writer"
)

// 工厂签名：构造零配置实例；选项随后经 Flags() 解析注入。
type (
	NewDownloader func() contract.Downloader
	NewReader     func() contract.Reader
	NewFilter     func() contract.Filter
	NewWriter     func() contract.Writer
)

var (
	mu          sync.RWMutex
	downloaders = map[string]NewDownloader{}
	readers     = map[string]NewReader{}
	filters     = map[string]NewFilter{}
	writers     = map[string]NewWriter{}
	excluded    = map[string]struct{}{}
)

type envSpec struct {
	// PluginsExcl: 逗号分隔的待屏蔽插件名。
	PluginsExcl string `envconfig:"PLUGINS_EXCL"`
}

func init() {
	var spec envSpec
	// 环境解析失败不致命：屏蔽表保持为空。
	if err := envconfig.Process("llmdc", &spec); err == nil {
		for _, name := range strings.Split(spec.PluginsExcl, ",") {
			name = strings.TrimSpace(name)
			if name != "" {
				excluded[name] = struct{}{}
			}
		}
	}
}

// RegisterDownloader 注册下载器工厂；重名直接覆盖（后注册者优先）。
func RegisterDownloader(name string, f NewDownloader) {
	mu.Lock()
	defer mu.Unlock()
	downloaders[name] = f
}

func RegisterReader(name string, f NewReader) {
	mu.Lock()
	defer mu.Unlock()
	readers[name] = f
}

func RegisterFilter(name string, f NewFilter) {
	mu.Lock()
	defer mu.Unlock()
	filters[name] = f
}

func RegisterWriter(name string, f NewWriter) {
	mu.Lock()
	defer mu.Unlock()
	writers[name] = f
}

func hidden(name string) bool {
	_, ok := excluded[name]
	return ok
}

// Downloader 按名称解析下载器工厂。
func Downloader(name string) (NewDownloader, error) {
	mu.RLock()
	defer mu.RUnlock()
	f, ok := downloaders[name]
	if !ok || hidden(name) {
		return nil, fmt.Errorf("%w: downloader %q", contract.ErrPluginNotFound, name)
	}
	return f, nil
}

func Reader(name string) (NewReader, error) {
	mu.RLock()
	defer mu.RUnlock()
	f, ok := readers[name]
	if !ok || hidden(name) {
		return nil, fmt.Errorf("%w: reader %q", contract.ErrPluginNotFound, name)
	}
	return f, nil
}

func Filter(name string) (NewFilter, error) {
	mu.RLock()
	defer mu.RUnlock()
	f, ok := filters[name]
	if !ok || hidden(name) {
		return nil, fmt.Errorf("%w: filter %q", contract.ErrPluginNotFound, name)
	}
	return f, nil
}

func Writer(name string) (NewWriter, error) {
	mu.RLock()
	defer mu.RUnlock()
	f, ok := writers[name]
	if !ok || hidden(name) {
		return nil, fmt.Errorf("%w: writer %q", contract.ErrPluginNotFound, name)
	}
	return f, nil
}

// List 返回某类别下可见插件名，字母序（用于帮助文本的稳定输出）。
func List(cat Category) []string {
	mu.RLock()
	defer mu.RUnlock()
	var names []string
	collect := func(keys map[string]struct{}) {
		for k := range keys {
			if !hidden(k) {
				names = append(names, k)
			}
		}
	}
	switch cat {
	case CategoryDownloader:
		collect(keySet(downloaders))
	case CategoryReader:
		collect(keySet(readers))
	case CategoryFilter:
		collect(keySet(filters))
	case CategoryWriter:
		collect(keySet(writers))
	}
	sort.Strings(names)
	return names
}

// AllNames 返回全部可见插件名（读/滤/写三类；下载器独立入口不参与分组切分）。
func AllNames() []string {
	names := List(CategoryReader)
	names = append(names, List(CategoryFilter)...)
	names = append(names, List(CategoryWriter)...)
	sort.Strings(names)
	return names
}

// IsReader/IsFilter/IsWriter: 类别判定（供参数分组后定位插件角色）。
func IsReader(name string) bool { _, err := Reader(name); return err == nil }
func IsFilter(name string) bool { _, err := Filter(name); return err == nil }
func IsWriter(name string) bool { _, err := Writer(name); return err == nil }

func keySet[M ~map[string]V, V any](m M) map[string]struct{} {
	s := make(map[string]struct{}, len(m))
	for k := range m {
		s[k] = struct{}{}
	}
	return s
}
