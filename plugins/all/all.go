// Package all 把全部内建插件登记到注册表。
// 命令入口匿名导入本包即可获得完整插件面。
package all

import (
	"llmdc/pkg/registry"
	"llmdc/plugins/classification"
	"llmdc/plugins/download"
	"llmdc/plugins/filter"
	"llmdc/plugins/pairs"
	"llmdc/plugins/pretrain"
	"llmdc/plugins/translation"
)

// 注册名取自实例自身的 Name()，保持命名单一来源。
func reader(f registry.NewReader)         { registry.RegisterReader(f().Name(), f) }
func filterPlugin(f registry.NewFilter)   { registry.RegisterFilter(f().Name(), f) }
func writer(f registry.NewWriter)         { registry.RegisterWriter(f().Name(), f) }
func downloader(f registry.NewDownloader) { registry.RegisterDownloader(f().Name(), f) }

func init() {
	// 读取器。
	reader(pairs.NewFromAlpaca)
	reader(pairs.NewFromCsv)
	reader(pairs.NewFromTsv)
	reader(pairs.NewFromJsonlines)
	reader(pairs.NewFromParquet)
	reader(pretrain.NewFromCsv)
	reader(pretrain.NewFromJsonlines)
	reader(pretrain.NewFromParquet)
	reader(pretrain.NewFromTxt)
	reader(translation.NewFromCsv)
	reader(translation.NewFromJsonlines)
	reader(translation.NewFromTxt)
	reader(classification.NewFromCsv)
	reader(classification.NewFromJsonlines)
	reader(classification.NewFromParquet)

	// 过滤器。
	filterPlugin(filter.NewChangeCase)
	filterPlugin(filter.NewKeyword)
	filterPlugin(filter.NewMaxRecords)
	filterPlugin(filter.NewMetadata)
	filterPlugin(filter.NewMetadataFromName)
	filterPlugin(filter.NewPairsToPretrain)
	filterPlugin(filter.NewPretrainSentencesToPairs)
	filterPlugin(filter.NewRandomizeRecords)
	filterPlugin(filter.NewRecordWindow)
	filterPlugin(filter.NewRemoveEmpty)
	filterPlugin(filter.NewRemovePatterns)
	filterPlugin(filter.NewReplacePatterns)
	filterPlugin(filter.NewResetIDs)
	filterPlugin(filter.NewSkipDuplicateIDs)
	filterPlugin(filter.NewSkipDuplicateText)
	filterPlugin(filter.NewSplit)
	filterPlugin(filter.NewSplitRecords)
	filterPlugin(filter.NewStripStrings)
	filterPlugin(filter.NewSubProcess)
	filterPlugin(filter.NewTee)
	filterPlugin(filter.NewTextLength)
	filterPlugin(filter.NewTranslationToPairs)
	filterPlugin(filter.NewTranslationToPretrain)

	// 写出器。
	writer(pairs.NewToAlpaca)
	writer(pairs.NewToCsv)
	writer(pairs.NewToTsv)
	writer(pairs.NewToJsonlines)
	writer(pairs.NewToParquet)
	writer(pretrain.NewToCsv)
	writer(pretrain.NewToJsonlines)
	writer(pretrain.NewToParquet)
	writer(pretrain.NewToTxt)
	writer(translation.NewToCsv)
	writer(translation.NewToJsonlines)
	writer(translation.NewToTxt)
	writer(classification.NewToCsv)
	writer(classification.NewToJsonlines)
	writer(classification.NewToParquet)

	// 下载器。
	downloader(download.NewHuggingface)
}
