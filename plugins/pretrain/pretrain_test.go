package pretrain

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"llmdc/pkg/contract"
	"llmdc/pkg/session"
)

func initPlugin(t *testing.T, p contract.Plugin, args ...string) *session.Session {
	t.Helper()
	require.NoError(t, p.Flags().Parse(args))
	sess := session.New("error")
	require.NoError(t, p.Init(sess))
	return sess
}

func collect(t *testing.T, r contract.Reader) []*contract.PretrainData {
	t.Helper()
	var recs []*contract.PretrainData
	err := r.Read(context.Background(), func(rec contract.Record) error {
		recs = append(recs, rec.(*contract.PretrainData))
		return nil
	})
	require.NoError(t, err)
	return recs
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestFromTxtWholeFile(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "a.txt", "first line\nsecond line\n")

	r := NewFromTxt()
	initPlugin(t, r, "-i", path)
	recs := collect(t, r)
	require.Len(t, recs, 1)
	assert.Equal(t, "first line\nsecond line", recs[0].Content)
	assert.Equal(t, path, recs[0].GetMeta()["file"])
}

func TestFromTxtSplitLines(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "a.txt", "one\n\ntwo\n")

	r := NewFromTxt()
	initPlugin(t, r, "-i", path, "-s", "-e")
	recs := collect(t, r)
	require.Len(t, recs, 2)
	assert.Equal(t, "one", recs[0].Content)
	assert.Equal(t, "two", recs[1].Content)
	assert.Equal(t, 0, recs[0].GetMeta()["line"])
	assert.Equal(t, 1, recs[1].GetMeta()["line"])
}

func TestFromTxtPatternRemoval(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "a.txt", "keep this[1]\n")

	r := NewFromTxt()
	initPlugin(t, r, "-i", path, "-r", `\[\d+\]`)
	recs := collect(t, r)
	require.Len(t, recs, 1)
	assert.Equal(t, "keep this", recs[0].Content)
}

func TestFromTxtSentences(t *testing.T) {
	dir := t.TempDir()
	// 硬换行的预排版文本被拼回完整句子。
	path := writeFile(t, dir, "a.txt", "This is a\nsplit sentence.\nAnother one.\n")

	r := NewFromTxt()
	initPlugin(t, r, "-i", path, "-s", "--sentences")
	recs := collect(t, r)
	require.Len(t, recs, 2)
	assert.Equal(t, "This is a split sentence.", recs[0].Content)
	assert.Equal(t, "Another one.", recs[1].Content)
}

func TestFromTxtBlockRemoval(t *testing.T) {
	dir := t.TempDir()
	content := "keep one\nBEGIN LICENSE\nlegal text\nEND LICENSE\nkeep two\n"
	path := writeFile(t, dir, "a.txt", content)

	r := NewFromTxt()
	initPlugin(t, r, "-i", path, "-s",
		"--block_removal_start", "BEGIN LICENSE",
		"--block_removal_end", "END LICENSE")
	recs := collect(t, r)
	require.Len(t, recs, 2)
	assert.Equal(t, "keep one", recs[0].Content)
	assert.Equal(t, "keep two", recs[1].Content)
}

func TestFromTxtBlockRemovalRequiresBothEnds(t *testing.T) {
	r := NewFromTxt()
	require.NoError(t, r.Flags().Parse([]string{"-i", "a.txt", "--block_removal_start", "X"}))
	assert.ErrorIs(t, r.Init(session.New("error")), contract.ErrInvalidOption)
}

func TestToTxtDirectory(t *testing.T) {
	dir := t.TempDir()

	w := NewToTxt()
	sess := initPlugin(t, w, "-o", dir, "-d", "4")
	sw := w.(contract.StreamWriter)

	named := &contract.PretrainData{Content: "named content"}
	named.SetMeta(contract.Meta{"id": "doc1"})
	require.NoError(t, sw.Write(named))

	sess.Count = 2
	require.NoError(t, sw.Write(&contract.PretrainData{Content: "counted content"}))
	require.NoError(t, w.Close())

	data, err := os.ReadFile(filepath.Join(dir, "doc1.txt"))
	require.NoError(t, err)
	assert.Equal(t, "named content", string(data))

	data, err = os.ReadFile(filepath.Join(dir, "0002.txt"))
	require.NoError(t, err)
	assert.Equal(t, "counted content", string(data))
}

func TestToTxtConcatenate(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out.txt")

	w := NewToTxt()
	initPlugin(t, w, "-o", path)
	sw := w.(contract.StreamWriter)
	require.NoError(t, sw.Write(&contract.PretrainData{Content: "one"}))
	require.NoError(t, sw.Write(&contract.PretrainData{Content: "two"}))
	require.NoError(t, w.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "one\ntwo\n", string(data))
}

func TestToTxtConcatenateRejectsCompression(t *testing.T) {
	dir := t.TempDir()
	w := NewToTxt()
	require.NoError(t, w.Flags().Parse([]string{"-o", filepath.Join(dir, "out.txt.gz")}))
	assert.ErrorIs(t, w.Init(session.New("error")), contract.ErrInvalidOption)
}

func TestCsvRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out.csv")

	w := NewToCsv()
	initPlugin(t, w, "-o", path)
	sw := w.(contract.StreamWriter)
	require.NoError(t, sw.Write(&contract.PretrainData{Content: "some text"}))
	require.NoError(t, w.Close())

	r := NewFromCsv()
	initPlugin(t, r, "-i", path, "--col_content", "content")
	recs := collect(t, r)
	require.Len(t, recs, 1)
	assert.Equal(t, "some text", recs[0].Content)
}

func TestJsonlinesRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out.jsonl")

	w := NewToJsonlines()
	initPlugin(t, w, "-o", path)
	sw := w.(contract.StreamWriter)
	require.NoError(t, sw.Write(&contract.PretrainData{Content: "line one"}))
	require.NoError(t, sw.Write(&contract.PretrainData{Content: "line two"}))
	require.NoError(t, w.Close())

	r := NewFromJsonlines()
	initPlugin(t, r, "-i", path)
	recs := collect(t, r)
	require.Len(t, recs, 2)
	assert.Equal(t, "line one", recs[0].Content)
	assert.Equal(t, "line two", recs[1].Content)
}
