package translation

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

func collect(t *testing.T, r contract.Reader) []*contract.TranslationData {
	t.Helper()
	var recs []*contract.TranslationData
	err := r.Read(context.Background(), func(rec contract.Record) error {
		recs = append(recs, rec.(*contract.TranslationData))
		return nil
	})
	require.NoError(t, err)
	return recs
}

func TestFromTxtBlocks(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "data.txt")
	content := "en: hello\nde: hallo\n\nen: goodbye\nfr: au revoir\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	r := NewFromTxt()
	initPlugin(t, r, "-i", path)
	recs := collect(t, r)
	require.Len(t, recs, 2)
	assert.Equal(t, map[string]string{"en": "hello", "de": "hallo"}, recs[0].Translations)
	assert.Equal(t, map[string]string{"en": "goodbye", "fr": "au revoir"}, recs[1].Translations)
}

func TestFromTxtMissingSeparator(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "data.txt")
	require.NoError(t, os.WriteFile(path, []byte("no separator here\n"), 0o644))

	r := NewFromTxt()
	initPlugin(t, r, "-i", path)
	err := r.Read(context.Background(), func(contract.Record) error { return nil })
	assert.Error(t, err)
}

func TestToTxtBlocks(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out.txt")

	w := NewToTxt()
	initPlugin(t, w, "-o", path)
	sw := w.(contract.StreamWriter)
	require.NoError(t, sw.Write(&contract.TranslationData{Translations: map[string]string{"en": "hello", "de": "hallo"}}))
	require.NoError(t, sw.Write(&contract.TranslationData{Translations: map[string]string{"en": "goodbye"}}))
	require.NoError(t, w.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	// 语言按字母序输出，记录之间以空行分隔。
	assert.Equal(t, "de: hallo\nen: hello\n\nen: goodbye\n", string(data))
}

func TestCsvRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out.csv")

	w := NewToCsv()
	initPlugin(t, w, "-o", path, "-g", "en", "-g", "de", "--col_id", "id")
	sw := w.(contract.StreamWriter)
	rec := &contract.TranslationData{Translations: map[string]string{"en": "hello", "de": "hallo"}}
	rec.SetMeta(contract.Meta{"id": "r1"})
	require.NoError(t, sw.Write(rec))
	require.NoError(t, w.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "id,de,en\nr1,hallo,hello\n", string(data))

	r := NewFromCsv()
	initPlugin(t, r, "-i", path, "--col_id", "id")
	recs := collect(t, r)
	require.Len(t, recs, 1)
	assert.Equal(t, map[string]string{"en": "hello", "de": "hallo"}, recs[0].Translations)
	assert.Equal(t, "r1", recs[0].GetMeta()["id"])
}

func TestToCsvRequiresLanguages(t *testing.T) {
	w := NewToCsv()
	require.NoError(t, w.Flags().Parse([]string{"-o", "out.csv"}))
	assert.ErrorIs(t, w.Init(session.New("error")), contract.ErrInvalidOption)
}

func TestFromCsvLanguageSubset(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "data.csv")
	require.NoError(t, os.WriteFile(path, []byte("en,de,fr\nhello,hallo,bonjour\n"), 0o644))

	r := NewFromCsv()
	initPlugin(t, r, "-i", path, "-g", "en", "-g", "fr")
	recs := collect(t, r)
	require.Len(t, recs, 1)
	assert.Equal(t, map[string]string{"en": "hello", "fr": "bonjour"}, recs[0].Translations)
}

func TestJsonlinesRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out.jsonl")

	w := NewToJsonlines()
	initPlugin(t, w, "-o", path)
	sw := w.(contract.StreamWriter)
	require.NoError(t, sw.Write(&contract.TranslationData{Translations: map[string]string{"en": "hello", "de": "hallo"}}))
	require.NoError(t, w.Close())

	r := NewFromJsonlines()
	initPlugin(t, r, "-i", path)
	recs := collect(t, r)
	require.Len(t, recs, 1)
	assert.Equal(t, map[string]string{"en": "hello", "de": "hallo"}, recs[0].Translations)
}

func TestFromJsonlinesSkipsForeignLines(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "data.jsonl")
	content := `{"other": "object"}
{"translation": {"en": "hello"}}
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	r := NewFromJsonlines()
	initPlugin(t, r, "-i", path)
	recs := collect(t, r)
	require.Len(t, recs, 1)
	assert.Equal(t, "hello", recs[0].Translations["en"])
}
