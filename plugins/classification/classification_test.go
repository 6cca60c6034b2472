package classification

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

func collect(t *testing.T, r contract.Reader) []*contract.ClassificationData {
	t.Helper()
	var recs []*contract.ClassificationData
	err := r.Read(context.Background(), func(rec contract.Record) error {
		recs = append(recs, rec.(*contract.ClassificationData))
		return nil
	})
	require.NoError(t, err)
	return recs
}

func TestFromCsv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "data.csv")
	content := "id,review,sentiment\n1,great movie,pos\n2,terrible,neg\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	r := NewFromCsv()
	initPlugin(t, r, "-i", path, "--col_text", "review", "--col_label", "sentiment", "--col_id", "id")
	recs := collect(t, r)
	require.Len(t, recs, 2)
	assert.Equal(t, "great movie", recs[0].Text)
	assert.Equal(t, "pos", recs[0].Label)
	assert.Equal(t, "2", recs[1].GetMeta()["id"])
}

func TestFromCsvRequiresTextColumn(t *testing.T) {
	r := NewFromCsv()
	require.NoError(t, r.Flags().Parse([]string{"-i", "x.csv"}))
	assert.ErrorIs(t, r.Init(session.New("error")), contract.ErrInvalidOption)
}

func TestCsvRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out.csv")

	w := NewToCsv()
	initPlugin(t, w, "-o", path)
	sw := w.(contract.StreamWriter)
	require.NoError(t, sw.Write(&contract.ClassificationData{Text: "good, really", Label: "pos"}))
	require.NoError(t, w.Close())

	r := NewFromCsv()
	initPlugin(t, r, "-i", path, "--col_text", "text", "--col_label", "label")
	recs := collect(t, r)
	require.Len(t, recs, 1)
	assert.Equal(t, "good, really", recs[0].Text)
	assert.Equal(t, "pos", recs[0].Label)
}

func TestParquetRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out.parquet")

	w := NewToParquet()
	initPlugin(t, w, "-o", path)
	bw := w.(contract.BatchWriter)
	require.NoError(t, bw.WriteBatch([]contract.Record{
		&contract.ClassificationData{Text: "great movie", Label: "pos"},
		&contract.ClassificationData{Text: "terrible", Label: "neg"},
	}))
	require.NoError(t, w.Close())

	r := NewFromParquet()
	initPlugin(t, r, "-i", path)
	recs := collect(t, r)
	require.Len(t, recs, 2)
	assert.Equal(t, "great movie", recs[0].Text)
	assert.Equal(t, "pos", recs[0].Label)
	assert.Equal(t, "neg", recs[1].Label)
}

func TestJsonlinesRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out.jsonl")

	w := NewToJsonlines()
	initPlugin(t, w, "-o", path, "--att_id", "id")
	sw := w.(contract.StreamWriter)
	rec := &contract.ClassificationData{Text: "spam spam", Label: "spam"}
	rec.SetMeta(contract.Meta{"id": "m1"})
	require.NoError(t, sw.Write(rec))
	require.NoError(t, w.Close())

	r := NewFromJsonlines()
	initPlugin(t, r, "-i", path, "--att_id", "id")
	recs := collect(t, r)
	require.Len(t, recs, 1)
	assert.Equal(t, "spam spam", recs[0].Text)
	assert.Equal(t, "spam", recs[0].Label)
	assert.Equal(t, "m1", recs[0].GetMeta()["id"])
}

func TestFromJsonlinesCustomAttributes(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "data.jsonl")
	content := `{"body": "some text", "category": "news"}
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	r := NewFromJsonlines()
	initPlugin(t, r, "-i", path, "--att_text", "body", "--att_label", "category")
	recs := collect(t, r)
	require.Len(t, recs, 1)
	assert.Equal(t, "some text", recs[0].Text)
	assert.Equal(t, "news", recs[0].Label)
}
