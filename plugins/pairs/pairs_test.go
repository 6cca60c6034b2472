package pairs

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

func collect(t *testing.T, r contract.Reader) []*contract.PairData {
	t.Helper()
	var recs []*contract.PairData
	err := r.Read(context.Background(), func(rec contract.Record) error {
		recs = append(recs, rec.(*contract.PairData))
		return nil
	})
	require.NoError(t, err)
	return recs
}

func TestFromAlpaca(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "data.json")
	content := `[
  {"instruction": "Define a function.", "input": "", "output": "def f(): pass"},
  {"instruction": "Sum two numbers.", "input": "1 2", "output": "3"}
]`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	r := NewFromAlpaca()
	initPlugin(t, r, "-i", path)
	recs := collect(t, r)
	require.Len(t, recs, 2)
	assert.Equal(t, "Define a function.", recs[0].Instruction)
	assert.Equal(t, "def f(): pass", recs[0].Output)
	assert.Equal(t, "1 2", recs[1].Input)
	assert.Equal(t, path, recs[0].GetMeta()["file"])
}

func TestFromAlpacaRejectsNonArray(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "data.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"instruction": "x"}`), 0o644))

	r := NewFromAlpaca()
	initPlugin(t, r, "-i", path)
	err := r.Read(context.Background(), func(contract.Record) error { return nil })
	assert.Error(t, err)
}

func TestToAlpacaRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out.json")

	w := NewToAlpaca()
	initPlugin(t, w, "-o", path)
	recs := []contract.Record{
		&contract.PairData{Instruction: "a", Output: "b"},
		&contract.PairData{Instruction: "c", Input: "d", Output: "e"},
	}
	require.NoError(t, w.(contract.BatchWriter).WriteBatch(recs))
	require.NoError(t, w.Close())

	r := NewFromAlpaca()
	initPlugin(t, r, "-i", path)
	got := collect(t, r)
	require.Len(t, got, 2)
	assert.Equal(t, "a", got[0].Instruction)
	assert.Equal(t, "d", got[1].Input)
}

func TestFromCsvHeader(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "data.csv")
	content := "id,prompt,response\n1,hello,world\n2,foo,bar\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	r := NewFromCsv()
	initPlugin(t, r, "-i", path, "--col_instruction", "prompt", "--col_output", "response", "--col_id", "id")
	recs := collect(t, r)
	require.Len(t, recs, 2)
	assert.Equal(t, "hello", recs[0].Instruction)
	assert.Equal(t, "world", recs[0].Output)
	assert.Equal(t, "2", recs[1].GetMeta()["id"])
}

func TestFromCsvNoHeader(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "data.csv")
	require.NoError(t, os.WriteFile(path, []byte("hello,world\nfoo,bar\n"), 0o644))

	r := NewFromCsv()
	initPlugin(t, r, "-i", path, "-n", "--col_instruction", "1", "--col_output", "2")
	recs := collect(t, r)
	require.Len(t, recs, 2)
	assert.Equal(t, "foo", recs[1].Instruction)
	assert.Equal(t, "bar", recs[1].Output)
}

func TestFromCsvRequiresDataColumn(t *testing.T) {
	r := NewFromCsv()
	require.NoError(t, r.Flags().Parse([]string{"-i", "x.csv"}))
	assert.ErrorIs(t, r.Init(session.New("error")), contract.ErrInvalidOption)
}

func TestFromTsv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "data.tsv")
	require.NoError(t, os.WriteFile(path, []byte("prompt\tresponse\nhi\tthere\n"), 0o644))

	r := NewFromTsv()
	initPlugin(t, r, "-i", path, "--col_instruction", "prompt", "--col_output", "response")
	recs := collect(t, r)
	require.Len(t, recs, 1)
	assert.Equal(t, "hi", recs[0].Instruction)
	assert.Equal(t, "there", recs[0].Output)
}

func TestToCsvWithIDColumn(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out.csv")

	w := NewToCsv()
	initPlugin(t, w, "-o", path, "--col_id", "id")
	sw := w.(contract.StreamWriter)

	rec := &contract.PairData{Instruction: "q", Input: "i", Output: "a"}
	rec.SetMeta(contract.Meta{"id": int64(7)})
	require.NoError(t, sw.Write(rec))
	require.NoError(t, w.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "id,instruction,input,output\n7,q,i,a\n", string(data))
}

func TestCsvRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out.csv")

	w := NewToCsv()
	initPlugin(t, w, "-o", path)
	sw := w.(contract.StreamWriter)
	require.NoError(t, sw.Write(&contract.PairData{Instruction: "has, comma", Output: "line\nbreak"}))
	require.NoError(t, w.Close())

	r := NewFromCsv()
	initPlugin(t, r, "-i", path, "--col_instruction", "instruction", "--col_output", "output")
	recs := collect(t, r)
	require.Len(t, recs, 1)
	assert.Equal(t, "has, comma", recs[0].Instruction)
	assert.Equal(t, "line\nbreak", recs[0].Output)
}

func TestJsonlinesRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out.jsonl")

	w := NewToJsonlines()
	initPlugin(t, w, "-o", path, "--att_id", "id")
	sw := w.(contract.StreamWriter)
	rec := &contract.PairData{Instruction: "q", Output: "a"}
	rec.SetMeta(contract.Meta{"id": "r1"})
	require.NoError(t, sw.Write(rec))
	require.NoError(t, sw.Write(&contract.PairData{Instruction: "q2", Output: "a2"}))
	require.NoError(t, w.Close())

	r := NewFromJsonlines()
	initPlugin(t, r, "-i", path, "--att_id", "id")
	recs := collect(t, r)
	require.Len(t, recs, 2)
	assert.Equal(t, "q", recs[0].Instruction)
	assert.Equal(t, "r1", recs[0].GetMeta()["id"])
	_, hasID := recs[1].GetMeta()["id"]
	assert.False(t, hasID)
}

func TestFromJsonlinesCustomAttributes(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "data.jsonl")
	content := `{"q": "question", "a": "answer", "lang": "en"}
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	r := NewFromJsonlines()
	initPlugin(t, r, "-i", path, "--att_instruction", "q", "--att_output", "a", "--att_meta", "lang")
	recs := collect(t, r)
	require.Len(t, recs, 1)
	assert.Equal(t, "question", recs[0].Instruction)
	assert.Equal(t, "answer", recs[0].Output)
	assert.Equal(t, "en", recs[0].GetMeta()["lang"])
}
