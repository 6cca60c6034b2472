package cli

import (
	"bytes"
	"context"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"llmdc/pkg/contract"
	"llmdc/pkg/registry"
	"llmdc/pkg/session"
)

type stubBase struct {
	name string
	opt  string
	fs   *pflag.FlagSet
}

func (s *stubBase) Name() string        { return s.name }
func (s *stubBase) Description() string { return "stub plugin" }
func (s *stubBase) Flags() *pflag.FlagSet {
	if s.fs == nil {
		s.fs = pflag.NewFlagSet(s.name, pflag.ContinueOnError)
		s.fs.StringVarP(&s.opt, "opt", "x", "", "test option")
	}
	return s.fs
}
func (s *stubBase) Init(*session.Session) error { return nil }

type stubReader struct{ stubBase }

func (r *stubReader) Generates() []contract.Domain { return []contract.Domain{contract.DomainPairs} }
func (r *stubReader) Read(context.Context, func(contract.Record) error) error {
	return nil
}

type stubFilter struct{ stubBase }

func (f *stubFilter) Accepts() []contract.Domain   { return []contract.Domain{contract.DomainAny} }
func (f *stubFilter) Generates() []contract.Domain { return []contract.Domain{contract.DomainAny} }
func (f *stubFilter) Process(r contract.Record) ([]contract.Record, error) {
	return []contract.Record{r}, nil
}
func (f *stubFilter) Finalize() error { return nil }

type stubWriter struct{ stubBase }

func (w *stubWriter) Accepts() []contract.Domain     { return []contract.Domain{contract.DomainAny} }
func (w *stubWriter) Write(contract.Record) error    { return nil }
func (w *stubWriter) Close() error                   { return nil }

func init() {
	registry.RegisterReader("stub-reader", func() contract.Reader { return &stubReader{stubBase{name: "stub-reader"}} })
	registry.RegisterFilter("stub-filter", func() contract.Filter { return &stubFilter{stubBase{name: "stub-filter"}} })
	registry.RegisterWriter("stub-writer", func() contract.Writer { return &stubWriter{stubBase{name: "stub-writer"}} })
}

func TestSplitArgs(t *testing.T) {
	global, groups := SplitArgs([]string{
		"-l", "info",
		"stub-reader", "-x", "a",
		"stub-filter",
		"stub-writer", "-x", "b",
	})
	assert.Equal(t, []string{"-l", "info"}, global)
	require.Len(t, groups, 3)
	assert.Equal(t, Group{Name: "stub-reader", Args: []string{"-x", "a"}}, groups[0])
	assert.Equal(t, Group{Name: "stub-filter"}, groups[1])
	assert.Equal(t, Group{Name: "stub-writer", Args: []string{"-x", "b"}}, groups[2])
}

func TestSplitArgsNoPlugins(t *testing.T) {
	global, groups := SplitArgs([]string{"-h"})
	assert.Equal(t, []string{"-h"}, global)
	assert.Empty(t, groups)
}

func TestShellSplit(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want []string
	}{
		{"plain", "a b c", []string{"a", "b", "c"}},
		{"double quotes", `filter -k "two words"`, []string{"filter", "-k", "two words"}},
		{"single quotes", "filter -k 'two words'", []string{"filter", "-k", "two words"}},
		{"escape", `a\ b c`, []string{"a b", "c"}},
		{"empty quoted", `a "" b`, []string{"a", "", "b"}},
		{"collapsed whitespace", "a \t  b", []string{"a", "b"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ShellSplit(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestShellSplitErrors(t *testing.T) {
	_, err := ShellSplit(`a "unterminated`)
	assert.Error(t, err)
	_, err = ShellSplit(`trailing \`)
	assert.Error(t, err)
}

func TestParseGlobals(t *testing.T) {
	g, sess, err := ParseGlobals([]string{"-l", "debug", "-c", "gz", "-u", "50", "-b"})
	require.NoError(t, err)
	assert.Equal(t, "debug", g.LogLevel)
	assert.Equal(t, session.CompressionGzip, sess.Compression)
	assert.Equal(t, 50, sess.UpdateInterval)
	assert.True(t, sess.ForceBatch)
}

func TestParseGlobalsDefaults(t *testing.T) {
	_, sess, err := ParseGlobals(nil)
	require.NoError(t, err)
	assert.Equal(t, session.CompressionNone, sess.Compression)
	assert.Equal(t, 1000, sess.UpdateInterval)
	assert.False(t, sess.ForceBatch)
}

func TestParseGlobalsErrors(t *testing.T) {
	_, _, err := ParseGlobals([]string{"-c", "rar"})
	assert.ErrorIs(t, err, contract.ErrInvalidOption)

	// 残留位置参数视为未知插件名。
	_, _, err = ParseGlobals([]string{"no-such-plugin"})
	assert.ErrorIs(t, err, contract.ErrPluginNotFound)
}

func TestBuild(t *testing.T) {
	sess := session.New("error")
	c, err := Build(sess, []Group{
		{Name: "stub-reader", Args: []string{"-x", "a"}},
		{Name: "stub-filter"},
		{Name: "stub-writer"},
	})
	require.NoError(t, err)
	assert.Equal(t, "stub-reader", c.Reader.Name())
	require.Len(t, c.Filters, 1)
	assert.Equal(t, "stub-writer", c.Writer.Name())
}

func TestBuildErrors(t *testing.T) {
	sess := session.New("error")

	_, err := Build(sess, nil)
	assert.ErrorIs(t, err, contract.ErrInvalidOption)

	// 首组必须是读取器。
	_, err = Build(sess, []Group{{Name: "stub-filter"}})
	assert.ErrorIs(t, err, contract.ErrInvalidOption)

	// 写出器后不得再有过滤器。
	_, err = Build(sess, []Group{
		{Name: "stub-reader"},
		{Name: "stub-writer"},
		{Name: "stub-filter"},
	})
	assert.ErrorIs(t, err, contract.ErrInvalidOption)

	// 组内未知参数硬失败。
	_, err = Build(sess, []Group{
		{Name: "stub-reader", Args: []string{"--bogus"}},
	})
	assert.ErrorIs(t, err, contract.ErrInvalidOption)

	// 组内残留位置参数同样硬失败。
	_, err = Build(sess, []Group{
		{Name: "stub-reader", Args: []string{"stray"}},
	})
	assert.ErrorIs(t, err, contract.ErrInvalidOption)
}

func TestBuildSubFlow(t *testing.T) {
	sess := session.New("error")

	filters, writer, err := BuildSubFlow(sess, "stub-filter -x a stub-writer", true)
	require.NoError(t, err)
	require.Len(t, filters, 1)
	require.NotNil(t, writer)
	assert.Equal(t, "stub-writer", writer.Name())

	// 写出器可选。
	filters, writer, err = BuildSubFlow(sess, "stub-filter", true)
	require.NoError(t, err)
	assert.Len(t, filters, 1)
	assert.Nil(t, writer)
}

func TestBuildSubFlowErrors(t *testing.T) {
	sess := session.New("error")

	_, _, err := BuildSubFlow(sess, "", true)
	assert.ErrorIs(t, err, contract.ErrInvalidOption)

	_, _, err = BuildSubFlow(sess, "stub-reader", true)
	assert.ErrorIs(t, err, contract.ErrInvalidOption)

	_, _, err = BuildSubFlow(sess, "stub-filter stub-writer", false)
	assert.ErrorIs(t, err, contract.ErrInvalidOption)

	_, _, err = BuildSubFlow(sess, "-x leading stub-filter", true)
	assert.ErrorIs(t, err, contract.ErrInvalidOption)
}

func TestUsageAndPluginHelp(t *testing.T) {
	var buf bytes.Buffer
	Usage(&buf)
	assert.Contains(t, buf.String(), "stub-reader")

	buf.Reset()
	require.NoError(t, PluginHelp(&buf, "stub-filter"))
	assert.Contains(t, buf.String(), "test option")

	err := PluginHelp(&buf, "no-such-plugin")
	assert.ErrorIs(t, err, contract.ErrPluginNotFound)
}
