package registry

import (
	"context"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"llmdc/pkg/contract"
	"llmdc/pkg/session"
)

type stubFilter struct{ name string }

func (s *stubFilter) Name() string                        { return s.name }
func (s *stubFilter) Description() string                 { return "stub" }
func (s *stubFilter) Flags() *pflag.FlagSet               { return pflag.NewFlagSet(s.name, pflag.ContinueOnError) }
func (s *stubFilter) Init(*session.Session) error         { return nil }
func (s *stubFilter) Accepts() []contract.Domain          { return []contract.Domain{contract.DomainAny} }
func (s *stubFilter) Generates() []contract.Domain        { return []contract.Domain{contract.DomainAny} }
func (s *stubFilter) Process(r contract.Record) ([]contract.Record, error) {
	return []contract.Record{r}, nil
}
func (s *stubFilter) Finalize() error { return nil }

type stubReader struct{ stubFilter }

func (s *stubReader) Read(context.Context, func(contract.Record) error) error { return nil }

// TestResolveAndList 注册后可解析；List 按字母序。
func TestResolveAndList(t *testing.T) {
	RegisterFilter("zz-filter", func() contract.Filter { return &stubFilter{name: "zz-filter"} })
	RegisterFilter("aa-filter", func() contract.Filter { return &stubFilter{name: "aa-filter"} })
	RegisterReader("rd", func() contract.Reader { return &stubReader{stubFilter{name: "rd"}} })

	f, err := Filter("aa-filter")
	require.NoError(t, err)
	assert.Equal(t, "aa-filter", f().Name())

	names := List(CategoryFilter)
	require.GreaterOrEqual(t, len(names), 2)
	assert.Less(t, indexOf(names, "aa-filter"), indexOf(names, "zz-filter"))

	assert.True(t, IsFilter("aa-filter"))
	assert.True(t, IsReader("rd"))
	assert.False(t, IsWriter("aa-filter"))
}

// TestUnknownPlugin 未注册名返回 ErrPluginNotFound。
func TestUnknownPlugin(t *testing.T) {
	_, err := Filter("no-such-plugin")
	assert.ErrorIs(t, err, contract.ErrPluginNotFound)
	_, err = Reader("no-such-plugin")
	assert.ErrorIs(t, err, contract.ErrPluginNotFound)
	_, err = Writer("no-such-plugin")
	assert.ErrorIs(t, err, contract.ErrPluginNotFound)
	_, err = Downloader("no-such-plugin")
	assert.ErrorIs(t, err, contract.ErrPluginNotFound)
}

// TestExclusion 屏蔽表命中的插件对解析与枚举均不可见。
func TestExclusion(t *testing.T) {
	RegisterFilter("to-hide", func() contract.Filter { return &stubFilter{name: "to-hide"} })
	excluded["to-hide"] = struct{}{}
	defer delete(excluded, "to-hide")

	_, err := Filter("to-hide")
	assert.ErrorIs(t, err, contract.ErrPluginNotFound)
	assert.NotContains(t, List(CategoryFilter), "to-hide")
	assert.NotContains(t, AllNames(), "to-hide")
}

// TestOverwrite 重名注册后注册者生效。
func TestOverwrite(t *testing.T) {
	RegisterFilter("dup", func() contract.Filter { return &stubFilter{name: "first"} })
	RegisterFilter("dup", func() contract.Filter { return &stubFilter{name: "second"} })
	f, err := Filter("dup")
	require.NoError(t, err)
	assert.Equal(t, "second", f().Name())
}

func indexOf(s []string, v string) int {
	for i, x := range s {
		if x == v {
			return i
		}
	}
	return -1
}
