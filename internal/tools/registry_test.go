package tools

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newNamedTool(name string) Tool {
	return New(name, "desc "+name, nil, func(context.Context, Args) (string, error) {
		return name, nil
	})
}

func TestRegistry_RegisterAndGet(t *testing.T) {
	reg := NewRegistry()
	reg.Register(newNamedTool("alpha"))

	tool, ok := reg.Get("alpha")
	require.True(t, ok)
	assert.Equal(t, "alpha", tool.Name())

	_, ok = reg.Get("missing")
	assert.False(t, ok)
}

func TestRegistry_ListPreservesOrder(t *testing.T) {
	reg := NewRegistry()
	reg.Register(newNamedTool("c"))
	reg.Register(newNamedTool("a"))
	reg.Register(newNamedTool("b"))

	assert.Equal(t, []string{"c", "a", "b"}, reg.List())
}

func TestRegistry_ReregisterKeepsPosition(t *testing.T) {
	reg := NewRegistry()
	reg.Register(newNamedTool("a"))
	reg.Register(newNamedTool("b"))
	reg.Register(newNamedTool("a"))

	assert.Equal(t, []string{"a", "b"}, reg.List())
}

func TestRegistry_Definitions(t *testing.T) {
	reg := NewRegistry()
	reg.Register(newNamedTool("quote"))

	defs := reg.Definitions()
	require.Len(t, defs, 1)
	assert.Equal(t, "function", defs[0].Type)
	assert.Equal(t, "quote", defs[0].Function.Name)
	assert.Equal(t, "desc quote", defs[0].Function.Description)
	assert.NotNil(t, defs[0].Function.Parameters)
}

func TestRegistry_Subset(t *testing.T) {
	reg := NewRegistry()
	reg.Register(newNamedTool("a"))
	reg.Register(newNamedTool("b"))
	reg.Register(newNamedTool("c"))

	sub := reg.Subset("c", "a", "missing")
	assert.Equal(t, []string{"c", "a"}, sub.List())
}

func TestArgs_Accessors(t *testing.T) {
	args := Args{
		"name":  "茅台",
		"limit": float64(7),
		"exact": 3,
	}

	assert.Equal(t, "茅台", args.String("name", "x"))
	assert.Equal(t, "x", args.String("missing", "x"))
	assert.Equal(t, 7, args.Int("limit", 0))
	assert.Equal(t, 3, args.Int("exact", 0))
	assert.Equal(t, 9, args.Int("missing", 9))
}

func TestFunctionTool_NilHandler(t *testing.T) {
	tool := &FunctionTool{name: "empty"}
	_, err := tool.Execute(context.Background(), nil)
	assert.Error(t, err)
}
