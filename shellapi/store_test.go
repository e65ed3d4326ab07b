package shellapi

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMapStoreGetSet(t *testing.T) {
	s := NewMapStore("myscript", []string{"one", "two"}, "FOO=bar")

	require.Equal(t, "bar", s.Get("FOO").Scalar())
	require.False(t, s.Get("MISSING").IsSet())

	require.NoError(t, s.Set("BAZ", Variable{Set: true, Kind: String, Str: "qux"}))
	require.Equal(t, "qux", s.Get("BAZ").Scalar())
}

func TestMapStoreReadOnly(t *testing.T) {
	s := NewMapStore("myscript", nil)
	require.NoError(t, s.Set("RO", Variable{Set: true, ReadOnly: true, Kind: String, Str: "1"}))
	err := s.Set("RO", Variable{Set: true, Kind: String, Str: "2"})
	require.Error(t, err)
}

func TestMapStorePositional(t *testing.T) {
	s := NewMapStore("myscript", []string{"a", "b", "c"})

	arg0, ok := s.Positional(0)
	require.True(t, ok)
	require.Equal(t, "myscript", arg0)

	arg2, ok := s.Positional(2)
	require.True(t, ok)
	require.Equal(t, "b", arg2)

	_, ok = s.Positional(4)
	require.False(t, ok)

	require.Equal(t, 3, s.PositionalCount())
	require.Equal(t, []string{"a", "b", "c"}, s.AllPositional())
}

func TestMapStoreArrayElement(t *testing.T) {
	s := NewMapStore("myscript", nil)
	require.NoError(t, s.Set("arr", Variable{Set: true, Kind: Indexed, List: []string{"x", "y", "z"}}))

	v, ok := s.GetArrayElement("arr", "1")
	require.True(t, ok)
	require.Equal(t, "y", v)

	_, ok = s.GetArrayElement("arr", "9")
	require.False(t, ok)

	require.NoError(t, s.Set("assoc", Variable{Set: true, Kind: Associative, Map: map[string]string{"k": "v"}}))
	v, ok = s.GetArrayElement("assoc", "k")
	require.True(t, ok)
	require.Equal(t, "v", v)
}

func TestMapStoreNamesWithPrefix(t *testing.T) {
	s := NewMapStore("myscript", nil, "FOO_A=1", "FOO_B=2", "BAR=3")
	require.Equal(t, []string{"FOO_A", "FOO_B"}, s.NamesWithPrefix("FOO_"))
}

func TestMapFunctionTable(t *testing.T) {
	ft := NewMapFunctionTable()
	_, ok := ft.Get("greet")
	require.False(t, ok)

	ft.Set("greet", nil)
	_, ok = ft.Get("greet")
	require.True(t, ok)
}
