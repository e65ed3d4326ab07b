package expand

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/gopsh/shcore/shellapi"
)

func litResult(t *testing.T, store *shellapi.MapStore, src string) (string, error) {
	t.Helper()
	cfg := newTestConfig(store)
	w := wordArg(t, src, 1)
	return Literal(context.Background(), cfg, w)
}

func TestParamOpColonMinusUsesDefaultWhenUnset(t *testing.T) {
	store := shellapi.NewMapStore("s", nil)
	got, err := litResult(t, store, `echo "${missing:-fallback}"`)
	require.NoError(t, err)
	require.Equal(t, "fallback", got)
}

func TestParamOpColonMinusUsesDefaultWhenNull(t *testing.T) {
	store := shellapi.NewMapStore("s", nil, "empty=")
	got, err := litResult(t, store, `echo "${empty:-fallback}"`)
	require.NoError(t, err)
	require.Equal(t, "fallback", got)
}

func TestParamOpMinusKeepsNullValue(t *testing.T) {
	store := shellapi.NewMapStore("s", nil, "empty=")
	got, err := litResult(t, store, `echo "${empty-fallback}"`)
	require.NoError(t, err)
	require.Equal(t, "", got)
}

func TestParamOpColonAssignSetsVariable(t *testing.T) {
	store := shellapi.NewMapStore("s", nil)
	got, err := litResult(t, store, `echo "${missing:=defaulted}"`)
	require.NoError(t, err)
	require.Equal(t, "defaulted", got)
	require.Equal(t, "defaulted", store.Get("missing").Scalar())
}

func TestParamOpColonQuestionErrorsWhenUnset(t *testing.T) {
	store := shellapi.NewMapStore("s", nil)
	_, err := litResult(t, store, `echo "${missing:?must be set}"`)
	require.Error(t, err)
	require.Contains(t, err.Error(), "must be set")
}

func TestParamOpColonPlusUsesAltWhenSet(t *testing.T) {
	store := shellapi.NewMapStore("s", nil, "foo=bar")
	got, err := litResult(t, store, `echo "${foo:+replacement}"`)
	require.NoError(t, err)
	require.Equal(t, "replacement", got)
}

func TestParamLength(t *testing.T) {
	store := shellapi.NewMapStore("s", nil, "foo=hello")
	got, err := litResult(t, store, `echo "${#foo}"`)
	require.NoError(t, err)
	require.Equal(t, "5", got)
}

func TestParamRemoveShortestPrefix(t *testing.T) {
	store := shellapi.NewMapStore("s", nil, "path=/a/b/c")
	got, err := litResult(t, store, `echo "${path#*/}"`)
	require.NoError(t, err)
	require.Equal(t, "a/b/c", got)
}

func TestParamRemoveLongestPrefix(t *testing.T) {
	store := shellapi.NewMapStore("s", nil, "path=/a/b/c")
	got, err := litResult(t, store, `echo "${path##*/}"`)
	require.NoError(t, err)
	require.Equal(t, "c", got)
}

func TestParamRemoveShortestSuffix(t *testing.T) {
	store := shellapi.NewMapStore("s", nil, "path=/a/b/c")
	got, err := litResult(t, store, `echo "${path%/*}"`)
	require.NoError(t, err)
	require.Equal(t, "/a/b", got)
}

func TestParamRemoveLongestSuffix(t *testing.T) {
	store := shellapi.NewMapStore("s", nil, "path=/a/b/c")
	got, err := litResult(t, store, `echo "${path%%/*}"`)
	require.NoError(t, err)
	require.Equal(t, "", got)
}

func TestParamUpperAll(t *testing.T) {
	store := shellapi.NewMapStore("s", nil, "foo=hello")
	got, err := litResult(t, store, `echo "${foo^^}"`)
	require.NoError(t, err)
	require.Equal(t, "HELLO", got)
}

func TestParamLowerFirst(t *testing.T) {
	store := shellapi.NewMapStore("s", nil, "foo=HELLO")
	got, err := litResult(t, store, `echo "${foo,}"`)
	require.NoError(t, err)
	require.Equal(t, "hELLO", got)
}

func TestParamLowerAll(t *testing.T) {
	store := shellapi.NewMapStore("s", nil, "foo=HELLO")
	got, err := litResult(t, store, `echo "${foo,,}"`)
	require.NoError(t, err)
	require.Equal(t, "hello", got)
}

func TestParamSlice(t *testing.T) {
	store := shellapi.NewMapStore("s", nil, "foo=abcdefgh")
	got, err := litResult(t, store, `echo "${foo:2:3}"`)
	require.NoError(t, err)
	require.Equal(t, "cde", got)
}

func TestParamSliceNegativeOffset(t *testing.T) {
	store := shellapi.NewMapStore("s", nil, "foo=abcdefgh")
	got, err := litResult(t, store, `echo "${foo: -3}"`)
	require.NoError(t, err)
	require.Equal(t, "fgh", got)
}

func TestParamReplaceFirst(t *testing.T) {
	store := shellapi.NewMapStore("s", nil, "foo=foobarfoo")
	got, err := litResult(t, store, `echo "${foo/foo/baz}"`)
	require.NoError(t, err)
	require.Equal(t, "bazbarfoo", got)
}

func TestParamReplaceAll(t *testing.T) {
	store := shellapi.NewMapStore("s", nil, "foo=foobarfoo")
	got, err := litResult(t, store, `echo "${foo//foo/baz}"`)
	require.NoError(t, err)
	require.Equal(t, "bazbarbaz", got)
}

func TestParamIndirect(t *testing.T) {
	store := shellapi.NewMapStore("s", nil, "ref=target", "target=value")
	got, err := litResult(t, store, `echo "${!ref}"`)
	require.NoError(t, err)
	require.Equal(t, "value", got)
}

func TestParamNamesWithPrefix(t *testing.T) {
	store := shellapi.NewMapStore("s", nil, "FOO_A=1", "FOO_B=2")
	got, err := litResult(t, store, `echo "${!FOO_*}"`)
	require.NoError(t, err)
	require.Equal(t, "FOO_A FOO_B", got)
}
