package louds

import (
	"bytes"
	"errors"
	"sort"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nestrie/codec"
	"nestrie/errutil"
)

// drainPrefix collects every key a common-prefix search emits, in order.
func drainPrefix(t *testing.T, f *Forest, query string) []string {
	t.Helper()
	a := NewAgent()
	a.SetQuery([]byte(query))
	var out []string
	for {
		ok, err := f.CommonPrefixSearch(a)
		require.NoError(t, err)
		if !ok {
			break
		}
		out = append(out, string(a.Key()))
	}
	return out
}

// drainPredictive collects every key a predictive search emits, in order.
func drainPredictive(t *testing.T, f *Forest, query string) []string {
	t.Helper()
	a := NewAgent()
	a.SetQuery([]byte(query))
	var out []string
	for {
		ok, err := f.PredictiveSearch(a)
		require.NoError(t, err)
		if !ok {
			break
		}
		out = append(out, string(a.Key()))
	}
	return out
}

func TestCommonPrefixSearch(t *testing.T) {
	for _, cfg := range configsUnderTest() {
		f, _ := mustBuild(t, appleKeys, cfg)

		assert.ElementsMatch(t, []string{"a", "app", "apple"}, drainPrefix(t, f, "apple"))
		assert.ElementsMatch(t, []string{"a", "app", "apple"}, drainPrefix(t, f, "apples"))
		assert.ElementsMatch(t, []string{"a", "app", "apply"}, drainPrefix(t, f, "apply"))
		assert.ElementsMatch(t, []string{"ban", "banana"}, drainPrefix(t, f, "bananas"))
		assert.Empty(t, drainPrefix(t, f, "zebra"))
		assert.Empty(t, drainPrefix(t, f, ""))

		// Shortest prefix always arrives first.
		got := drainPrefix(t, f, "application")
		require.Equal(t, []string{"a", "app", "application"}, got)
	}
}

func TestCommonPrefixSearchEmptyKey(t *testing.T) {
	f, _ := mustBuild(t, []string{"", "a"}, DefaultConfig())
	assert.Equal(t, []string{"", "a"}, drainPrefix(t, f, "a"))
	assert.Equal(t, []string{""}, drainPrefix(t, f, ""))
}

func TestPredictiveSearch(t *testing.T) {
	for _, cfg := range configsUnderTest() {
		f, _ := mustBuild(t, appleKeys, cfg)

		assert.ElementsMatch(t, []string{"app", "apple", "application", "apply"},
			drainPredictive(t, f, "app"))
		assert.ElementsMatch(t, []string{"a", "app", "apple", "application", "apply", "apt"},
			drainPredictive(t, f, "a"))
		assert.ElementsMatch(t, appleKeys, drainPredictive(t, f, ""))
		assert.ElementsMatch(t, []string{"apple", "application"}, drainPredictive(t, f, "appl")[0:2])
		assert.Empty(t, drainPredictive(t, f, "appz"))
		assert.Empty(t, drainPredictive(t, f, "bananas"))

		// A query ending inside a collapsed edge still finds the subtree.
		assert.ElementsMatch(t, []string{"banana"}, drainPredictive(t, f, "bana"))
	}
}

func TestPredictiveSearchLexOrder(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Order = LabelOrder
	f, _ := mustBuild(t, appleKeys, cfg)

	want := append([]string(nil), appleKeys...)
	sort.Strings(want)
	assert.Equal(t, want, drainPredictive(t, f, ""))
	assert.Equal(t, []string{"app", "apple", "application", "apply"}, drainPredictive(t, f, "app"))
}

func TestPredictiveSearchWeightOrder(t *testing.T) {
	// Heavier sibling subtrees must be enumerated first.
	keys := [][]byte{[]byte("ax"), []byte("by"), []byte("cz")}
	weights := []float32{1, 5, 3}
	cfg := DefaultConfig()
	cfg.Order = WeightOrder
	f, _, err := BuildForest(keys, weights, cfg)
	require.NoError(t, err)

	a := NewAgent()
	a.SetQuery(nil)
	var got []string
	for {
		ok, err := f.PredictiveSearch(a)
		require.NoError(t, err)
		if !ok {
			break
		}
		got = append(got, string(a.Key()))
	}
	assert.Equal(t, []string{"by", "cz", "ax"}, got)
}

func TestPredictiveSearchPrefixBeforeExtension(t *testing.T) {
	for _, cfg := range configsUnderTest() {
		f, _ := mustBuild(t, appleKeys, cfg)
		got := drainPredictive(t, f, "app")
		require.Equal(t, "app", got[0], "cfg=%+v", cfg)
		for i, k := range got {
			for _, later := range got[i+1:] {
				assert.False(t, strings.HasPrefix(k, later) && len(later) < len(k),
					"extension %q before its prefix %q", k, later)
			}
		}
	}
}

func TestAgentRejectsMixedQueryKinds(t *testing.T) {
	f, _ := mustBuild(t, appleKeys, DefaultConfig())

	a := NewAgent()
	a.SetQuery([]byte("app"))
	_, err := f.PredictiveSearch(a)
	require.NoError(t, err)

	_, err = f.CommonPrefixSearch(a)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errutil.ErrLogic))

	// Re-arming resets the kind.
	a.SetQuery([]byte("app"))
	_, err = f.CommonPrefixSearch(a)
	assert.NoError(t, err)
}

func TestReverseLookupOutOfRange(t *testing.T) {
	f, _ := mustBuild(t, appleKeys, DefaultConfig())
	a := NewAgent()
	a.SetQueryID(f.NumKeys())
	err := f.ReverseLookup(a)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errutil.ErrBound))
}

func TestForestRoundTrip(t *testing.T) {
	for _, cfg := range configsUnderTest() {
		orig, _ := mustBuild(t, appleKeys, cfg)

		var buf bytes.Buffer
		w := codec.NewWriter(&buf)
		require.NoError(t, orig.WriteTo(w))
		require.Equal(t, int64(orig.IOSize()), w.N())

		rd, err := ReadForest(codec.NewReader(bytes.NewReader(buf.Bytes())), cfg, orig.NumTries())
		require.NoError(t, err)

		mm, err := codec.NewMapper(buf.Bytes())
		require.NoError(t, err)
		mp, err := MapForest(mm, cfg, orig.NumTries())
		require.NoError(t, err)

		for _, f := range []*Forest{rd, mp} {
			require.Equal(t, orig.NumKeys(), f.NumKeys())
			require.Equal(t, orig.NumNodes(), f.NumNodes())
			assert.Equal(t, drainPredictive(t, orig, ""), drainPredictive(t, f, ""))
			assert.Equal(t, drainPrefix(t, orig, "application"), drainPrefix(t, f, "application"))
		}
	}
}

func TestReadForestRejectsCorruptLayers(t *testing.T) {
	cfg := DefaultConfig()
	orig, _ := mustBuild(t, appleKeys, cfg)

	var buf bytes.Buffer
	require.NoError(t, orig.WriteTo(codec.NewWriter(&buf)))

	// Truncations anywhere must surface as format errors, never panics.
	for cut := 0; cut < buf.Len(); cut += 64 {
		_, err := ReadForest(codec.NewReader(bytes.NewReader(buf.Bytes()[:cut])), cfg, orig.NumTries())
		require.Error(t, err, "cut=%d", cut)
		assert.True(t, errors.Is(err, errutil.ErrFormat), "cut=%d", cut)
	}
}
