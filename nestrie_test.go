package nestrie

import (
	"bytes"
	"errors"
	"math/rand"
	"path/filepath"
	"sort"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var appleKeys = []string{"a", "app", "apple", "application", "apply", "apt", "ban", "banana"}

func buildTrie(t *testing.T, keys []string, flags Flags) *Trie {
	t.Helper()
	ks := NewKeyset()
	ks.PermitEmpty(true)
	for _, k := range keys {
		require.NoError(t, ks.PushString(k))
	}
	trie := New()
	require.NoError(t, trie.Build(ks, flags))
	return trie
}

func lookupID(t *testing.T, trie *Trie, key string) (uint32, bool) {
	t.Helper()
	a := NewAgent()
	a.SetQuery([]byte(key))
	ok, err := trie.Lookup(a)
	require.NoError(t, err)
	return a.KeyID(), ok
}

func drainPrefix(t *testing.T, trie *Trie, query string) []string {
	t.Helper()
	a := NewAgent()
	a.SetQuery([]byte(query))
	var out []string
	for {
		ok, err := trie.CommonPrefixSearch(a)
		require.NoError(t, err)
		if !ok {
			return out
		}
		out = append(out, string(a.Key()))
	}
}

func drainPredictive(t *testing.T, trie *Trie, query string) []string {
	t.Helper()
	a := NewAgent()
	a.SetQuery([]byte(query))
	var out []string
	for {
		ok, err := trie.PredictiveSearch(a)
		require.NoError(t, err)
		if !ok {
			return out
		}
		out = append(out, string(a.Key()))
	}
}

func allFlagCombinations() []Flags {
	var out []Flags
	for n := MinNumTries; n <= MaxNumTries; n++ {
		for _, cache := range []Flags{TinyCache, SmallCache, NormalCache, LargeCache, HugeCache} {
			for _, tail := range []Flags{TextTail, BinaryTail} {
				for _, order := range []Flags{LabelOrder, WeightOrder} {
					out = append(out, NumTries(n)|cache|tail|order)
				}
			}
		}
	}
	return out
}

func TestEmptyKeysetScenario(t *testing.T) {
	trie := buildTrie(t, nil, Default)
	assert.Equal(t, 0, trie.NumKeys())
	assert.True(t, trie.Empty())

	_, found := lookupID(t, trie, "anything")
	assert.False(t, found)

	var buf bytes.Buffer
	_, err := trie.WriteTo(&buf)
	require.NoError(t, err)

	back := New()
	_, err = back.ReadFrom(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	assert.Equal(t, 0, back.NumKeys())
}

func TestAppleScenario(t *testing.T) {
	trie := buildTrie(t, appleKeys, Default)
	require.Equal(t, len(appleKeys), trie.NumKeys())

	assert.ElementsMatch(t, []string{"a", "app", "apple"}, drainPrefix(t, trie, "apple"))
	assert.ElementsMatch(t, []string{"app", "apple", "application", "apply"}, drainPredictive(t, trie, "app"))

	id, found := lookupID(t, trie, "banana")
	require.True(t, found)
	a := NewAgent()
	a.SetQueryID(id)
	require.NoError(t, trie.ReverseLookup(a))
	assert.Equal(t, "banana", string(a.Key()))
}

func TestEmptyKeyScenario(t *testing.T) {
	trie := buildTrie(t, []string{"", "a"}, Default)
	require.Equal(t, 2, trie.NumKeys())

	_, found := lookupID(t, trie, "")
	assert.True(t, found)
	assert.ElementsMatch(t, []string{"", "a"}, drainPrefix(t, trie, "a"))
}

func TestEmptyKeyRejectedByDefault(t *testing.T) {
	ks := NewKeyset()
	err := ks.PushString("")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidArgument))
}

func TestTextTailRejectsNULKey(t *testing.T) {
	ks := NewKeyset()
	require.NoError(t, ks.Push([]byte{0x61, 0x00, 0x62}))
	err := New().Build(ks, TextTail)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidArgument))
}

func TestInvalidFlags(t *testing.T) {
	ks := NewKeyset()
	require.NoError(t, ks.PushString("a"))

	for _, flags := range []Flags{
		NumTries(8),
		NumTries(127),
		1 << 16,
		TinyCache | HugeCache,
		TextTail | BinaryTail,
		LabelOrder | WeightOrder,
	} {
		err := New().Build(ks, flags)
		require.Error(t, err, "flags=%#x", uint32(flags))
		assert.True(t, errors.Is(err, ErrInvalidArgument), "flags=%#x", uint32(flags))
	}
}

func TestUnbuiltTrieFailsWithLogicError(t *testing.T) {
	trie := New()
	a := NewAgent()
	a.SetQuery([]byte("a"))
	_, err := trie.Lookup(a)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrLogic))

	_, err = trie.WriteTo(&bytes.Buffer{})
	assert.True(t, errors.Is(err, ErrLogic))
}

func TestKeysetIDAssignmentAndWeights(t *testing.T) {
	ks := NewKeyset()
	require.NoError(t, ks.PushWeighted([]byte("dup"), 2))
	require.NoError(t, ks.PushString("solo"))
	require.NoError(t, ks.PushWeighted([]byte("dup"), 3))

	trie := New()
	require.NoError(t, trie.Build(ks, Default))
	require.Equal(t, 2, trie.NumKeys())

	// Duplicates coalesce onto one id.
	assert.Equal(t, ks.At(0).ID(), ks.At(2).ID())
	assert.NotEqual(t, ks.At(0).ID(), ks.At(1).ID())

	id, found := lookupID(t, trie, "dup")
	require.True(t, found)
	assert.Equal(t, id, ks.At(0).ID())
}

func TestRoundTripAndMapEquivalence(t *testing.T) {
	for _, flags := range []Flags{Default, NumTries(1) | LabelOrder, NumTries(2) | TextTail, NumTries(5) | HugeCache} {
		orig := buildTrie(t, appleKeys, flags)

		var buf bytes.Buffer
		_, err := orig.WriteTo(&buf)
		require.NoError(t, err)
		require.Equal(t, orig.IOSize(), buf.Len())

		loaded := New()
		n, err := loaded.ReadFrom(bytes.NewReader(buf.Bytes()))
		require.NoError(t, err)
		require.Equal(t, int64(buf.Len()), n)

		mapped := New()
		require.NoError(t, mapped.Map(buf.Bytes()))

		for _, trie := range []*Trie{loaded, mapped} {
			require.Equal(t, orig.NumKeys(), trie.NumKeys())
			require.Equal(t, orig.NumNodes(), trie.NumNodes())
			require.Equal(t, orig.NumTries(), trie.NumTries())
			for _, k := range appleKeys {
				origID, ok := lookupID(t, orig, k)
				require.True(t, ok)
				id, ok := lookupID(t, trie, k)
				require.True(t, ok)
				require.Equal(t, origID, id)
			}
			assert.Equal(t, drainPredictive(t, orig, ""), drainPredictive(t, trie, ""))
			assert.Equal(t, drainPrefix(t, orig, "application"), drainPrefix(t, trie, "application"))

			sum, err := trie.Checksum()
			require.NoError(t, err)
			origSum, err := orig.Checksum()
			require.NoError(t, err)
			assert.Equal(t, origSum, sum)
		}
	}
}

func TestBuildIdempotence(t *testing.T) {
	a := buildTrie(t, appleKeys, Default)
	b := buildTrie(t, appleKeys, Default)

	var bufA, bufB bytes.Buffer
	_, err := a.WriteTo(&bufA)
	require.NoError(t, err)
	_, err = b.WriteTo(&bufB)
	require.NoError(t, err)
	require.True(t, bytes.Equal(bufA.Bytes(), bufB.Bytes()))

	sumA, err := a.Checksum()
	require.NoError(t, err)
	sumB, err := b.Checksum()
	require.NoError(t, err)
	assert.Equal(t, sumA, sumB)
}

func TestReadRejectsForeignMagic(t *testing.T) {
	orig := buildTrie(t, appleKeys, Default)
	var buf bytes.Buffer
	_, err := orig.WriteTo(&buf)
	require.NoError(t, err)

	data := append([]byte(nil), buf.Bytes()...)
	copy(data, "notatrie")
	_, err = New().ReadFrom(bytes.NewReader(data))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrFormat))

	err = New().Map(data)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrFormat))
}

func TestSaveLoadMmap(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "keys.trie")

	orig := buildTrie(t, appleKeys, Default)
	require.NoError(t, orig.Save(path))

	loaded := New()
	require.NoError(t, loaded.Load(path))
	assert.Equal(t, len(appleKeys), loaded.NumKeys())

	mapped := New()
	require.NoError(t, mapped.Mmap(path))
	defer mapped.Close()
	assert.Equal(t, len(appleKeys), mapped.NumKeys())
	assert.Equal(t, drainPredictive(t, loaded, ""), drainPredictive(t, mapped, ""))

	require.NoError(t, mapped.Close())
	_, err := mapped.Lookup(NewAgent())
	assert.True(t, errors.Is(err, ErrLogic))
}

// referenceModel answers common-prefix and predictive queries by brute force.
type referenceModel struct {
	keys []string
}

func (m *referenceModel) prefixesOf(q string) []string {
	var out []string
	for _, k := range m.keys {
		if strings.HasPrefix(q, k) {
			out = append(out, k)
		}
	}
	return out
}

func (m *referenceModel) extensionsOf(q string) []string {
	var out []string
	for _, k := range m.keys {
		if strings.HasPrefix(k, q) {
			out = append(out, k)
		}
	}
	return out
}

func TestAllConfigCombinations(t *testing.T) {
	keys := []string{
		"", "a", "ab", "abc", "abcdefghij", "abd", "ba", "bad", "badge", "badges",
		"c", "cascade", "cascades", "cascading", "zzzzzzzzzzzzzzzzzzzz",
	}
	model := &referenceModel{keys: keys}

	for _, flags := range allFlagCombinations() {
		trie := buildTrie(t, keys, flags)
		require.Equal(t, len(keys), trie.NumKeys(), "flags=%#x", uint32(flags))

		seen := make(map[uint32]string)
		for _, k := range keys {
			id, found := lookupID(t, trie, k)
			require.True(t, found, "flags=%#x key=%q", uint32(flags), k)
			require.Less(t, int(id), len(keys))
			_, dup := seen[id]
			require.False(t, dup)
			seen[id] = k
		}
		for id, k := range seen {
			a := NewAgent()
			a.SetQueryID(id)
			require.NoError(t, trie.ReverseLookup(a))
			require.Equal(t, k, string(a.Key()), "flags=%#x", uint32(flags))
		}
		for _, miss := range []string{"abcd", "bb", "cascad", "z"} {
			_, found := lookupID(t, trie, miss)
			require.False(t, found, "flags=%#x key=%q", uint32(flags), miss)
		}
		for _, q := range []string{"", "a", "abc", "abcdefghij", "badger", "cascades", "zz"} {
			require.ElementsMatch(t, model.prefixesOf(q), drainPrefix(t, trie, q), "flags=%#x q=%q", uint32(flags), q)
			require.ElementsMatch(t, model.extensionsOf(q), drainPredictive(t, trie, q), "flags=%#x q=%q", uint32(flags), q)
		}
	}
}

func TestLexicographicPredictiveOrder(t *testing.T) {
	keys := append([]string(nil), appleKeys...)
	trie := buildTrie(t, keys, LabelOrder)

	want := append([]string(nil), keys...)
	sort.Strings(want)
	assert.Equal(t, want, drainPredictive(t, trie, ""))
}

func TestRandomKeysBijection(t *testing.T) {
	n := 100000
	if testing.Short() {
		n = 5000
	}
	r := rand.New(rand.NewSource(1234))

	ks := NewKeyset()
	uniq := make(map[string]struct{}, n)
	for i := 0; i < n; i++ {
		k := make([]byte, 1+r.Intn(32))
		for j := range k {
			k[j] = byte(r.Intn(256))
		}
		uniq[string(k)] = struct{}{}
		require.NoError(t, ks.Push(k))
	}

	trie := New()
	require.NoError(t, trie.Build(ks, Default))
	require.Equal(t, len(uniq), trie.NumKeys())

	a := NewAgent()
	for k := range uniq {
		a.SetQuery([]byte(k))
		ok, err := trie.Lookup(a)
		require.NoError(t, err)
		require.True(t, ok, "key %x", k)
	}
	for id := 0; id < trie.NumKeys(); id++ {
		a.SetQueryID(uint32(id))
		require.NoError(t, trie.ReverseLookup(a))
		key := append([]byte(nil), a.Key()...)
		a2 := NewAgent()
		a2.SetQuery(key)
		ok, err := trie.Lookup(a2)
		require.NoError(t, err)
		require.True(t, ok)
		require.Equal(t, uint32(id), a2.KeyID())
	}
}

func TestReverseLookupOutOfRange(t *testing.T) {
	trie := buildTrie(t, appleKeys, Default)
	a := NewAgent()
	a.SetQueryID(uint32(trie.NumKeys()))
	err := trie.ReverseLookup(a)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrBound))
}

func TestIntrospection(t *testing.T) {
	trie := buildTrie(t, appleKeys, NumTries(2)|TextTail|LabelOrder)
	assert.Equal(t, 2, trie.NumTries())
	assert.Equal(t, TailMode(0).String(), trie.TailMode().String())
	assert.Equal(t, "label", trie.NodeOrder().String())
	assert.Equal(t, len(appleKeys), trie.Size())
	assert.Greater(t, trie.TotalSize(), 0)
	assert.Greater(t, trie.IOSize(), 0)

	rep := trie.MemReport()
	assert.Equal(t, "trie", rep.Name)
	assert.Len(t, rep.Children, trie.NumTries())
	assert.Greater(t, rep.TotalBytes, 0)
}
