package nestrie

import (
	"nestrie/errutil"
	"nestrie/louds"
	"nestrie/tailstore"
	"nestrie/utils"
)

// Agent is the reusable query cursor; see louds.Agent. One agent serves one
// goroutine, while any number of agents may query the same built Trie
// concurrently.
type Agent = louds.Agent

// NewAgent returns an empty agent.
func NewAgent() *Agent {
	return louds.NewAgent()
}

// TailMode and NodeOrder mirror the corresponding configuration groups.
type (
	TailMode  = tailstore.Mode
	NodeOrder = louds.NodeOrder
)

// Trie is the user-facing container. Zero value is unbuilt: every query
// fails with a logic error until Build, ReadFrom, Map, Load or Mmap
// succeeds. A built trie is immutable and safe for concurrent queries.
type Trie struct {
	forest  *louds.Forest
	mapping []byte // mmapped region owned by this trie, if any
}

func New() *Trie {
	return &Trie{}
}

// Build replaces the trie contents with a trie over the keyset. On failure
// the previous contents survive untouched. Build also assigns the resulting
// key id to every keyset entry.
func (t *Trie) Build(ks *Keyset, flags Flags) error {
	if ks == nil {
		return errutil.Wrap(errutil.ErrInvalidArgument, "nil keyset")
	}
	cfg, err := parseFlags(flags)
	if err != nil {
		return err
	}

	keys, weights, slot := ks.flatten()
	forest, ids, err := louds.BuildForest(keys, weights, cfg)
	if err != nil {
		return err
	}

	for i := range ks.keys {
		ks.keys[i].id = ids[slot[i]]
	}
	t.replace(forest, nil)
	return nil
}

// replace installs a new forest and releases any previous mapping.
func (t *Trie) replace(f *louds.Forest, mapping []byte) {
	if t.mapping != nil {
		_ = munmap(t.mapping)
	}
	t.forest = f
	t.mapping = mapping
}

func (t *Trie) built() error {
	if t.forest == nil {
		return errutil.Wrap(errutil.ErrLogic, "trie is not built or loaded")
	}
	return nil
}

// Lookup reports whether the agent's query is a key, storing the key id on
// the agent.
func (t *Trie) Lookup(a *Agent) (bool, error) {
	if err := t.built(); err != nil {
		return false, err
	}
	return t.forest.Lookup(a)
}

// ReverseLookup restores the key bytes for the agent's key id.
func (t *Trie) ReverseLookup(a *Agent) error {
	if err := t.built(); err != nil {
		return err
	}
	return t.forest.ReverseLookup(a)
}

// CommonPrefixSearch emits, one per call, every key that is a prefix of the
// agent's query; false means the stream is exhausted.
func (t *Trie) CommonPrefixSearch(a *Agent) (bool, error) {
	if err := t.built(); err != nil {
		return false, err
	}
	return t.forest.CommonPrefixSearch(a)
}

// PredictiveSearch emits, one per call, every key the agent's query is a
// prefix of; false means the stream is exhausted.
func (t *Trie) PredictiveSearch(a *Agent) (bool, error) {
	if err := t.built(); err != nil {
		return false, err
	}
	return t.forest.PredictiveSearch(a)
}

// NumTries returns the number of trie layers actually built.
func (t *Trie) NumTries() int {
	if t.forest == nil {
		return 0
	}
	return t.forest.NumTries()
}

// NumKeys returns the number of keys.
func (t *Trie) NumKeys() int {
	if t.forest == nil {
		return 0
	}
	return int(t.forest.NumKeys())
}

// NumNodes returns the node count summed over all layers.
func (t *Trie) NumNodes() int {
	if t.forest == nil {
		return 0
	}
	return int(t.forest.NumNodes())
}

func (t *Trie) TailMode() TailMode {
	if t.forest == nil {
		return tailstore.BinaryMode
	}
	return t.forest.TailMode()
}

func (t *Trie) NodeOrder() NodeOrder {
	if t.forest == nil {
		return louds.WeightOrder
	}
	return t.forest.NodeOrder()
}

// Empty reports whether the trie holds no keys.
func (t *Trie) Empty() bool {
	return t.forest == nil || t.forest.NumKeys() == 0
}

// Size returns the number of keys, as a container length.
func (t *Trie) Size() int { return t.NumKeys() }

// TotalSize returns the in-memory footprint in bytes.
func (t *Trie) TotalSize() int {
	if t.forest == nil {
		return 0
	}
	return t.forest.TotalSize()
}

// MemReport breaks TotalSize down per layer.
func (t *Trie) MemReport() utils.MemReport {
	if t.forest == nil {
		return utils.MemReport{Name: "trie"}
	}
	return t.forest.MemReport()
}
