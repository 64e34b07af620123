package louds

// queryMode tags which query kind an armed agent is serving; enumeration
// calls of a different kind on the same agent are a logic error.
type queryMode int

const (
	modeNone queryMode = iota
	modeLookup
	modeReverse
	modePrefix
	modePredictive
)

type agentState int

const (
	stateFresh agentState = iota
	stateWalking
	stateEmitting
	stateExhausted
)

// frame is one suspended position of a predictive traversal: a node still to
// visit and the key length of its parent path.
type frame struct {
	node   uint32
	keyLen uint32
}

// Agent is a single-owner query cursor. It carries the query, the result,
// and every piece of per-query state, so distinct agents can hit the same
// trie from different goroutines.
type Agent struct {
	query   []byte // borrowed from the caller
	queryID uint32

	key   []byte // result bytes; may alias query or keyBuf
	keyID uint32

	mode  queryMode
	state agentState

	// common-prefix cursor
	node         uint32
	depth        uint32
	skipTerminal bool

	// predictive frontier
	frames []frame

	// scratch, reused across calls
	keyBuf   []byte
	labelBuf []byte
	path     []uint32
}

func NewAgent() *Agent {
	return &Agent{}
}

// SetQuery arms the agent with key bytes for lookup, common-prefix or
// predictive search. The slice is borrowed, not copied.
func (a *Agent) SetQuery(query []byte) {
	a.query = query
	a.reset()
}

// SetQueryID arms the agent with a key id for reverse lookup.
func (a *Agent) SetQueryID(id uint32) {
	a.queryID = id
	a.query = nil
	a.reset()
}

func (a *Agent) reset() {
	a.key = nil
	a.keyID = 0
	a.mode = modeNone
	a.state = stateFresh
	a.node = 0
	a.depth = 0
	a.skipTerminal = false
	a.frames = a.frames[:0]
	a.keyBuf = a.keyBuf[:0]
}

// Key returns the key bytes of the last successful query. The slice is only
// valid until the next call on this agent.
func (a *Agent) Key() []byte { return a.key }

// KeyID returns the key id of the last successful query.
func (a *Agent) KeyID() uint32 { return a.keyID }

// Query returns the bytes the agent was armed with.
func (a *Agent) Query() []byte { return a.query }

// arm records the query kind on first use and rejects kind switches without
// a new SetQuery/SetQueryID.
func (a *Agent) arm(m queryMode) bool {
	if a.mode == modeNone {
		a.mode = m
	}
	return a.mode == m
}
