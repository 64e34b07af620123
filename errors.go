package nestrie

import "nestrie/errutil"

// Error kinds, matchable with errors.Is on anything the API returns.
var (
	// ErrInvalidArgument flags bad configuration or rejected inputs.
	ErrInvalidArgument = errutil.ErrInvalidArgument
	// ErrLogic flags misuse, such as querying an unbuilt trie.
	ErrLogic = errutil.ErrLogic
	// ErrIO wraps failures of the underlying source or sink.
	ErrIO = errutil.ErrIO
	// ErrFormat flags a malformed or truncated serialized frame.
	ErrFormat = errutil.ErrFormat
	// ErrBound flags an out-of-range key length or key id.
	ErrBound = errutil.ErrBound
	// ErrRange flags integer overflow in sizing computations.
	ErrRange = errutil.ErrRange
)
