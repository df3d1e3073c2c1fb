package xdpdesc

import "errors"

// ErrExceedsChunkSize is returned by SetAddrAndLength (and the mutators
// that compose onto it) when offset+length would run past the chunk
// boundary. Per spec.md §7 the descriptor is left unchanged on this error.
var ErrExceedsChunkSize = errors.New("xdpdesc: offset+length exceeds chunk size")
