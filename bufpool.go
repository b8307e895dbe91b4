package minpack

import "sync"

// chunkSize is the scratch buffer size used by TransferTo's chunked copy
// (copyThroughPool), the same default io.Copy uses internally.
const chunkSize = 32 * 1024

// chunkBufPool holds scratch []byte buffers for copying large binary/string
// payloads between a source and a sink when the destination does not expose
// io.ReaderFrom.
var chunkBufPool = sync.Pool{
	New: func() any {
		b := make([]byte, chunkSize)
		return &b
	},
}
