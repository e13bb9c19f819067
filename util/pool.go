package util

import "sync"

// ReadChunkSize is the size of a single device read.  Frames are a few
// bytes long, so one chunk usually carries several of them.
const ReadChunkSize = 256

// ChunkPool provides reusable read chunks for the serial read chain.
// A chunk travels from the reading goroutine to the reactor and is
// returned once its bytes have been appended to the receive buffer.
var ChunkPool = sync.Pool{
	New: func() interface{} {
		buf := make([]byte, ReadChunkSize)
		return &buf
	},
}

// GetChunk retrieves a chunk from the pool.  Callers must return it
// with [PutChunk] when finished.
func GetChunk() *[]byte {
	return ChunkPool.Get().(*[]byte)
}

// PutChunk returns a chunk to the pool for reuse.
func PutChunk(buf *[]byte) {
	if buf == nil {
		return
	}
	*buf = (*buf)[:cap(*buf)]
	ChunkPool.Put(buf)
}
