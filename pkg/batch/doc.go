// Package batch groups a lazily produced sequence into fixed-size chunks.
//
// Chunks are pulled from the source only as they are consumed, so an
// unbounded or streaming source never has to be held in memory:
//
//	for events := range batch.Chunk(source, 100) {
//	    // submit events...
//	}
//
// Chunk preserves order and the final chunk may be shorter than n.
package batch
