package batch

import "iter"

// Chunk returns a sequence of consecutive slices of at most n items from seq.
// Each yielded slice is freshly allocated and owned by the consumer.
// Chunk panics if n < 1.
//
// The returned sequence is single-pass when seq is; ranging over it again
// re-ranges seq.
func Chunk[T any](seq iter.Seq[T], n int) iter.Seq[[]T] {
	if n < 1 {
		panic("batch: chunk size must be positive")
	}
	return func(yield func([]T) bool) {
		buf := make([]T, 0, n)
		for v := range seq {
			buf = append(buf, v)
			if len(buf) < n {
				continue
			}
			if !yield(buf) {
				return
			}
			buf = make([]T, 0, n)
		}
		if len(buf) > 0 {
			yield(buf)
		}
	}
}
