// fanOut bounds the concurrency of chunked batch writes per §5.
// bbolt itself only allows one writable transaction at a time, so
// concurrent BoltStore calls from separate chunks serialize on its
// internal writer lock rather than truly parallelizing the commit; fanOut
// still bounds how many chunks are in flight and overlaps each chunk's
// own marshaling/validation work with the previous chunk's commit, which
// is where the real parallelism pays off against an embedded single-writer
// store.
package ingest

import "sync"

// chunkIndices splits n items into batches of at most size, the way
// INSERT_BATCH_SIZE bounds every parallel write (§5). size <= 0 is
// treated as "one chunk".
func chunkIndices(n, size int) [][2]int {
	if size <= 0 || size >= n {
		if n == 0 {
			return nil
		}
		return [][2]int{{0, n}}
	}
	var chunks [][2]int
	for start := 0; start < n; start += size {
		end := start + size
		if end > n {
			end = n
		}
		chunks = append(chunks, [2]int{start, end})
	}
	return chunks
}

// fanOut runs fn once per chunk of [0, n) of at most batchSize items,
// concurrently, and waits for all of them before returning — the bounded
// parallel task-set fan-out §5 requires ingestion to await before
// checkpointing. The first error from any chunk is returned; all chunks
// still run to completion (partial writes are safe because every write is
// insert-ignore-duplicates or idempotent-update, §5's shared-resource
// policy).
func fanOut(n, batchSize int, fn func(start, end int) error) error {
	chunks := chunkIndices(n, batchSize)
	if len(chunks) == 0 {
		return nil
	}

	var wg sync.WaitGroup
	errs := make([]error, len(chunks))
	for i, c := range chunks {
		wg.Add(1)
		go func(i int, start, end int) {
			defer wg.Done()
			errs[i] = fn(start, end)
		}(i, c[0], c[1])
	}
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}
