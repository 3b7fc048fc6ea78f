package systems

import (
	"runtime"
	"sync"
)

// parallelThreshold is the minimum item count to use the worker pool.
// Below this, single-threaded is faster due to goroutine overhead.
const parallelThreshold = 1024

// ChunkFunc processes items [start, end). slot is unique per chunk within one
// dispatch and smaller than Pool.Slots(), so it can index per-chunk scratch.
type ChunkFunc func(start, end, slot int)

// workChunk represents a range of items for a worker to process.
type workChunk struct {
	start, end, slot int
	fn               ChunkFunc
}

// Pool is a persistent set of worker goroutines that runs one data-parallel
// dispatch at a time. Items within a dispatch must be independent.
// Dispatch and Stop are called from a single goroutine.
type Pool struct {
	numWorkers int

	workChan chan workChunk // sends work to workers
	doneChan chan struct{}  // workers signal completion
	stopChan chan struct{}  // signals workers to exit
	wg       sync.WaitGroup // tracks active workers
	running  bool           // true if workers are running
}

// NewPool creates a pool. numWorkers <= 0 uses GOMAXPROCS.
// Workers start lazily on the first parallel dispatch.
func NewPool(numWorkers int) *Pool {
	if numWorkers <= 0 {
		numWorkers = runtime.GOMAXPROCS(0)
	}
	return &Pool{numWorkers: numWorkers}
}

// Slots returns the upper bound (exclusive) of slot indices passed to a ChunkFunc.
func (p *Pool) Slots() int {
	return p.numWorkers
}

// Dispatch runs fn over [0, n) and returns once every chunk has completed,
// so all writes made by fn are visible to the caller.
func (p *Pool) Dispatch(n int, fn ChunkFunc) {
	if n <= 0 {
		return
	}
	if n < parallelThreshold || p.numWorkers == 1 {
		fn(0, n, 0)
		return
	}

	if !p.running {
		p.start()
	}

	chunkSize := (n + p.numWorkers - 1) / p.numWorkers

	chunksDispatched := 0
	for w := 0; w < p.numWorkers; w++ {
		start := w * chunkSize
		end := start + chunkSize
		if end > n {
			end = n
		}
		if start >= end {
			continue
		}

		p.workChan <- workChunk{start: start, end: end, slot: w, fn: fn}
		chunksDispatched++
	}

	// Wait for all chunks to complete
	for i := 0; i < chunksDispatched; i++ {
		<-p.doneChan
	}
}

// start launches persistent worker goroutines.
func (p *Pool) start() {
	p.workChan = make(chan workChunk, p.numWorkers)
	p.doneChan = make(chan struct{}, p.numWorkers)
	p.stopChan = make(chan struct{})
	p.running = true

	for i := 0; i < p.numWorkers; i++ {
		p.wg.Add(1)
		go p.worker()
	}
}

// worker runs in a goroutine, processing chunks until stopped.
func (p *Pool) worker() {
	defer p.wg.Done()

	for {
		select {
		case <-p.stopChan:
			return
		case chunk, ok := <-p.workChan:
			if !ok {
				return
			}
			chunk.fn(chunk.start, chunk.end, chunk.slot)
			p.doneChan <- struct{}{}
		}
	}
}

// Stop signals all workers to exit and waits for them.
// A later Dispatch restarts the workers.
func (p *Pool) Stop() {
	if !p.running {
		return
	}

	close(p.stopChan)
	p.wg.Wait()
	close(p.workChan)
	close(p.doneChan)
	p.running = false
}
