package pileup

import (
	"log"
	"sync"
	"time"

	"github.com/ngs-tools/hisat3n-table/internal"
)

// locker is the per-worker barrier primitive: not a critical section held
// against other aggregators (they run in parallel, each holding a
// different lock), but a handle the dispatcher can acquire in bulk to
// force quiescence before it mutates the window.
type locker struct {
	mu sync.Mutex
}

// Aggregator is one of the N worker threads that pull SAM lines, decode
// them, and merge their observations into the window.
type Aggregator struct {
	cfg      Config
	window   *Window
	pool     *positionPool
	linePool *SafeQueue[[]byte]
	decoder  Decoder
	lock     *locker
}

// NewAggregator returns a worker bound to lock, the window it indexes
// read-only, and the decoder it uses to parse lines.
func NewAggregator(cfg Config, window *Window, pool *positionPool, linePool *SafeQueue[[]byte], decoder Decoder, lock *locker) *Aggregator {
	return &Aggregator{cfg: cfg, window: window, pool: pool, linePool: linePool, decoder: decoder, lock: lock}
}

// Run pulls lines from linePool, merging their observations into the
// window, until the engine closes linePool (signaling that the dispatcher
// is done and every line has been drained).
func (a *Aggregator) Run() error {
	for {
		line, ok := a.linePool.WaitPopFront()
		if !ok {
			return nil
		}
		a.lock.mu.Lock()
		for a.window.Empty() {
			time.Sleep(time.Microsecond)
		}
		aln, err := a.decoder.Decode(line)
		internal.ReleaseByteBuffer(line)
		if err != nil {
			a.lock.mu.Unlock()
			return newError(DecoderError, err, "while decoding a SAM record")
		}
		if aln.Mapped && len(aln.Bases) > 0 {
			a.mergeAlignment(aln)
		}
		a.lock.mu.Unlock()
	}
}

// mergeAlignment merges every live observation of one alignment into the
// window, skipping removed observations and positions outside the
// configured strand of interest.
func (a *Aggregator) mergeAlignment(aln *Alignment) {
	base := a.window.IndexOf(int64(aln.Location))
	for _, obs := range aln.Bases {
		if obs.Remove {
			continue
		}
		index := base + int(obs.RefPos)
		p := a.window.At(index)
		if p.Location != int64(aln.Location)+int64(obs.RefPos) {
			log.Panicf("window position %d does not match alignment location %d + refPos %d", p.Location, aln.Location, obs.RefPos)
		}
		if p.Strand == '?' {
			continue
		}
		p.AppendBase(obs, aln.ReadNameID)
	}
}
