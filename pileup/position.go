package pileup

import (
	"sync"
	"time"
)

// uniqueIDEntry records one read's contribution to a Position, keyed by
// its readNameID so that a read that aligns here more than once (paired
// overlap, supplementary alignments) is only ever counted once.
type uniqueIDEntry struct {
	readNameID uint64
	isConverted bool
	quality     byte
	removed     bool
}

// Position holds the per-base tally of converted vs. unconverted
// observations at one reference coordinate.
type Position struct {
	mu sync.Mutex

	Chromosome string
	Location   int64 // 1-based
	Strand     byte  // '+', '-', or '?'

	convertedQualities   []byte
	unconvertedQualities []byte
	uniqueIDs            []uniqueIDEntry
}

// reset clears a Position back to its zero state so it can be recycled
// from the free pool.
func (p *Position) reset() {
	p.Chromosome = ""
	p.Location = -1
	p.Strand = '?'
	p.convertedQualities = p.convertedQualities[:0]
	p.unconvertedQualities = p.unconvertedQualities[:0]
	p.uniqueIDs = p.uniqueIDs[:0]
}

func (p *Position) set(chromosome string, location int64) {
	p.Chromosome = chromosome
	p.Location = location
	p.Strand = '?'
}

// Empty reports whether this Position carries no observations at all.
func (p *Position) Empty() bool {
	return len(p.convertedQualities) == 0 && len(p.unconvertedQualities) == 0
}

// ConvertedQualities returns the raw quality bytes of every surviving
// converted observation. The slice must not be retained past the
// Position's lifetime; the caller should copy it if needed.
func (p *Position) ConvertedQualities() []byte { return p.convertedQualities }

// UnconvertedQualities mirrors ConvertedQualities for unconverted votes.
func (p *Position) UnconvertedQualities() []byte { return p.unconvertedQualities }

// searchReadNameID returns the index at which readNameID is, or should be
// inserted to keep uniqueIDs sorted ascending by readNameID.
func (p *Position) searchReadNameID(readNameID uint64) int {
	lo, hi := 0, len(p.uniqueIDs)
	for lo < hi {
		mid := lo + (hi-lo)/2
		if p.uniqueIDs[mid].readNameID < readNameID {
			lo = mid + 1
		} else {
			hi = mid
		}
	}
	return lo
}

// AppendBase merges one observation from one read into this Position,
// implementing the dedup/conflict-retraction rules:
//
//   - absent: insert a new entry, and append its quality byte to the
//     matching (converted/unconverted) string;
//   - present and already removed: ignore;
//   - present with the same vote: ignore (idempotent repeat);
//   - present with a conflicting vote: mark the existing entry removed and
//     retract its quality byte; the new observation is not added either.
//
// obs.Remove must already be false; callers are expected to have skipped
// removed observations before calling AppendBase.
func (p *Position) AppendBase(obs Observation, readNameID uint64) {
	p.mu.Lock()
	defer p.mu.Unlock()

	index := p.searchReadNameID(readNameID)
	if index < len(p.uniqueIDs) && p.uniqueIDs[index].readNameID == readNameID {
		existing := &p.uniqueIDs[index]
		if existing.removed {
			return
		}
		if existing.isConverted == obs.Converted {
			return
		}
		existing.removed = true
		if existing.isConverted {
			p.convertedQualities = removeFirstByte(p.convertedQualities, existing.quality)
		} else {
			p.unconvertedQualities = removeFirstByte(p.unconvertedQualities, existing.quality)
		}
		return
	}

	entry := uniqueIDEntry{readNameID: readNameID, isConverted: obs.Converted, quality: obs.Qual}
	p.uniqueIDs = append(p.uniqueIDs, uniqueIDEntry{})
	copy(p.uniqueIDs[index+1:], p.uniqueIDs[index:])
	p.uniqueIDs[index] = entry

	if obs.Converted {
		p.convertedQualities = append(p.convertedQualities, obs.Qual)
	} else {
		p.unconvertedQualities = append(p.unconvertedQualities, obs.Qual)
	}
}

func removeFirstByte(s []byte, b byte) []byte {
	for i, c := range s {
		if c == b {
			return append(s[:i], s[i+1:]...)
		}
	}
	return s
}

// positionPool recycles *Position values to keep allocation off the hot
// path of window advances. outputGate, once set, makes get() block while
// the output queue is backed up, per the new-Position allocation
// backpressure threshold.
type positionPool struct {
	queue      *SafeQueue[*Position]
	outputGate *SafeQueue[*Position]
}

const positionPoolOutputGateCap = 10000

func newPositionPool() *positionPool {
	return &positionPool{queue: NewSafeQueue[*Position]()}
}

func (pool *positionPool) get() *Position {
	for pool.outputGate != nil && pool.outputGate.Len() >= positionPoolOutputGateCap {
		time.Sleep(time.Microsecond)
	}
	if p, ok := pool.queue.PopFront(); ok {
		return p
	}
	return &Position{Strand: '?', Location: -1}
}

func (pool *positionPool) put(p *Position) {
	p.reset()
	pool.queue.Push(p)
}
