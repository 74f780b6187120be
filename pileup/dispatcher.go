package pileup

import (
	"time"

	"github.com/ngs-tools/hisat3n-table/fasta"
	"github.com/ngs-tools/hisat3n-table/internal"
)

// backpressure thresholds, named per the resource model: linePool's soft
// cap scales with worker count; outputPool is gated at two thresholds,
// one for new-Position allocation (in positionPool.get in position.go,
// gated on outputPool by NewEngine in engine.go)
// and one for the chromosome/block flush drain below.
const (
	linePoolSoftCapPerThread = 1000
	outputPoolDrainGate      = 100000
)

// Dispatcher is the single thread that mmap-scans the sorted SAM input,
// enforces sort order, advances the reference window, and enqueues lines
// for the aggregator workers.
type Dispatcher struct {
	cfg         Config
	refMap      *fasta.ReferenceMap
	window      *Window
	pool        *positionPool
	linePool    *SafeQueue[[]byte]
	outputPool  *SafeQueue[*Position]
	workerLocks []*locker

	refOffset        int64 // byte offset into the mmapped reference
	refPos           int64 // 0-based count of bases materialized in the current chromosome
	refCoveredTarget int64
}

// NewDispatcher wires a Dispatcher against the shared window, pools, and
// per-worker locks the engine constructed.
func NewDispatcher(cfg Config, refMap *fasta.ReferenceMap, window *Window, pool *positionPool, linePool *SafeQueue[[]byte], outputPool *SafeQueue[*Position], workerLocks []*locker) *Dispatcher {
	return &Dispatcher{
		cfg:         cfg,
		refMap:      refMap,
		window:      window,
		pool:        pool,
		linePool:    linePool,
		outputPool:  outputPool,
		workerLocks: workerLocks,
	}
}

// barrier acquires and releases every worker's lock in sequence, forcing
// any in-flight aggregation to complete, and blocking new aggregation from
// starting until the barrier itself has passed.
func (d *Dispatcher) barrier() {
	for _, lock := range d.workerLocks {
		lock.mu.Lock()
		lock.mu.Unlock()
	}
}

func (d *Dispatcher) drainAndBarrier() {
	for !d.linePool.Empty() || d.outputPool.Len() > outputPoolDrainGate {
		time.Sleep(time.Microsecond)
	}
	d.barrier()
}

// Run scans the mmapped SAM file at samPath, classifies each record,
// advances the window as needed, and pushes accepted lines onto linePool.
// It returns an *Error (InputNotSortedError, UnknownChromosomeError, or
// IOError) on a broken input contract.
func (d *Dispatcher) Run(samPath string) error {
	data, closeSAM, err := mmapFile(samPath)
	if err != nil {
		return newError(IOError, err, "cannot open alignment file "+samPath)
	}
	defer closeSAM()

	var currentChromosome string
	var reloadPos, lastPos int64
	n := int64(len(data))
	var offset int64

	for offset < n {
		lineStart := offset
		for offset < n && data[offset] != '\n' {
			offset++
		}
		line := data[lineStart:offset]
		if offset < n {
			offset++
		}
		if len(line) == 0 || line[0] == '@' {
			continue
		}

		rname, pos, ok := extractRNamePos(line)
		if !ok {
			continue
		}

		for d.linePool.Len() > linePoolSoftCapPerThread*d.cfg.NThreads {
			time.Sleep(time.Microsecond)
		}

		if rname != currentChromosome {
			d.drainAndBarrier()
			d.moveAllToOutput()
			if err := d.loadNewChromosome(rname); err != nil {
				return err
			}
			currentChromosome = rname
			reloadPos = d.cfg.LoadingBlockSize
			lastPos = 0
		}

		for pos > reloadPos {
			d.drainAndBarrier()
			d.moveBlockToOutput()
			d.loadMore()
			reloadPos += d.cfg.LoadingBlockSize
		}

		if pos < lastPos {
			return newErrorf(InputNotSortedError, "alignment file is not sorted: position %d follows %d on %v", pos, lastPos, rname)
		}

		buf := internal.ReserveByteBuffer()
		buf = append(buf, line...)
		d.linePool.Push(buf)
		lastPos = pos
	}

	for !d.linePool.Empty() {
		time.Sleep(100 * time.Microsecond)
	}
	d.barrier()
	d.moveAllToOutput()
	return nil
}

// extractRNamePos reads SAM fields 3 (RNAME) and 4 (POS) out of a record
// line without splitting the whole line into fields. ok is false when the
// record is unmapped to any reference ("*").
func extractRNamePos(line []byte) (rname string, pos int64, ok bool) {
	field := 0
	start := 0
	for i := 0; i <= len(line); i++ {
		if i == len(line) || line[i] == '\t' {
			switch field {
			case 2:
				rname = string(line[start:i])
				if rname == "*" {
					return "", 0, false
				}
			case 3:
				pos = parsePositiveInt(line[start:i])
				return rname, pos, true
			}
			field++
			start = i + 1
		}
	}
	return "", 0, false
}

func parsePositiveInt(b []byte) int64 {
	var n int64
	for _, c := range b {
		if c < '0' || c > '9' {
			return n
		}
		n = n*10 + int64(c-'0')
	}
	return n
}

// loadNewChromosome seeks the reference map to rname and materializes
// bases into a freshly reset window until at least 2*loadingBlockSize
// bases are covered or the chromosome ends.
func (d *Dispatcher) loadNewChromosome(rname string) error {
	offset, err := d.refMap.Seek(rname)
	if err != nil {
		return newError(UnknownChromosomeError, err, "while switching to chromosome "+rname)
	}
	d.refOffset = offset
	d.refPos = 0
	d.refCoveredTarget = 2 * d.cfg.LoadingBlockSize
	d.window.resetForChromosome(rname)
	d.materialize()
	return nil
}

// loadMore extends the coverage target by one more block and materializes
// bases up to it.
func (d *Dispatcher) loadMore() {
	d.refCoveredTarget += d.cfg.LoadingBlockSize
	d.materialize()
}

// materialize reads reference lines forward from refOffset, appending
// bases to the window until refPos reaches refCoveredTarget or the next
// chromosome header (or EOF) is reached.
func (d *Dispatcher) materialize() {
	for d.refPos < d.refCoveredTarget {
		line, ok := d.refMap.ReadLine(&d.refOffset)
		if !ok {
			return
		}
		if len(line) == 0 {
			continue
		}
		if line[0] == '>' {
			return
		}
		for _, b := range line {
			d.refPos++
			d.window.AppendBase(d.cfg, d.refPos, toUpperBase(b))
		}
	}
}

func toUpperBase(b byte) byte {
	if b >= 'a' && b <= 'z' {
		return b - ('a' - 'A')
	}
	return b
}

// moveBlockToOutput retires every position older than the current block
// (i.e. everything below refCoveredTarget-loadingBlockSize), recycling
// empty/uninteresting positions and pushing the rest to the writer.
func (d *Dispatcher) moveBlockToOutput() {
	upto := d.refCoveredTarget - d.cfg.LoadingBlockSize
	d.window.RetireUpTo(upto, d.emit)
}

// moveAllToOutput retires the entire window, e.g. at a chromosome switch
// or end of input.
func (d *Dispatcher) moveAllToOutput() {
	d.window.RetireAll(d.emit)
}

func (d *Dispatcher) emit(p *Position) {
	if p.Empty() || p.Strand == '?' {
		d.pool.put(p)
		return
	}
	d.outputPool.Push(p)
}
