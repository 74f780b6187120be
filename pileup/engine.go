package pileup

import (
	"io"
	"sync"

	"github.com/ngs-tools/hisat3n-table/fasta"
)

// Engine wires the reference map, window, pools, dispatcher, aggregators,
// and writer together and drives one end-to-end run: SAM bytes in, TSV
// rows out.
type Engine struct {
	cfg     Config
	refMap  *fasta.ReferenceMap
	decoder Decoder
	out     io.Writer

	window      *Window
	pool        *positionPool
	linePool    *SafeQueue[[]byte]
	outputPool  *SafeQueue[*Position]
	workerLocks []*locker
}

// NewEngine builds an Engine ready to run against samPath, using refMap as
// the already-opened Reference Map and decoder as the alignment decoder.
func NewEngine(cfg Config, refMap *fasta.ReferenceMap, decoder Decoder, out io.Writer) *Engine {
	pool := newPositionPool()
	outputPool := NewSafeQueue[*Position]()
	pool.outputGate = outputPool

	workerLocks := make([]*locker, cfg.NThreads)
	for i := range workerLocks {
		workerLocks[i] = &locker{}
	}

	return &Engine{
		cfg:         cfg,
		refMap:      refMap,
		decoder:     decoder,
		out:         out,
		window:      NewWindow(pool),
		pool:        pool,
		linePool:    NewSafeQueue[[]byte](),
		outputPool:  outputPool,
		workerLocks: workerLocks,
	}
}

// Run starts the aggregator workers and writer, runs the dispatcher over
// samPath on the calling goroutine, and waits for every worker to drain
// before returning. It returns the first error encountered by any stage.
func (e *Engine) Run(samPath string) error {
	var wg sync.WaitGroup
	errs := make(chan error, e.cfg.NThreads+1)

	for i := 0; i < e.cfg.NThreads; i++ {
		agg := NewAggregator(e.cfg, e.window, e.pool, e.linePool, e.decoder, e.workerLocks[i])
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := agg.Run(); err != nil {
				errs <- err
			}
		}()
	}

	writer := NewWriter(e.out, e.outputPool, e.pool)
	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := writer.Run(); err != nil {
			errs <- err
		}
	}()

	dispatcher := NewDispatcher(e.cfg, e.refMap, e.window, e.pool, e.linePool, e.outputPool, e.workerLocks)
	dispatchErr := dispatcher.Run(samPath)

	// When Run returns without error the dispatcher has already drained
	// linePool and retired every Position to outputPool; an error return
	// skips that drain and flush. Closing both queues lets every
	// aggregator and the writer pop what is still queued and then exit.
	e.linePool.Close()
	e.outputPool.Close()
	wg.Wait()
	close(errs)

	if dispatchErr != nil {
		return dispatchErr
	}
	for err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}
