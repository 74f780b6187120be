package pileup

// Window is the sliding, contiguous sequence of reference Positions
// currently held in memory: appended to at the tail by the dispatcher as
// it materializes new reference bases, retired from the head as blocks
// are flushed, and indexed read-only by the aggregators.
type Window struct {
	positions    []*Position
	firstLoc     int64
	lastBase     byte
	chromosome   string
	pool         *positionPool
}

// NewWindow returns an empty window backed by the given free pool.
func NewWindow(pool *positionPool) *Window {
	return &Window{pool: pool, lastBase: 'X'}
}

// Len returns the number of positions currently held in the window.
func (w *Window) Len() int { return len(w.positions) }

// Empty reports whether the window currently holds no positions.
func (w *Window) Empty() bool { return len(w.positions) == 0 }

// FirstLocation returns the 1-based coordinate of the first position held
// in the window. Only valid when the window is non-empty.
func (w *Window) FirstLocation() int64 { return w.firstLoc }

// IndexOf maps a 1-based reference coordinate to its index in the window,
// in O(1), since the window is contiguous.
func (w *Window) IndexOf(location int64) int {
	return int(location - w.firstLoc)
}

// At returns the Position at the given window index.
func (w *Window) At(index int) *Position { return w.positions[index] }

// resetForChromosome clears the window's bookkeeping for the start of a
// new chromosome. The window itself must already be empty (the caller is
// expected to have retired everything first).
func (w *Window) resetForChromosome(chromosome string) {
	w.chromosome = chromosome
	w.lastBase = 'X'
	w.positions = w.positions[:0]
	w.firstLoc = 0
}

// AppendBase materializes one reference base at the tail of the window,
// assigning its strand of interest per the interest rule (single-base
// mode or CG_only), and returns the new location (1-based).
func (w *Window) AppendBase(cfg Config, location int64, base byte) int64 {
	p := w.pool.get()
	p.set(w.chromosome, location)

	if cfg.CGOnly {
		if w.lastBase == 'C' && base == 'G' {
			if len(w.positions) > 0 {
				w.positions[len(w.positions)-1].Strand = '+'
			}
			p.Strand = '-'
		}
	} else {
		switch base {
		case cfg.ConvertFrom:
			p.Strand = '+'
		case cfg.ConvertFromComplement:
			p.Strand = '-'
		}
	}

	if len(w.positions) == 0 {
		w.firstLoc = location
	}
	w.positions = append(w.positions, p)
	w.lastBase = base
	return location
}

// RetireUpTo drains every position with Location < upto from the head of
// the window, handing each to emit (the caller decides recycle vs.
// output). Positions are visited strictly in ascending coordinate order.
func (w *Window) RetireUpTo(upto int64, emit func(*Position)) {
	if len(w.positions) == 0 {
		return
	}
	index := 0
	for index < len(w.positions) && w.positions[index].Location < upto {
		emit(w.positions[index])
		index++
	}
	if index == 0 {
		return
	}
	w.positions = append(w.positions[:0], w.positions[index:]...)
	if len(w.positions) > 0 {
		w.firstLoc = w.positions[0].Location
	}
}

// RetireAll drains every position currently in the window, in order.
func (w *Window) RetireAll(emit func(*Position)) {
	for _, p := range w.positions {
		emit(p)
	}
	w.positions = w.positions[:0]
}
