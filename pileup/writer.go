package pileup

import (
	"bufio"
	"io"
	"strconv"
)

// Writer is the single thread that drains the output queue and emits one
// TSV row per finalized Position.
type Writer struct {
	out        io.Writer
	outputPool *SafeQueue[*Position]
	pool       *positionPool
}

// NewWriter returns a Writer that formats Positions popped from
// outputPool onto out, recycling each through pool once written.
func NewWriter(out io.Writer, outputPool *SafeQueue[*Position], pool *positionPool) *Writer {
	return &Writer{out: out, outputPool: outputPool, pool: pool}
}

// Header is the single TSV header row emitted before any data row.
const Header = "ref\tpos\tstrand\tconvertedBaseQualities\tconvertedBaseCount\tunconvertedBaseQualities\tunconvertedBaseCount\n"

// Run writes the header, then drains outputPool until the engine closes
// it (signaling that the dispatcher is done and every Position has been
// retired), formatting one row per Position.
func (w *Writer) Run() error {
	bw := bufio.NewWriterSize(w.out, 1<<20)
	if _, err := bw.WriteString(Header); err != nil {
		return newError(IOError, err, "while writing TSV header")
	}

	var buf []byte
	for {
		p, ok := w.outputPool.WaitPopFront()
		if !ok {
			break
		}
		buf = formatPosition(buf[:0], p)
		if _, err := bw.Write(buf); err != nil {
			return newError(IOError, err, "while writing a TSV row")
		}
		w.pool.put(p)
	}
	if err := bw.Flush(); err != nil {
		return newError(IOError, err, "while flushing TSV output")
	}
	return nil
}

func formatPosition(buf []byte, p *Position) []byte {
	buf = append(buf, p.Chromosome...)
	buf = append(buf, '\t')
	buf = strconv.AppendInt(buf, p.Location, 10)
	buf = append(buf, '\t')
	buf = append(buf, p.Strand)
	buf = append(buf, '\t')
	buf = append(buf, p.convertedQualities...)
	buf = append(buf, '\t')
	buf = strconv.AppendInt(buf, int64(len(p.convertedQualities)), 10)
	buf = append(buf, '\t')
	buf = append(buf, p.unconvertedQualities...)
	buf = append(buf, '\t')
	buf = strconv.AppendInt(buf, int64(len(p.unconvertedQualities)), 10)
	buf = append(buf, '\n')
	return buf
}
