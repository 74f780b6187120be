package decoder

import "fmt"

// fieldScanner walks the tab-separated fields of a single SAM record
// without allocating a []string, mirroring the style of elprep's
// StringScanner but specialized for the fixed SAM column layout.
type fieldScanner struct {
	data  []byte
	index int
	err   error
}

func newFieldScanner(line []byte) fieldScanner {
	return fieldScanner{data: line}
}

func (sc *fieldScanner) next() (field []byte, ok bool) {
	if sc.err != nil {
		return nil, false
	}
	start := sc.index
	for i := start; i < len(sc.data); i++ {
		if sc.data[i] == '\t' {
			sc.index = i + 1
			return sc.data[start:i], true
		}
	}
	sc.index = len(sc.data)
	if start >= len(sc.data) {
		return nil, false
	}
	return sc.data[start:], true
}

func (sc *fieldScanner) require(name string) []byte {
	field, ok := sc.next()
	if !ok && sc.err == nil {
		sc.err = fmt.Errorf("missing SAM field %v", name)
	}
	return field
}
