// Package fasta memory-maps a FASTA reference file and indexes the byte
// offset of every chromosome's sequence, so that the pileup dispatcher can
// seek directly to a chromosome and stream its bases forward without ever
// loading the whole genome into the Go heap.
package fasta

import (
	"sort"
	"strings"
	"unicode"

	psort "github.com/exascience/pargo/sort"
	"github.com/pkg/errors"
	"golang.org/x/sys/unix"

	"github.com/ngs-tools/hisat3n-table/internal"
)

// ChrNamePolicy rewrites chromosome names read from the FASTA header so
// that they line up with the names used in the SAM input.
type ChrNamePolicy int

const (
	// AsIs leaves header names unchanged.
	AsIs ChrNamePolicy = iota
	// StripChr removes a leading "chr" from header names.
	StripChr
	// PrependChr adds a leading "chr" to header names that lack one.
	PrependChr
)

func (policy ChrNamePolicy) apply(name string) string {
	switch policy {
	case StripChr:
		if strings.HasPrefix(name, "chr") {
			return name[3:]
		}
	case PrependChr:
		if !strings.HasPrefix(name, "chr") {
			return "chr" + name
		}
	}
	return name
}

type chromOffset struct {
	name   string
	offset int64
}

// chromOffsetSorter adapts a []chromOffset slice to pargo's parallel
// stable sort, the same StableSorter shape elprep uses for AlignmentSorter.
type chromOffsetSorter []chromOffset

func (s chromOffsetSorter) SequentialSort(i, j int) {
	entries := s[i:j]
	sort.SliceStable(entries, func(i, j int) bool { return entries[i].name < entries[j].name })
}

func (s chromOffsetSorter) NewTemp() psort.StableSorter {
	return make(chromOffsetSorter, len(s))
}

func (s chromOffsetSorter) Len() int { return len(s) }

func (s chromOffsetSorter) Less(i, j int) bool { return s[i].name < s[j].name }

func (s chromOffsetSorter) Assign(p psort.StableSorter) func(i, j, len int) {
	dst, src := s, p.(chromOffsetSorter)
	return func(i, j, len int) {
		copy(dst[i:i+len], src[j:j+len])
	}
}

// ReferenceMap memory-maps a FASTA file and provides O(log n) seeking to
// the start of any chromosome's sequence data, plus a forward line reader
// anchored at an arbitrary byte offset.
type ReferenceMap struct {
	data   []byte
	fd     int
	index  chromOffsetSorter
	policy ChrNamePolicy
}

// Open mmaps path read-only and builds the chromosome index with a single
// forward scan over the mapped bytes.
func Open(path string, policy ChrNamePolicy) (*ReferenceMap, error) {
	f := internal.FileOpen(path)
	defer internal.Close(f)

	stat, err := f.Stat()
	if err != nil {
		return nil, errors.Wrapf(err, "cannot stat reference file %v", path)
	}
	size := stat.Size()
	if size == 0 {
		return nil, errors.Errorf("reference file %v is empty", path)
	}
	data, err := unix.Mmap(int(f.Fd()), 0, int(size), unix.PROT_READ, unix.MAP_SHARED)
	if err != nil {
		return nil, errors.Wrapf(err, "cannot mmap reference file %v", path)
	}

	rm := &ReferenceMap{data: data, policy: policy}
	rm.buildIndex()
	return rm, nil
}

func (rm *ReferenceMap) buildIndex() {
	data := rm.data
	var offset int64
	n := int64(len(data))
	for offset < n {
		lineStart := offset
		for offset < n && data[offset] != '\n' {
			offset++
		}
		if offset < n {
			offset++ // consume trailing '\n'
		}
		if lineStart < n && data[lineStart] == '>' {
			name := rm.policy.apply(headerName(data[lineStart:offset]))
			rm.index = append(rm.index, chromOffset{name: name, offset: offset})
		}
	}
	psort.StableSort(rm.index)
}

// headerName extracts the name token from a ">name description..." header
// line, excluding the leading '>' and trailing newline.
func headerName(line []byte) string {
	i := 1
	for i < len(line) && !unicode.IsSpace(rune(line[i])) {
		i++
	}
	return string(line[1:i])
}

// Seek returns the byte offset of the first sequence line of the named
// chromosome.
func (rm *ReferenceMap) Seek(name string) (int64, error) {
	i := sort.Search(len(rm.index), func(i int) bool { return rm.index[i].name >= name })
	if i >= len(rm.index) || rm.index[i].name != name {
		return 0, errors.Errorf("unknown chromosome %v in reference", name)
	}
	return rm.index[i].offset, nil
}

// ReadLine returns the next newline-delimited line starting at *offset and
// advances *offset past the trailing newline. ok is false once there is no
// more data (end of file).
func (rm *ReferenceMap) ReadLine(offset *int64) (line []byte, ok bool) {
	data := rm.data
	n := int64(len(data))
	if *offset >= n {
		return nil, false
	}
	start := *offset
	end := start
	for end < n && data[end] != '\n' {
		end++
	}
	line = data[start:end]
	if end < n {
		end++
	}
	*offset = end
	return line, true
}

// Close munmaps the reference file.
func (rm *ReferenceMap) Close() error {
	data := rm.data
	rm.data = nil
	if data == nil {
		return nil
	}
	return unix.Munmap(data)
}
