package pileup

// Observation is one read base aligned against a single reference
// position, as produced by the alignment decoder.
type Observation struct {
	RefPos    int32 // 0-based offset from Alignment.Location
	Qual      byte
	Converted bool
	Remove    bool
}

// Alignment is the decoded form of one SAM record, as produced by the
// alignment decoder.
type Alignment struct {
	Mapped     bool
	Chromosome string
	Location   int32 // 1-based leftmost reference base covered
	Bases      []Observation
	ReadNameID uint64
}

// Decoder parses a raw SAM line into an Alignment. The core treats it as
// an external, swappable collaborator: it never inspects CIGAR/MD/SEQ
// itself.
type Decoder interface {
	Decode(line []byte) (*Alignment, error)
}
