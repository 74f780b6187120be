// Package decoder implements the alignment decoder: it parses one SAM
// record into the per-reference-base observations the pileup core needs,
// reconstructing the reference allele at each aligned position from the
// CIGAR string and the MD optional tag rather than from the FASTA file
// itself (the decoder never sees reference bytes).
package decoder

import (
	"fmt"
	"strconv"

	farm "github.com/dgryski/go-farm"
)

// SAM FLAG bits the decoder needs; kept local rather than imported from a
// generic SAM package since the decoder is meant to be a self-contained,
// swappable collaborator behind pileup.Decoder.
const (
	flagUnmapped      = 0x4
	flagSecondary     = 0x100
	flagSupplementary = 0x800
)

// Observation is one read base aligned to a single reference position.
type Observation struct {
	RefPos    int32 // 0-based offset from Alignment.Location
	Qual      byte
	Converted bool
	Remove    bool
}

// Alignment is the decoded form of one SAM record.
type Alignment struct {
	Mapped     bool
	Chromosome string
	Location   int32 // 1-based leftmost reference base covered
	Sequence   string
	Bases      []Observation
	ReadNameID uint64
	MAPQ       byte
}

// Config carries the conversion-chemistry parameters the decoder needs to
// classify a base as converted, unconverted, or irrelevant (third allele),
// plus the unique/multiple-mapping filter delegated to it by the core.
type Config struct {
	ConvertFrom, ConvertTo                     byte
	ConvertFromComplement, ConvertToComplement byte
	UniqueOnly, MultipleOnly                   bool
}

// Decoder decodes SAM records into Alignments under a fixed Config.
type Decoder struct {
	config Config
}

// New returns a Decoder configured with the given conversion parameters.
func New(config Config) *Decoder {
	return &Decoder{config: config}
}

// Decode parses one tab-separated SAM record line. Unmapped records and
// records filtered out by --unique-only/--multiple-only are returned with
// Mapped=false and no error; malformed records return an error.
func (d *Decoder) Decode(line []byte) (*Alignment, error) {
	sc := newFieldScanner(line)

	qname := sc.require("QNAME")
	flagField := sc.require("FLAG")
	rname := sc.require("RNAME")
	posField := sc.require("POS")
	mapqField := sc.require("MAPQ")
	cigarField := sc.require("CIGAR")
	sc.require("RNEXT")
	sc.require("PNEXT")
	sc.require("TLEN")
	seqField := sc.require("SEQ")
	qualField := sc.require("QUAL")
	if sc.err != nil {
		return nil, sc.err
	}

	flag, err := strconv.ParseUint(string(flagField), 10, 16)
	if err != nil {
		return nil, fmt.Errorf("malformed FLAG field %q: %v", flagField, err)
	}

	aln := &Alignment{
		Chromosome: string(rname),
		ReadNameID: farm.Hash64(qname),
	}

	if flag&flagUnmapped != 0 {
		return aln, nil
	}

	pos, err := strconv.ParseInt(string(posField), 10, 32)
	if err != nil {
		return nil, fmt.Errorf("malformed POS field %q: %v", posField, err)
	}
	mapq, err := strconv.ParseUint(string(mapqField), 10, 8)
	if err != nil {
		return nil, fmt.Errorf("malformed MAPQ field %q: %v", mapqField, err)
	}
	aln.Location = int32(pos)
	aln.MAPQ = byte(mapq)
	aln.Sequence = string(seqField)

	cigarOps, err := scanCigar(cigarField)
	if err != nil {
		return nil, err
	}

	var mdTag, nhTag []byte
	for {
		field, ok := sc.next()
		if !ok {
			break
		}
		switch {
		case len(field) > 5 && string(field[:5]) == "MD:Z:":
			mdTag = field[5:]
		case len(field) > 5 && string(field[:5]) == "NH:i:":
			nhTag = field[5:]
		}
	}

	nh := 1
	if nhTag != nil {
		if v, err := strconv.Atoi(string(nhTag)); err == nil {
			nh = v
		}
	}
	isMultiple := nh > 1 || flag&flagSecondary != 0 || flag&flagSupplementary != 0
	if (d.config.UniqueOnly && isMultiple) || (d.config.MultipleOnly && !isMultiple) {
		aln.Mapped = false
		return aln, nil
	}

	if len(cigarOps) == 0 || mdTag == nil {
		aln.Mapped = true
		return aln, nil
	}

	mdEvents, err := parseMD(mdTag)
	if err != nil {
		return nil, err
	}

	bases, err := d.walk(cigarOps, mdEvents, seqField, qualField)
	if err != nil {
		return nil, err
	}

	aln.Mapped = true
	aln.Bases = bases
	return aln, nil
}

// walk reconstructs the reference allele at every reference-consuming,
// non-deletion CIGAR position (from the MD tag or, for an MD match run,
// from the read's own base) and classifies the observation against the
// configured conversion pair.
func (d *Decoder) walk(cigarOps []CigarOp, mdEvents []mdEvent, seq, qual []byte) ([]Observation, error) {
	cursor := newMDCursor(mdEvents)
	var observations []Observation
	var refOffset int32
	var readPos int32

	for _, op := range cigarOps {
		switch {
		case op.Operation == 'M' || op.Operation == '=' || op.Operation == 'X':
			for k := int32(0); k < op.Length; k++ {
				if int(readPos) >= len(seq) {
					return nil, fmt.Errorf("CIGAR consumes more read bases than SEQ provides")
				}
				mismatchBase, isMismatch, ok := cursor.nextBase()
				if !ok {
					return nil, fmt.Errorf("MD tag does not cover all CIGAR match/mismatch positions")
				}
				readBase := seq[readPos]
				refBase := readBase
				if isMismatch {
					refBase = mismatchBase
				}
				q := byte('!')
				if int(readPos) < len(qual) {
					q = qual[readPos]
				}
				observations = append(observations, d.classify(refOffset, refBase, readBase, q))
				refOffset++
				readPos++
			}
		case consumesRead.Test(uint(op.Operation)):
			readPos += op.Length
		case op.Operation == 'D':
			if err := cursor.skipDeletion(op.Length); err != nil {
				return nil, err
			}
			refOffset += op.Length
		case consumesRef.Test(uint(op.Operation)):
			refOffset += op.Length
		}
	}
	return observations, nil
}

// classify decides whether a read base at a reconstructed reference base
// is a converted vote, an unconverted vote, or irrelevant noise (a third
// allele unrelated to the conversion pair), trying both the forward and
// complementary orientations since the decoder does not know the strand
// of interest assigned to this position.
func (d *Decoder) classify(refOffset int32, refBase, readBase, qual byte) Observation {
	cfg := d.config
	switch refBase {
	case cfg.ConvertFrom:
		switch readBase {
		case cfg.ConvertFrom:
			return Observation{RefPos: refOffset, Qual: qual, Converted: false}
		case cfg.ConvertTo:
			return Observation{RefPos: refOffset, Qual: qual, Converted: true}
		default:
			return Observation{RefPos: refOffset, Qual: qual, Remove: true}
		}
	case cfg.ConvertFromComplement:
		switch readBase {
		case cfg.ConvertFromComplement:
			return Observation{RefPos: refOffset, Qual: qual, Converted: false}
		case cfg.ConvertToComplement:
			return Observation{RefPos: refOffset, Qual: qual, Converted: true}
		default:
			return Observation{RefPos: refOffset, Qual: qual, Remove: true}
		}
	default:
		return Observation{RefPos: refOffset, Qual: qual, Remove: true}
	}
}
