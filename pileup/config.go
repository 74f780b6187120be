package pileup

// Config carries the process-wide parameters that are fixed for the
// lifetime of one run: the conversion chemistry, CG_only mode, and the
// window's block size. It is built once at startup and passed to the core
// as an immutable value rather than threaded through as mutable globals.
type Config struct {
	// ConvertFrom/ConvertTo are the reference/read base pair that defines
	// a conversion event on the forward strand, e.g. 'C'/'T'.
	ConvertFrom, ConvertTo byte

	// ConvertFromComplement/ConvertToComplement are the same pair mirrored
	// onto the opposite strand.
	ConvertFromComplement, ConvertToComplement byte

	// CGOnly restricts positions of interest to CpG dinucleotides.
	CGOnly bool

	// LoadingBlockSize is the number of reference bases materialized per
	// window advance.
	LoadingBlockSize int64

	// NThreads is the number of aggregator workers.
	NThreads int
}

// DefaultLoadingBlockSize is the block size (1,000,000 bp) the table
// command passes to NewConfig. Config has no fallback of its own: a
// LoadingBlockSize of zero is used as zero.
const DefaultLoadingBlockSize = 1000000

// watsonCrickComplement computes the true Watson-Crick complement of an
// upper-case DNA base.
func watsonCrickComplement(base byte) byte {
	switch base {
	case 'A':
		return 'T'
	case 'T':
		return 'A'
	case 'C':
		return 'G'
	case 'G':
		return 'C'
	default:
		return base
	}
}

// NewConfig builds a Config from the conversion pair and mode flags,
// computing the complement pair according to legacyComplement: true
// reproduces the original hisat-3n-table's hard-wired G/A complement pair
// (bug-for-bug parity, tied to C/T conversion); false computes the true
// Watson-Crick complement of convertFrom/convertTo.
func NewConfig(convertFrom, convertTo byte, cgOnly bool, loadingBlockSize int64, nThreads int, legacyComplement bool) Config {
	cfg := Config{
		ConvertFrom:      convertFrom,
		ConvertTo:        convertTo,
		CGOnly:           cgOnly,
		LoadingBlockSize: loadingBlockSize,
		NThreads:         nThreads,
	}
	if legacyComplement {
		cfg.ConvertFromComplement = 'G'
		cfg.ConvertToComplement = 'A'
	} else {
		cfg.ConvertFromComplement = watsonCrickComplement(convertFrom)
		cfg.ConvertToComplement = watsonCrickComplement(convertTo)
	}
	return cfg
}
