package decoder

import (
	"fmt"
	"strconv"

	"github.com/willf/bitset"
)

// CigarOp is one run-length-encoded CIGAR operation, the same shape as
// elprep's sam.CigarOperation.
type CigarOp struct {
	Length    int32
	Operation byte
}

// consumesRef/consumesRead classify CIGAR operation bytes by membership in
// a bitset rather than a map lookup table, per the decoder's bitset-backed
// generalization of elprep's map[byte]int32 CIGAR tables.
var consumesRef, consumesRead *bitset.BitSet

func init() {
	consumesRef = bitset.New(256)
	consumesRead = bitset.New(256)
	for _, op := range []byte("M=XDN") {
		consumesRef.Set(uint(op))
	}
	for _, op := range []byte("M=XIS") {
		consumesRead.Set(uint(op))
	}
}

func isDigit(b byte) bool { return '0' <= b && b <= '9' }

// scanCigar tokenizes a CIGAR string into its run-length operations.
func scanCigar(cigar []byte) ([]CigarOp, error) {
	if len(cigar) == 1 && cigar[0] == '*' {
		return nil, nil
	}
	var ops []CigarOp
	for i := 0; i < len(cigar); {
		j := i
		for j < len(cigar) && isDigit(cigar[j]) {
			j++
		}
		if j == i || j >= len(cigar) {
			return nil, fmt.Errorf("malformed CIGAR string %q", cigar)
		}
		length, err := strconv.ParseInt(string(cigar[i:j]), 10, 32)
		if err != nil {
			return nil, fmt.Errorf("malformed CIGAR string %q: %v", cigar, err)
		}
		ops = append(ops, CigarOp{Length: int32(length), Operation: cigar[j]})
		i = j + 1
	}
	return ops, nil
}
