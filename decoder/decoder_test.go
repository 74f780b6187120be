package decoder

import (
	"strings"
	"testing"
)

func samLine(fields ...string) []byte {
	return []byte(strings.Join(fields, "\t"))
}

func baseConfig() Config {
	return Config{ConvertFrom: 'C', ConvertTo: 'T', ConvertFromComplement: 'G', ConvertToComplement: 'A'}
}

func TestDecodeUnmapped(t *testing.T) {
	d := New(baseConfig())
	line := samLine("r1", "4", "*", "0", "0", "*", "*", "0", "0", "AAAAA", "IIIII")
	aln, err := d.Decode(line)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if aln.Mapped {
		t.Error("expected Mapped=false for FLAG 0x4")
	}
}

func TestDecodeAllUnconverted(t *testing.T) {
	d := New(baseConfig())
	line := samLine("r1", "0", "chr1", "10", "60", "5M", "*", "0", "0", "CCCCC", "IIIII", "MD:Z:5")
	aln, err := d.Decode(line)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !aln.Mapped {
		t.Fatal("expected Mapped=true")
	}
	if len(aln.Bases) != 5 {
		t.Fatalf("expected 5 observations, got %d", len(aln.Bases))
	}
	for i, obs := range aln.Bases {
		if obs.Remove {
			t.Errorf("observation %d: unexpected Remove", i)
		}
		if obs.Converted {
			t.Errorf("observation %d: expected unconverted vote", i)
		}
	}
}

func TestDecodeMismatchIsConversion(t *testing.T) {
	d := New(baseConfig())
	// CIGAR 5M, MD "2C2" -> a mismatch (ref C) at read offset 2, read base T.
	line := samLine("r1", "0", "chr1", "1", "60", "5M", "*", "0", "0", "AATAA", "IIIII", "MD:Z:2C2")
	aln, err := d.Decode(line)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(aln.Bases) != 5 {
		t.Fatalf("expected 5 observations, got %d", len(aln.Bases))
	}
	for i, obs := range aln.Bases {
		if i == 2 {
			if !obs.Converted || obs.Remove {
				t.Errorf("position 2: expected a converted vote, got %+v", obs)
			}
			continue
		}
		if !obs.Remove {
			t.Errorf("position %d: expected Remove (ref A is not the conversion pair), got %+v", i, obs)
		}
	}
}

func TestDecodeDeletionConsumesMDRun(t *testing.T) {
	d := New(baseConfig())
	line := samLine("r1", "0", "chr1", "1", "60", "2M2D2M", "*", "0", "0", "CCCC", "IIII", "MD:Z:2^AC2")
	aln, err := d.Decode(line)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(aln.Bases) != 4 {
		t.Fatalf("expected 4 observations (deletion contributes none), got %d", len(aln.Bases))
	}
	if aln.Bases[2].RefPos != 4 {
		t.Errorf("expected the 3rd read base to land at refPos 4 (after the 2-base deletion), got %d", aln.Bases[2].RefPos)
	}
}

func TestDecodeUniqueOnlyFiltersMultiMapped(t *testing.T) {
	cfg := baseConfig()
	cfg.UniqueOnly = true
	d := New(cfg)
	line := samLine("r1", "0", "chr1", "1", "60", "5M", "*", "0", "0", "CCCCC", "IIIII", "MD:Z:5", "NH:i:3")
	aln, err := d.Decode(line)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if aln.Mapped {
		t.Error("expected a multiply-mapped read to be filtered out under --unique-only")
	}
}

func TestDecodeMultipleOnlyFiltersUnique(t *testing.T) {
	cfg := baseConfig()
	cfg.MultipleOnly = true
	d := New(cfg)
	line := samLine("r1", "0", "chr1", "1", "60", "5M", "*", "0", "0", "CCCCC", "IIIII", "MD:Z:5")
	aln, err := d.Decode(line)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if aln.Mapped {
		t.Error("expected a uniquely-mapped read to be filtered out under --multiple-only")
	}
}

func TestDecodeSecondaryFlagCountsAsMultiple(t *testing.T) {
	cfg := baseConfig()
	cfg.UniqueOnly = true
	d := New(cfg)
	line := samLine("r1", "256", "chr1", "1", "60", "5M", "*", "0", "0", "CCCCC", "IIIII", "MD:Z:5")
	aln, err := d.Decode(line)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if aln.Mapped {
		t.Error("expected a secondary alignment (FLAG 0x100) to be treated as multiply-mapped")
	}
}

func TestDecodeReadNameIDIsStableAndDistinguishesNames(t *testing.T) {
	d := New(baseConfig())
	line1 := samLine("readA", "4", "*", "0", "0", "*", "*", "0", "0", "AAAAA", "IIIII")
	line2 := samLine("readA", "4", "*", "0", "0", "*", "*", "0", "0", "AAAAA", "IIIII")
	line3 := samLine("readB", "4", "*", "0", "0", "*", "*", "0", "0", "AAAAA", "IIIII")
	aln1, _ := d.Decode(line1)
	aln2, _ := d.Decode(line2)
	aln3, _ := d.Decode(line3)
	if aln1.ReadNameID != aln2.ReadNameID {
		t.Error("expected the same QNAME to hash to the same ReadNameID")
	}
	if aln1.ReadNameID == aln3.ReadNameID {
		t.Error("expected distinct QNAMEs to hash to distinct ReadNameIDs")
	}
}

func TestScanCigarStar(t *testing.T) {
	ops, err := scanCigar([]byte("*"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ops != nil {
		t.Errorf("expected nil ops for unmapped CIGAR, got %v", ops)
	}
}

func TestScanCigarMalformed(t *testing.T) {
	if _, err := scanCigar([]byte("5")); err == nil {
		t.Error("expected an error for a CIGAR string missing its operation letter")
	}
}
