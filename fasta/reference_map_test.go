package fasta

import (
	"os"
	"path/filepath"
	"testing"
)

func writeTempFasta(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "ref.fa")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("cannot write temp FASTA: %v", err)
	}
	return path
}

const testFasta = ">chr1 some description\n" +
	"ACGTACGTAC\n" +
	"GTACGTACGT\n" +
	">chr2\n" +
	"TTTTTTTTTT\n"

func TestReferenceMapSeekAndReadLine(t *testing.T) {
	rm, err := Open(writeTempFasta(t, testFasta), AsIs)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer rm.Close()

	offset, err := rm.Seek("chr1")
	if err != nil {
		t.Fatalf("Seek(chr1) failed: %v", err)
	}
	line, ok := rm.ReadLine(&offset)
	if !ok || string(line) != "ACGTACGTAC" {
		t.Fatalf("expected first chr1 line %q, got %q (ok=%v)", "ACGTACGTAC", line, ok)
	}
	line, ok = rm.ReadLine(&offset)
	if !ok || string(line) != "GTACGTACGT" {
		t.Fatalf("expected second chr1 line %q, got %q (ok=%v)", "GTACGTACGT", line, ok)
	}
	line, ok = rm.ReadLine(&offset)
	if !ok || string(line) != ">chr2" {
		t.Fatalf("expected to read into the next header, got %q (ok=%v)", line, ok)
	}
}

func TestReferenceMapSeekUnknownChromosome(t *testing.T) {
	rm, err := Open(writeTempFasta(t, testFasta), AsIs)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer rm.Close()

	if _, err := rm.Seek("chrX"); err == nil {
		t.Error("expected an error seeking an unknown chromosome")
	}
}

func TestReferenceMapStripChrPolicy(t *testing.T) {
	rm, err := Open(writeTempFasta(t, testFasta), StripChr)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer rm.Close()

	if _, err := rm.Seek("chr1"); err == nil {
		t.Error("expected chr1 to be unreachable by its original name under StripChr")
	}
	if _, err := rm.Seek("1"); err != nil {
		t.Errorf("expected chr1 to be indexed as \"1\" under StripChr: %v", err)
	}
}

func TestReferenceMapPrependChrPolicy(t *testing.T) {
	content := ">1\nACGT\n>chr2\nTTTT\n"
	rm, err := Open(writeTempFasta(t, content), PrependChr)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer rm.Close()

	if _, err := rm.Seek("chr1"); err != nil {
		t.Errorf("expected \"1\" to be indexed as \"chr1\" under PrependChr: %v", err)
	}
	if _, err := rm.Seek("chr2"); err != nil {
		t.Errorf("expected already-prefixed chr2 to remain reachable: %v", err)
	}
}

func TestOpenRejectsEmptyFile(t *testing.T) {
	if _, err := Open(writeTempFasta(t, ""), AsIs); err == nil {
		t.Error("expected an error opening an empty reference file")
	}
}
