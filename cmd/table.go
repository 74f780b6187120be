package cmd

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/pkg/errors"

	"github.com/ngs-tools/hisat3n-table/decoder"
	"github.com/ngs-tools/hisat3n-table/fasta"
	"github.com/ngs-tools/hisat3n-table/pileup"
)

// TableHelp documents the table command's flags, in the order spec.md §6
// lists them plus the ambient additions named in SPEC_FULL.md §6.
const TableHelp = "table command line parameters:\n" +
	"-a, --alignments <sam>           Input SAM file, sorted by (RNAME, POS); required.\n" +
	"-r, --ref <fasta>                Reference FASTA file; required.\n" +
	"-o, --output-name <tsv>          Output TSV file; required.\n" +
	"-b, --base-change <from,to>      Conversion base pair, e.g. C,T; required.\n" +
	"-u, --unique-only                Only tally uniquely mapped reads.\n" +
	"-m, --multiple-only              Only tally multiply mapped reads.\n" +
	"    --CG-only                    Only tally CpG dinucleotide positions.\n" +
	"-p, --threads <n>                Number of aggregator worker threads (default 1).\n" +
	"    --log-path <dir>             Write a timestamped run log under this directory.\n" +
	"    --rename-chromosomes <mode>  Rewrite FASTA chromosome names: none, strip, prepend.\n" +
	"-h, --help                       Print this message.\n"

// decoderAdapter satisfies pileup.Decoder by wrapping a *decoder.Decoder
// and copying its result into the pileup package's own Alignment/
// Observation types, keeping pileup free of an import-cycle-prone
// dependency on decoder's CIGAR/MD internals.
type decoderAdapter struct {
	inner *decoder.Decoder
}

func (a decoderAdapter) Decode(line []byte) (*pileup.Alignment, error) {
	aln, err := a.inner.Decode(line)
	if err != nil {
		return nil, err
	}
	out := &pileup.Alignment{
		Mapped:     aln.Mapped,
		Chromosome: aln.Chromosome,
		Location:   aln.Location,
		ReadNameID: aln.ReadNameID,
	}
	if len(aln.Bases) > 0 {
		out.Bases = make([]pileup.Observation, len(aln.Bases))
		for i, obs := range aln.Bases {
			out.Bases[i] = pileup.Observation{
				RefPos:    obs.RefPos,
				Qual:      obs.Qual,
				Converted: obs.Converted,
				Remove:    obs.Remove,
			}
		}
	}
	return out, nil
}

func parseBaseChange(s string) (from, to byte, ok bool) {
	parts := strings.Split(s, ",")
	if len(parts) != 2 || len(parts[0]) != 1 || len(parts[1]) != 1 {
		return 0, 0, false
	}
	return strings.ToUpper(parts[0])[0], strings.ToUpper(parts[1])[0], true
}

// Table runs the pileup table command against os.Args[2:]: validates flags,
// opens the reference and alignment files, and streams the TSV pileup
// table to the requested output file.
func Table() error {
	flags := flag.NewFlagSet("table", flag.ContinueOnError)

	var alignments, ref, outputName, baseChange, logPath, renameChromosomes string
	var uniqueOnly, multipleOnly, cgOnly, help bool
	var threads int

	flags.StringVar(&alignments, "a", "", "")
	flags.StringVar(&alignments, "alignments", "", "")
	flags.StringVar(&ref, "r", "", "")
	flags.StringVar(&ref, "ref", "", "")
	flags.StringVar(&outputName, "o", "", "")
	flags.StringVar(&outputName, "output-name", "", "")
	flags.StringVar(&baseChange, "b", "", "")
	flags.StringVar(&baseChange, "base-change", "", "")
	flags.BoolVar(&uniqueOnly, "u", false, "")
	flags.BoolVar(&uniqueOnly, "unique-only", false, "")
	flags.BoolVar(&multipleOnly, "m", false, "")
	flags.BoolVar(&multipleOnly, "multiple-only", false, "")
	flags.BoolVar(&cgOnly, "CG-only", false, "")
	flags.IntVar(&threads, "p", 1, "")
	flags.IntVar(&threads, "threads", 1, "")
	flags.StringVar(&logPath, "log-path", "", "")
	flags.StringVar(&renameChromosomes, "rename-chromosomes", "none", "")
	flags.BoolVar(&help, "h", false, "")
	flags.BoolVar(&help, "help", false, "")

	parseFlags(flags, os.Args[2:], TableHelp)

	if help {
		fmt.Fprint(os.Stderr, TableHelp)
		os.Exit(0)
	}

	setLogOutput(logPath)
	fmt.Fprintln(os.Stderr, ProgramMessage)

	ok := true
	if alignments == "-" {
		fmt.Fprintln(os.Stderr, "Error: standard input is not supported for --alignments; the pileup core requires random access to the SAM file for its drain/barrier/flush sequence.")
		ok = false
	} else {
		ok = checkExist("--alignments", alignments) && ok
	}
	ok = checkExist("--ref", ref) && ok
	ok = checkCreate("--output-name", outputName) && ok

	convertFrom, convertTo, baseOK := parseBaseChange(baseChange)
	if !baseOK {
		fmt.Fprintln(os.Stderr, "Error: --base-change must be two single bases separated by a comma, e.g. C,T.")
		ok = false
	}
	if uniqueOnly && multipleOnly {
		fmt.Fprintln(os.Stderr, "Error: --unique-only and --multiple-only are mutually exclusive.")
		ok = false
	}
	if threads < 1 {
		threads = 1
	}
	policyName, policyOK := parseChrNamePolicy(renameChromosomes)
	if !policyOK {
		fmt.Fprintln(os.Stderr, "Error: --rename-chromosomes must be one of: none, strip, prepend.")
		ok = false
	}
	if !ok {
		fmt.Fprint(os.Stderr, TableHelp)
		os.Exit(1)
	}

	var policy fasta.ChrNamePolicy
	switch policyName {
	case "strip":
		policy = fasta.StripChr
	case "prepend":
		policy = fasta.PrependChr
	default:
		policy = fasta.AsIs
	}

	refMap, err := fasta.Open(ref, policy)
	if err != nil {
		return err
	}
	defer refMap.Close()

	out, err := os.Create(outputName)
	if err != nil {
		return errors.Wrap(err, "cannot create output file "+outputName)
	}
	defer out.Close()

	cfg := pileup.NewConfig(convertFrom, convertTo, cgOnly, pileup.DefaultLoadingBlockSize, threads, true)
	dec := decoder.New(decoder.Config{
		ConvertFrom:           cfg.ConvertFrom,
		ConvertTo:             cfg.ConvertTo,
		ConvertFromComplement: cfg.ConvertFromComplement,
		ConvertToComplement:   cfg.ConvertToComplement,
		UniqueOnly:            uniqueOnly,
		MultipleOnly:          multipleOnly,
	})

	engine := pileup.NewEngine(cfg, refMap, decoderAdapter{inner: dec}, out)
	return engine.Run(alignments)
}
