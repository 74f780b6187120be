package cmd

import (
	"flag"
	"fmt"
	"io"
	"io/ioutil"
	"log"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ngs-tools/hisat3n-table/internal"
)

// ProgramName/ProgramVersion/ProgramURL identify this binary in its banner
// and log output, mirroring the teacher's utils.ProgramName/-Version/-URL.
const (
	ProgramName    = "hisat3n-table"
	ProgramVersion = "1.0.0"
	ProgramURL     = "https://github.com/ngs-tools/hisat3n-table"
)

// ProgramMessage is the banner written at the head of each run's log file
// and printed to stderr once logging is set up; it carries a per-run UUID so that interleaved log lines from concurrent runs
// (and, with --log-path, their separate log files) can be told apart.
var ProgramMessage string

func init() {
	ProgramMessage = fmt.Sprint(
		"\n", ProgramName, " version ", ProgramVersion,
		" compiled with ", runtime.Version(),
		", run ", uuid.New().String(),
		" - see ", ProgramURL, " for more information.\n",
	)
}

// HelpMessage is printed when the binary is invoked without a command.
const HelpMessage = "Print command details:\n" +
	"[--help]\n"

func parseFlags(flags *flag.FlagSet, args []string, help string) {
	flags.SetOutput(ioutil.Discard)
	if err := flags.Parse(args); err != nil {
		x := 0
		if err != flag.ErrHelp {
			fmt.Fprintln(os.Stderr, err)
			x = 1
		}
		fmt.Fprint(os.Stderr, help)
		os.Exit(x)
	}
	if flags.NArg() > 0 {
		fmt.Fprintln(os.Stderr, "Cannot parse remaining parameters:", flags.Args())
		fmt.Fprint(os.Stderr, help)
		os.Exit(1)
	}
}

func logCheckFile(parameter, format string, v ...interface{}) {
	if parameter != "" {
		log.Printf(format+" for command line parameter %v.\n", append(v, parameter)...)
	} else {
		log.Printf(format+".\n", v...)
	}
}

func checkExist(parameter, filename string) bool {
	if len(filename) == 0 {
		logCheckFile(parameter, "Error: Missing filename")
		return false
	}
	if _, err := os.Stat(filename); err == nil {
		return true
	} else if os.IsNotExist(err) {
		logCheckFile(parameter, "Error: File %v does not exist", filename)
		return false
	} else if os.IsPermission(err) {
		logCheckFile(parameter, "Error: No permission to read file %v", filename)
		return false
	} else {
		logCheckFile(parameter, "Error %v when trying to access file %v", err, filename)
		return false
	}
}

func checkCreate(parameter, filename string) bool {
	if len(filename) == 0 {
		logCheckFile(parameter, "Error: Missing filename")
		return false
	}
	if _, err := os.Stat(filename); err == nil {
		return true
	}
	err := os.MkdirAll(filepath.Dir(filename), 0700)
	if err == nil {
		err = ioutil.WriteFile(filename, nil, 0666)
	}
	if err != nil {
		if os.IsPermission(err) {
			logCheckFile(parameter, "Error: No permission to create file %v", filename)
		} else {
			logCheckFile(parameter, "Error %v when trying to create file %v", err, filename)
		}
		return false
	}
	_ = os.Remove(filename)
	return true
}

func createLogFilename() string {
	t := time.Now()
	zone, _ := t.Zone()
	return fmt.Sprintf("logs/hisat3n-table/hisat3n-table-%d-%02d-%02d-%02d-%02d-%02d-%09d-%v.log",
		t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), zone)
}

// setLogOutput redirects log output to a freshly created, timestamped file
// under path (or $HOME if path is empty), while still mirroring every line
// to stderr.
func setLogOutput(path string) {
	logPath := createLogFilename()
	var fullPath string
	if path == "" {
		fullPath = filepath.Join(os.Getenv("HOME"), logPath)
	} else {
		fullPath = filepath.Join(path, logPath)
	}
	internal.MkdirAll(filepath.Dir(fullPath), 0700)
	f := internal.FileCreate(fullPath)
	fmt.Fprintln(f, ProgramMessage)

	multi := io.MultiWriter(f, os.Stderr)
	log.SetOutput(multi)
	log.Println("Created log file at", fullPath)
	log.Println("Command line:", os.Args)
}

// parseChrNamePolicy normalizes the --rename-chromosomes flag value to one
// of "none", "strip" or "prepend"; Table maps that name onto a
// fasta.ChrNamePolicy.
func parseChrNamePolicy(value string) (name string, ok bool) {
	switch strings.ToLower(value) {
	case "", "none":
		return "none", true
	case "strip":
		return "strip", true
	case "prepend":
		return "prepend", true
	default:
		return "", false
	}
}
