// hisat3n-table streams a SAM alignment file and a FASTA reference into a
// per-position pileup table of 3N (bisulfite-style) base-conversion
// tallies.
//
// See https://github.com/ngs-tools/hisat3n-table for documentation.
package main

import (
	"fmt"
	"log"
	"os"

	"github.com/ngs-tools/hisat3n-table/cmd"
)

func printHelp() {
	fmt.Fprintln(os.Stderr, "Available commands: table")
	fmt.Fprint(os.Stderr, "\n", cmd.TableHelp)
}

func main() {
	if len(os.Args) < 2 {
		log.Println("Incorrect number of parameters.")
		fmt.Fprint(os.Stderr, cmd.HelpMessage)
		printHelp()
		os.Exit(1)
	}

	var err error
	switch os.Args[1] {
	case "table":
		err = cmd.Table()
	case "help", "-help", "--help", "-h", "--h":
		printHelp()
	default:
		fmt.Fprintln(os.Stderr, "Unknown command:", os.Args[1])
		printHelp()
		os.Exit(1)
	}
	if err != nil {
		log.Fatal(err)
	}
}
