// Command boxcoder encodes 3D boxes into regression deltas against anchors
// and decodes them back.
package main

import (
	"errors"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/banshee-data/boxcoder/internal/version"
)

func main() {
	flag.Usage = printUsage
	flag.Parse()

	if flag.NArg() < 1 {
		printUsage()
		os.Exit(1)
	}

	command := flag.Arg(0)
	args := flag.Args()[1:]

	var err error
	switch command {
	case "encode":
		err = runEncode(args, os.Stdout)
	case "decode":
		err = runDecode(args, os.Stdout)
	case "verify":
		err = runVerify(args, os.Stdout)
	case "coders":
		err = runCoders(os.Stdout)
	case "version":
		fmt.Println(version.String())
	case "help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", command)
		printUsage()
		os.Exit(1)
	}
	if err != nil && !errors.Is(err, flag.ErrHelp) {
		log.Fatalf("%s: %v", command, err)
	}
}

func printUsage() {
	fmt.Println(`boxcoder - 3D box delta encoder

Usage: boxcoder <command> [options]

Commands:
  encode    Encode boxes against anchors into deltas
  decode    Decode deltas against anchors into boxes
  verify    Encode then decode and check the round-trip error
  coders    List registered coders
  version   Show boxcoder version
  help      Show this help message

Tables are CSV (optional header) or JSON Lines, chosen by extension.
Rows are x,y,z,dx,dy,dz,r[,extra...] with z at the bottom face.

Examples:
  boxcoder encode -anchors anchors.csv -boxes gt.csv -out deltas.csv
  boxcoder encode -anchors a.jsonl -boxes gt.jsonl -out d.jsonl -db targets.db -plot plots/
  boxcoder decode -anchors anchors.csv -deltas deltas.csv -out boxes.csv
  boxcoder verify -anchors anchors.csv -boxes gt.csv -config coder.json`)
}
