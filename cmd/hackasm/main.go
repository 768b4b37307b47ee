// Command hackasm assembles Hack assembly language (.asm) into 16-bit binary machine
// code (.hack).
package main

import (
	"bytes"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/teris-io/cli"

	"github.com/n2t-go/toolchain/pkg/asm"
	"github.com/n2t-go/toolchain/pkg/hack"
)

var log = logrus.New()

var description = strings.ReplaceAll(`
The Hack Assembler takes assembly language code written in the Hack assembly language
and translates it into machine code that can be executed by the Hack computer. The
process involves parsing the assembly code, resolving symbols, and generating machine code.
`, "\n", " ")

var app = cli.New(description).
	WithArg(cli.NewArg("input", "The assembler (.asm) file to be compiled")).
	WithArg(cli.NewArg("output", "The compiled binary output (.hack)")).
	WithOption(cli.NewOption("verbose", "Emit debug-level logging").WithType(cli.TypeBool)).
	WithAction(handler)

func handler(args []string, options map[string]string) int {
	if _, enabled := options["verbose"]; enabled {
		log.SetLevel(logrus.DebugLevel)
	}

	input, err := os.Open(args[0])
	if err != nil {
		log.WithError(err).WithField("path", args[0]).Error("unable to open input file")
		return -1
	}
	defer input.Close()

	output, err := os.Create(args[1])
	if err != nil {
		log.WithError(err).WithField("path", args[1]).Error("unable to open output file")
		return -1
	}
	defer output.Close()

	var buf bytes.Buffer
	if _, err := buf.ReadFrom(input); err != nil {
		log.WithError(err).Error("unable to read input file")
		return -1
	}

	parser := asm.NewParser(bytes.NewReader(buf.Bytes()))
	program, err := parser.Parse()
	if err != nil {
		log.WithError(err).Error("parsing pass failed")
		return -1
	}
	log.WithField("statements", len(program)).Debug("parsed assembly program")

	lowerer := asm.NewLowerer(program)
	hackProgram, table, err := lowerer.Lower()
	if err != nil {
		log.WithError(err).Error("lowering pass failed")
		return -1
	}

	encoder := hack.NewEncoder(table)
	binary, err := encoder.Encode(hackProgram)
	if err != nil {
		log.WithError(err).Error("encoding pass failed")
		return -1
	}

	for _, line := range binary {
		if _, err := output.WriteString(line + "\n"); err != nil {
			log.WithError(err).Error("unable to write output file")
			return -1
		}
	}

	log.WithFields(logrus.Fields{"input": args[0], "output": args[1], "words": len(binary)}).
		Info("assembled program")
	return 0
}

func main() { os.Exit(app.Run(os.Args, os.Stdout)) }
