// Command vmtranslate translates a Jack VM program, given as a single .vm file or a
// directory of them, into Hack assembly (.asm).
package main

import (
	"os"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/teris-io/cli"

	"github.com/n2t-go/toolchain/pkg/vm"
)

var log = logrus.New()

var description = strings.ReplaceAll(`
The VM Translator translates programs written in the Jack VM's stack-oriented
intermediate language into Hack assembly code. A single .vm file is translated on its
own; a directory of .vm files is translated as one program, preceded by bootstrap code
that initializes the stack and calls Sys.init.
`, "\n", " ")

var app = cli.New(description).
	WithArg(cli.NewArg("input", "A .vm file, or a directory of .vm files")).
	WithOption(cli.NewOption("output", "Override the default output (.asm) path").WithType(cli.TypeString)).
	WithOption(cli.NewOption("verbose", "Emit debug-level logging").WithType(cli.TypeBool)).
	WithAction(handler)

func handler(args []string, options map[string]string) int {
	if _, enabled := options["verbose"]; enabled {
		log.SetLevel(logrus.DebugLevel)
	}

	input := args[0]

	outputPath := options["output"]
	if outputPath == "" {
		resolved, err := vm.OutputPath(input)
		if err != nil {
			log.WithError(err).WithField("path", input).Error("unable to determine output path")
			return -1
		}
		outputPath = resolved
	}

	driver := vm.NewDriver()
	lines, err := driver.Run(input)
	if err != nil {
		log.WithError(err).WithField("path", input).Error("translation failed")
		return -1
	}

	output, err := os.Create(outputPath)
	if err != nil {
		log.WithError(err).WithField("path", outputPath).Error("unable to open output file")
		return -1
	}
	defer output.Close()

	for _, line := range lines {
		if _, err := output.WriteString(line + "\n"); err != nil {
			log.WithError(err).Error("unable to write output file")
			return -1
		}
	}

	log.WithFields(logrus.Fields{"input": input, "output": outputPath, "lines": len(lines)}).
		Info("translated program")
	return 0
}

func main() { os.Exit(app.Run(os.Args, os.Stdout)) }
