// Command jacktoken lexes a Jack (.jack) source file and prints its token stream, one
// token per line as "<type> <value>". It stops at tokenizing: Jack's grammar and code
// generation are out of scope for this toolchain.
package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/teris-io/cli"

	"github.com/n2t-go/toolchain/pkg/jack"
)

var log = logrus.New()

var description = strings.ReplaceAll(`
The Jack Tokenizer lexes Jack source code into a stream of typed tokens: keywords,
symbols, identifiers, integer constants, and string constants. It does not parse or
compile; it only exposes the token stream a parser would consume.
`, "\n", " ")

var app = cli.New(description).
	WithArg(cli.NewArg("input", "The Jack (.jack) source file to tokenize")).
	WithOption(cli.NewOption("output", "Write the token stream here instead of stdout").WithType(cli.TypeString)).
	WithAction(handler)

func handler(args []string, options map[string]string) int {
	input, err := os.Open(args[0])
	if err != nil {
		log.WithError(err).WithField("path", args[0]).Error("unable to open input file")
		return -1
	}
	defer input.Close()

	tokenizer := jack.NewTokenizer(input)
	tokens, err := tokenizer.Tokenize()
	if err != nil {
		log.WithError(err).Error("tokenizing failed")
		return -1
	}

	rendered := jack.Render(tokens)

	if outputPath := options["output"]; outputPath != "" {
		if err := os.WriteFile(outputPath, []byte(rendered), 0o644); err != nil {
			log.WithError(err).WithField("path", outputPath).Error("unable to write output file")
			return -1
		}
	} else {
		fmt.Print(rendered)
	}

	log.WithFields(logrus.Fields{"input": args[0], "tokens": len(tokens)}).Info("tokenized program")
	return 0
}

func main() { os.Exit(app.Run(os.Args, os.Stdout)) }
