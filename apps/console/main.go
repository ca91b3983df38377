package main

import (
	"fmt"
	"log"
	"os"

	"github.com/pterm/pterm"
	"github.com/rollbar/rollbar-go"
	"golang.org/x/term"

	"github.com/givehub/console/core"
)

func init() {
	// no escape codes in piped output
	if !isTerminal() {
		pterm.DisableStyling()
	}
}

func main() {
	logger := log.New(os.Stderr, "GIVEHUB : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile)

	conf, err := core.NewConfig()
	if err != nil {
		logger.Fatal(err)
	}

	cli := newCommandLine(conf, os.Stdout, os.Stderr)
	err = cli.run(os.Args)
	rollbar.Close()
	if err != nil {
		if err != errHelp && err != errFailed {
			fmt.Fprintf(os.Stderr, "error: %s\n", err)
		}
		os.Exit(1)
	}
}

func isTerminal() bool {
	return term.IsTerminal(int(os.Stdout.Fd()))
}
