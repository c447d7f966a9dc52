package main

import (
	"flag"
	"fmt"
	"io"
)

const usageText = `Usage: fileguard [-h] [-v] [-n] [config.yaml]

Watches the configured inode for one event class and runs the configured
action on every match.

  -h    display this help message
  -v    turn on verbose logging
  -n    turn on desktop notifications

The positional argument replaces the default configuration file
(fileguard.yaml) when it carries a .yaml or .yml extension.
`

type options struct {
	verbose  bool
	notifier bool
	args     []string
}

func printUsage(out io.Writer) {
	fmt.Fprint(out, usageText)
}

// parseFlags reads the command-line surface. A help request surfaces as
// flag.ErrHelp so the caller can print usage to stdout and exit with
// success; other parse errors print usage to errOut.
func parseFlags(args []string, errOut io.Writer) (options, error) {
	for _, arg := range args {
		if arg == "-h" || arg == "-help" || arg == "--help" {
			return options{}, flag.ErrHelp
		}
	}

	var opts options

	flags := flag.NewFlagSet("fileguard", flag.ContinueOnError)
	flags.SetOutput(errOut)
	flags.Usage = func() {
		printUsage(flags.Output())
	}
	flags.BoolVar(&opts.verbose, "v", false, "turn on verbose logging")
	flags.BoolVar(&opts.notifier, "n", false, "turn on desktop notifications")

	if err := flags.Parse(args); err != nil {
		return options{}, err
	}
	opts.args = flags.Args()
	return opts, nil
}
