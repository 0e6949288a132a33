package main

import (
	"fmt"
	"io"

	"github.com/spf13/pflag"
)

type options struct {
	Connect bool
	Watch   bool
	History bool
	Limit   int

	// An empty message is a valid wave, so presence is tracked separately.
	Message    string
	HasMessage bool
}

func parseOptions(args []string, output io.Writer) (options, error) {
	var opts options

	flagSet := pflag.NewFlagSet("wave-portal", pflag.ContinueOnError)
	flagSet.SetOutput(output)
	flagSet.BoolVar(&opts.Connect, "connect", false, "ask the wallet to authorize an account")
	flagSet.StringVar(&opts.Message, "message", "", "send one wave with this message and wait for it to be mined")
	flagSet.BoolVar(&opts.Watch, "watch", false, "keep following new waves until interrupted")
	flagSet.BoolVar(&opts.History, "history", false, "print waves archived in Postgres and exit")
	flagSet.IntVar(&opts.Limit, "limit", 100, "maximum number of archived waves printed by --history")
	flagSet.Usage = func() {
		fmt.Fprintf(output, "Usage: wave-portal [flags]\n\nFlags:\n%s", flagSet.FlagUsages())
	}

	if err := flagSet.Parse(args); err != nil {
		return options{}, err
	}
	if flagSet.NArg() > 0 {
		return options{}, fmt.Errorf("unexpected arguments: %v", flagSet.Args())
	}
	if opts.Limit < 1 {
		return options{}, fmt.Errorf("--limit must be positive")
	}

	opts.HasMessage = flagSet.Changed("message")
	return opts, nil
}
