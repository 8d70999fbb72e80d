package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/jessevdk/go-flags"
)

// errRunNotCompleted sinaliza exit code 1 sem mensagem extra.
var errRunNotCompleted = errors.New("run did not complete")

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	opts := &Options{}
	opts.bind()
	opts.Run.out = stdout
	opts.Validate.out = stdout
	opts.Submit.out = stdout

	parser := flags.NewParser(opts, flags.HelpFlag|flags.PassDoubleDash)
	if _, err := parser.ParseArgs(args); err != nil {
		var flagsErr *flags.Error
		if errors.As(err, &flagsErr) && flagsErr.Type == flags.ErrHelp {
			fmt.Fprintln(stdout, err)
			return 0
		}
		if !errors.Is(err, errRunNotCompleted) {
			fmt.Fprintln(stderr, err)
		}
		return 1
	}
	return 0
}
