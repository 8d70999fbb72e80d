package main

import "io"

// Options comando raiz; tags interpretadas por github.com/jessevdk/go-flags.
type Options struct {
	Config string `short:"c" long:"config" description:"config file (yaml/json/toml)" env:"MAESTRO_CONFIG"`

	Run      RunCmd      `command:"run" description:"Run a workflow locally and print a summary"`
	Validate ValidateCmd `command:"validate" description:"Parse and validate a workflow document"`
	Submit   SubmitCmd   `command:"submit" description:"Publish a run command to NATS for a worker"`
}

type RunCmd struct {
	Policy      string `long:"policy" choice:"continue" choice:"halt" description:"failure policy (overrides engine.failure_policy)"`
	MaxParallel int    `long:"max-parallel" description:"fan-out bound for parallel stages (0 = unbounded)"`
	LogDir      string `long:"log-dir" description:"message log directory (overrides messagelog.dir)"`
	Publish     bool   `long:"publish" description:"publish status events to NATS"`
	JSON        bool   `long:"json" description:"print the run result as JSON"`

	Args struct {
		File string `positional-arg-name:"workflow" required:"yes"`
	} `positional-args:"yes"`

	root *Options
	out  io.Writer
}

type ValidateCmd struct {
	Args struct {
		File string `positional-arg-name:"workflow" required:"yes"`
	} `positional-args:"yes"`

	root *Options
	out  io.Writer
}

type SubmitCmd struct {
	Args struct {
		File string `positional-arg-name:"workflow" required:"yes"`
	} `positional-args:"yes"`

	root *Options
	out  io.Writer
}

func (o *Options) bind() {
	o.Run.root = o
	o.Validate.root = o
	o.Submit.root = o
}
