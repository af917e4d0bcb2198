package main

import (
	"flag"

	"github.com/tebeka/atexit"

	"gitlab.com/akita/vmsim/samples/runner"
)

func main() {
	flag.Parse()

	runner := new(runner.Runner).ParseFlag().Init()

	runner.Run()

	atexit.Exit(0)
}
