package main

import (
	"os"

	"github.com/mdtty/mdtty/cmd/mdtty/cmd"
)

var GitCommit string
var Version string

func main() {
	switch cmd.Execute(Version, GitCommit) {
	case cmd.ErrorArg:
		os.Exit(2)
	case nil:
		os.Exit(0)
	default:
		os.Exit(1)
	}
}
