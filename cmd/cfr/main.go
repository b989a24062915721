// Package main implements the cfr CLI.
// It reconstructs control-flow graphs from instruction listings and traces.
package main

import (
	"os"

	"github.com/l3aro/go-cfg-restore/cmd/cfr/commands"
)

var (
	version = "dev"
)

func main() {
	commands.RootCmd.Version = version
	commands.RootCmd.SetVersionTemplate(`cfr version {{.Version}}
`)

	if err := commands.RootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
