// schemectl is the command line interface to the welfare scheme engine.
package main

import (
	"os"

	"welfare-scheme-engine/internal/cli"
)

var version = "dev"

func main() {
	cli.SetVersionInfo(version)
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
