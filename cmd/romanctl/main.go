package main

import (
	"os"

	"github.com/romanconv/romanconv/internal/cli"
)

func main() {
	command := cli.NewRomanctlCommand()
	if err := command.Execute(); err != nil {
		os.Exit(1)
	}
}
