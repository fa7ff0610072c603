package main

import (
	"os"

	"github.com/safcost/banksync/internal/commands"
)

func main() {
	if err := commands.NewRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}
