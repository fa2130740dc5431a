package main

import (
	"os"

	"github.com/causelab/causeway/cmd/causeway/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
