package main

import (
	"os"

	"github.com/rarimo/nft-reward-svc/internal/cli"
)

func main() {
	if !cli.Run(os.Args) {
		os.Exit(1)
	}
}
