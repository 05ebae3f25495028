package main

import (
	"os"

	"github.com/issuewiz/graphix/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
