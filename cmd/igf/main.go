package main

import (
	"os"

	"github.com/dmarceau/instagram-follower-cli/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
