package main

import (
	"os"

	"github.com/hbnb/hbnb/cmd/hbnbctl/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
