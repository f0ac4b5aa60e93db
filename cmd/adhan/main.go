package main

import (
	"fmt"
	"os"
)

var (
	version = "dev"
	commit  string
	date    string
)

func main() {
	if err := execute(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "adhan: %s\n", err.Error())
		os.Exit(1)
	}
}
