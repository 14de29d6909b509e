package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newCLI().Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "modmail:", err)
		os.Exit(1)
	}
}
