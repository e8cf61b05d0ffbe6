package main

import (
	"fmt"
	"os"

	"github.com/jo-hoe/galleryboard/internal/cli"
)

func main() {
	if err := cli.NewGridLayoutCommand(os.Stdout).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
