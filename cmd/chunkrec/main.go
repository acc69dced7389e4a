package main

import (
	"os"

	"github.com/chunkrec/chunkrec/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
