package main

import (
	"os"

	"ollamakit/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
