package main

import (
	"os"

	"eol-audit/cmd"
)

func main() {
	os.Exit(cmd.Execute())
}
