package main

import (
	"github.com/bourque/wfc3-tools/internal/cli"
)

func main() {
	cli.Execute()
}
