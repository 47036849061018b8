package main

import "github.com/LeJamon/goPropLedger/internal/cli"

func main() {
	cli.Execute()
}
