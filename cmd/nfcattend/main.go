package main

import "nfcattend/internal/cli"

func main() {
	cli.Execute()
}
