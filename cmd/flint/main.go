package main

import "flint/internal/cli"

func main() {
	cli.Execute()
}
