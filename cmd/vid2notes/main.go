package main

import "github.com/benhall/vid2notes/internal/adapters/cli"

func main() {
	cli.Execute()
}
