package main

import "github.com/dkeye/roomcall/internal/cli"

func main() {
	cli.Execute()
}
