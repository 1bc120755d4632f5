package main

import "github.com/prabalesh/perftop/cmd/commands"

func main() {
	commands.Execute()
}
