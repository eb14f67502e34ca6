package main

import "github.com/goliatone/go-yamdb/cmd/yamdb/commands"

func main() {
	commands.Execute()
}
