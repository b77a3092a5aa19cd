package main

import "github.com/libraryhub/circulation/cmd/libraryctl/commands"

func main() {
	commands.Execute()
}
