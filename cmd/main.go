package main

import "teamchat/backend/cmd/commands"

func main() {
	commands.Execute()
}
