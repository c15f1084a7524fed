package main

import "groupchat/cmd/chatclient/cmd"

func main() {
	cmd.Execute()
}
