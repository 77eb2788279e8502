package main

import "tajeats-api/cmd"

func main() {
	cmd.Execute()
}
