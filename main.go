package main

import "retailsync/cmd"

func main() {
	cmd.Execute()
}
