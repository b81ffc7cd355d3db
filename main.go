package main

import "teenyjvm/cmd"

func main() {
	cmd.Execute()
}
