package main

import "snag/cmd"

func main() {
	cmd.Execute()
}
