package main

import "adaptplay/cmd"

func main() {
	cmd.Execute()
}
