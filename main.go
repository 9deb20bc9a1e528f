package main

import "github.com/vedsharma/apireplay/cmd"

func main() {
	cmd.Execute()
}
