package main

import "github.com/holdfast-dev/holdfast/cmd"

func main() {
	cmd.Execute()
}
