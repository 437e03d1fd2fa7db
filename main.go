package main

import "github.com/notargets/gobounce/cmd"

func main() {
	cmd.Execute()
}
