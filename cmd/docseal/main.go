package main

import "github.com/docseal/docseal/cmd/docseal/cmd"

func main() {
	cmd.Execute()
}
