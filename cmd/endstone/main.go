package main

import "github.com/ratranqu/endstone/cmd/endstone/cmd"

func main() {
	cmd.Execute()
}
