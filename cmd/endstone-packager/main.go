package main

import "github.com/ratranqu/endstone/cmd/endstone-packager/cmd"

func main() {
	cmd.Execute()
}
