package main

import "github.com/damon-houk/anvil-basic-tx/cmd"

func main() {
	cmd.Execute()
}
