package main

import "github.com/crystaldolphin/crondeck/cmd"

func main() {
	cmd.Execute()
}
