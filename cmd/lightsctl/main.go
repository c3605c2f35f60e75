package main

import "github.com/mcoot/lightsduel/internal/cli"

func main() {
	cli.Execute()
}
