package main

import "github.com/mcoot/taskauth/internal/cli"

func main() {
	cli.Execute()
}
