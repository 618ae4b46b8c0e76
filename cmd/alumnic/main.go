package main

import "github.com/ic-ufrj/alumnic/internal/cli"

func main() {
	cli.Execute()
}
