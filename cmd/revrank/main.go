package main

import "github.com/mchmarny/revrank/pkg/cli"

func main() {
	cli.Execute()
}
