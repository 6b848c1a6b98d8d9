package main

import "civiccal/internal/cli"

func main() {
	cli.Execute()
}
