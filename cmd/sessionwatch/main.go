package main

import "sessionwatch/internal/cli"

func main() {
	cli.Execute()
}
