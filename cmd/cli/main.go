package main

import "activity-archive/internal/cli"

func main() {
	cli.Execute()
}
