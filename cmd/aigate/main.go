package main

import "github.com/recordwise/aigate/internal/cli"

func main() {
	cli.Execute()
}
