package main

import "github.com/opencode-ai/foundry/internal/cli"

func main() {
	cli.Execute()
}
