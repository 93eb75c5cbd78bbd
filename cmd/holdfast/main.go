package main

import "github.com/holdfast-app/holdfast/internal/cli"

func main() {
	cli.Execute()
}
