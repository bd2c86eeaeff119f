package main

import "github.com/ogulcanaydogan/battery-guardian/internal/cli"

func main() {
	cli.Execute()
}
