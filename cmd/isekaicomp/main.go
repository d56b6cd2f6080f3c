// Package main provides the CLI for the isekaicomp column computation engine.
package main

import "github.com/seera-networks/ISEKAI-comp/internal/cli"

func main() {
	cli.Execute()
}
