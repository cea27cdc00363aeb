// Package main provides the rowshape CLI entry point.
package main

import "github.com/leapstack-labs/rowshape/internal/cli"

func main() {
	cli.Execute()
}
