// Command bobbin is the CLI entry point.
package main

import "github.com/bobbin-dev/bobbin/internal/cli"

func main() {
	cli.Execute()
}
