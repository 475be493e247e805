// Command carthorse tags releases when their conditions are met.
package main

import "github.com/cjw296/carthorse/internal/cli"

func main() {
	cli.Execute()
}
