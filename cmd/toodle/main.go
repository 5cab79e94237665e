// Command toodle manages a to-do list with labels.
package main

import "github.com/mesh-intelligence/toodle/internal/cli"

func main() {
	cli.Execute()
}
