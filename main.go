// The main package for the eventscraper executable.
package main

import (
	"github.com/seyi-sanmi/atlas/cmd"
)

// main defers all execution to the Cobra CLI.
func main() {
	cmd.Execute()
}
