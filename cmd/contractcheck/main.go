// Command contractcheck verifies that contract-test programs fail the way
// they should.
package main

import (
	"log"
	"os"

	"github.com/deixis/contractcheck/internal/cli"
)

func main() {
	log.SetFlags(0)
	log.SetPrefix("contractcheck: ")

	err := cli.NewRootCommand().Execute()
	if err != nil {
		// Violations have already been printed and carry no message.
		if msg := err.Error(); msg != "" {
			log.Print(msg)
		}
	}
	os.Exit(cli.GetExitCode(err))
}
