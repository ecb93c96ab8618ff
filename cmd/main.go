// Command motorgen runs the motor identity pipeline and its lookup API.
package main

import (
	"os"

	"github.com/okian/motorgen/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
