// httpsim CLI - run HTTP handlers against simulated requests
package main

import (
	"os"

	"github.com/getmockd/httpsim/pkg/cli"
)

func main() {
	os.Exit(cli.Main())
}
