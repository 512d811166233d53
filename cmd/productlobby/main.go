// Command productlobby runs the ProductLobby demand signal service.
package main

import (
	"os"

	"github.com/productlobby/signal/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
