// Command vio-devtools runs the devtools bridge and sends calls to a
// connected vio app.
package main

import (
	"os"

	"github.com/go-drift/vio/cmd/vio-devtools/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
