// Command faultline inspects, converts and journals serialized errors.
package main

import (
	"fmt"
	"os"

	"github.com/zoobzio/faultline/internal/cli"
)

func main() {
	if err := cli.NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
