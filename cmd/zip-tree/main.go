// Command zip-tree plans archive partitions from file manifests.
package main

import (
	"fmt"
	"os"

	"github.com/clbarnes/zip-tree/internal/cli"
)

func main() {
	if err := cli.Run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
