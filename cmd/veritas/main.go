// Command veritas checks academic submissions for plagiarism,
// machine-generated writing, and subject mismatch, entirely on local
// infrastructure.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/scholarseal/veritas/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		if errors.Is(err, cli.ErrCheckFailed) {
			os.Exit(1)
		}
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(2)
	}
}
