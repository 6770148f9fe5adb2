//go:build !amd64

package main

import (
	"fmt"
	"io"

	"github.com/c35s/mshv/mshv"
)

func printMSRs(w io.Writer, _ *mshv.System) {
	fmt.Fprintln(w, "not available on this architecture")
}
