package main

import (
	"fmt"
	"io"

	"github.com/c35s/mshv/mshv"
)

func printMSRs(w io.Writer, sys *mshv.System) {
	for i, idx := range sys.GetMSRIndexList().Indices() {
		fmt.Fprintf(w, "%d\t%#x\n", i, idx)
	}
}
