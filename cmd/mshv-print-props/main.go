// mshv-print-props prints the host partition properties reported by /dev/mshv.
package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/c35s/mshv/mshv"
	"github.com/sirupsen/logrus"
	"golang.org/x/term"
)

func main() {

	var (
		code   = flag.Uint64("code", 0, "print only the host property with this code")
		msrs   = flag.Bool("msrs", false, "print the MSR catalog (amd64 only)")
		create = flag.Bool("create", false, "create and initialize a partition")
		debug  = flag.Bool("debug", false, "log library calls")
	)

	flag.Parse()

	if *debug {
		logger := logrus.New()
		logger.SetLevel(logrus.DebugLevel)
		mshv.SetLogger(logrus.NewEntry(logger))
	}

	sys, err := mshv.Open()
	if err != nil {
		panic(err)
	}

	defer sys.Close()

	var out io.Writer = os.Stdout
	if term.IsTerminal(int(os.Stdout.Fd())) {
		tw := tabwriter.NewWriter(os.Stdout, 0, 8, 2, ' ', 0)
		defer tw.Flush()
		out = tw
	}

	codes := mshv.HostPropertyCodes()
	if *code != 0 {
		codes = []mshv.PropertyCode{mshv.PropertyCode(*code)}
	}

	fmt.Fprintln(out, "# host partition properties")
	for _, c := range codes {
		v, err := sys.GetHostPartitionProperty(c)
		if err != nil {
			panic(err)
		}

		fmt.Fprintf(out, "%v\t%#x\t%d\n", c, uint64(c), v)
	}

	if *msrs {
		fmt.Fprintln(out, "\n# msrs")
		printMSRs(out, sys)
	}

	if *create {
		pt, err := sys.CreatePartition()
		if err != nil {
			panic(err)
		}

		defer pt.Close()

		features, err := pt.GetProperty(mshv.PropertySyntheticProcFeatures)
		if err != nil {
			panic(err)
		}

		fmt.Fprintln(out, "\n# partition")
		fmt.Fprintf(out, "state\t%v\n", pt.State())
		fmt.Fprintf(out, "synthetic features\t%v\n", mshv.SyntheticFeatures(features))
	}
}
