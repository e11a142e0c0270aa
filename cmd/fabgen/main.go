// Command fabgen compiles an FPGA fabric description into HDL, ConfigMem
// tables and a bitstream spec, and turns FASM feature lists into
// bitstreams.
package main

import (
	"fmt"
	"os"

	"github.com/tebeka/atexit"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		atexit.Exit(1)
	}

	atexit.Exit(0)
}
