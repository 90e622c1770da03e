// Command vecadd adds two float32 arrays on a compute device and verifies
// the result on the host.
//
// Usage:
//
//	vecadd [flags]
//	vecadd devices
//
// Example:
//
//	# 256 random elements on the first OCCA device that opens
//	vecadd
//
//	# Serial OCCA with 64 wide thread-groups
//	vecadd --device '{"mode": "Serial"}' --max-group-width 64
//
//	# Pure Go backend, no OCCA install required
//	vecadd --backend host --length 1
package main

import (
	"os"

	"github.com/notargets/vecadd/cmd/vecadd/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
