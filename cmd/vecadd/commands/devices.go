package commands

import (
	"fmt"

	"github.com/notargets/vecadd/host"
	"github.com/notargets/vecadd/occa"
	"github.com/spf13/cobra"
)

func newDevicesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "devices",
		Short: "List the compute devices that open on this machine",
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()

			for _, props := range occa.DefaultDevices {
				dev, err := occa.NewDevice(props)
				if err != nil {
					fmt.Fprintf(out, "%-36s unavailable\n", props)
					continue
				}
				fmt.Fprintf(out, "%-36s %s, max group %d\n", props, dev.Mode(), dev.MaxThreadsPerGroup())
				dev.Free()
			}

			h := host.NewDevice(0)
			defer h.Free()
			fmt.Fprintf(out, "%-36s %s, max group %d\n", "host", h.Name(), h.MaxThreadsPerGroup())
			return nil
		},
	}
}
