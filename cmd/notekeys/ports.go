package main

import (
	"fmt"
	"sort"

	"github.com/leandrodaf/notekeys/sdk/midi"
	"github.com/spf13/cobra"
)

func newPortsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "ports",
		Short: "List available MIDI output ports",
		RunE: func(cmd *cobra.Command, args []string) error {
			ports, err := midi.Ports(a.options()...)
			if err != nil {
				return fmt.Errorf("listing ports: %w", err)
			}
			sort.Slice(ports, func(i, j int) bool { return ports[i].ID < ports[j].ID })

			out := cmd.OutOrStdout()
			if len(ports) == 0 {
				fmt.Fprintln(out, "No MIDI output ports found")
				return nil
			}
			for _, p := range ports {
				if p.Manufacturer != "" {
					fmt.Fprintf(out, "%3d  %s (%s)\n", p.ID, p.Name, p.Manufacturer)
				} else {
					fmt.Fprintf(out, "%3d  %s\n", p.ID, p.Name)
				}
			}
			return nil
		},
	}
}
