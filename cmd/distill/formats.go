package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func newFormatsCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "formats",
		Short: "List supported formats and extensions",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			registry := c.registry()
			out := cmd.OutOrStdout()

			for _, format := range registry.Formats() {
				p, ok := registry.GetParser(format)
				if !ok {
					continue
				}
				caps := p.Capabilities()
				fmt.Fprintf(out, "%-10s %-20s %s\n", format, strings.Join(caps.Extensions, ","), caps.Description)
			}

			supported := registry.SupportedFormats()
			fmt.Fprintf(out, "\naccept: %s\n", supported.Accept)
		},
	}
}
