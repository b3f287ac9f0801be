package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/chess99/BookDistill/internal/parser"
)

func newDetectCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "detect FILE...",
		Short: "Print the detected format of each file",
		Long: `Detect looks only at the file name, so the files do not need to exist.
Files no parser claims are reported as "unsupported".`,
		Args: cobra.MinimumNArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			registry := c.registry()
			for _, name := range args {
				format, ok := registry.DetectFormat(parser.NewFile(name, nil))
				if !ok {
					fmt.Fprintf(cmd.OutOrStdout(), "%s\tunsupported\n", name)
					continue
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", name, format)
			}
		},
	}
}
