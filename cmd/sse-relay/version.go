package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/omarluq/sse-relay/internal/vinfo"
)

var versionLong bool

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the sse-relay version",
	Run: func(cmd *cobra.Command, _ []string) {
		v := vinfo.String()
		if versionLong {
			v = vinfo.Long()
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", rootCmd.Name(), v)
	},
}

func init() {
	versionCmd.Flags().BoolVar(&versionLong, "long", false, "include commit, build date and Go version")
	rootCmd.AddCommand(versionCmd)
}
