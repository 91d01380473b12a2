package main

import (
	"fmt"

	"github.com/nihei9/earley"
	"github.com/spf13/cobra"
)

var versionFlags = struct {
	buildInfo *bool
}{}

func init() {
	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print the version number",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if *versionFlags.buildInfo {
				fmt.Println(earley.Version().String())
				return nil
			}
			fmt.Println(earley.Version().Core())
			return nil
		},
	}
	versionFlags.buildInfo = cmd.Flags().Bool("build-info", false, "show build information")
	rootCmd.AddCommand(cmd)
}
