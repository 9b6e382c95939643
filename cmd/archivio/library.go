package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var browseCmd = &cobra.Command{
	Use:   "browse [uri]",
	Short: "List the children of a library URI (collections, items or tracks)",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a := newApp()
		uri := a.provider.RootDirectory().URI
		if len(args) == 1 {
			uri = args[0]
		}
		return printJSON(a.provider.Browse(cmd.Context(), uri))
	},
}

var lookupCmd = &cobra.Command{
	Use:   "lookup <uri>",
	Short: "Resolve a library URI into its playable tracks",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a := newApp()
		return printJSON(a.provider.Lookup(cmd.Context(), args[0]))
	},
}

var urlCmd = &cobra.Command{
	Use:   "url <uri>",
	Short: "Print the download URL of a track URI",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a := newApp()
		u, err := a.provider.GetStreamURL(args[0])
		if err != nil {
			return err
		}
		fmt.Println(u)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(browseCmd, lookupCmd, urlCmd)
}
