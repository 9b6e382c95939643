package main

import (
	"os"

	"github.com/spf13/cobra"
)

var metadataCmd = &cobra.Command{
	Use:   "metadata <identifier>[/sub-path]",
	Short: "Fetch an item's raw metadata",
	Long: `Fetch an item's metadata as raw JSON. A sub-path selects one
element of the metadata document, e.g.

  archivio metadata gd1977-05-08.shure57.stevenson.29303
  archivio metadata gd1977-05-08.shure57.stevenson.29303/files`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a := newApp()
		raw, err := a.client.MetadataRaw(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		os.Stdout.Write(raw)
		os.Stdout.Write([]byte("\n"))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(metadataCmd)
}
