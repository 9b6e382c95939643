package main

import (
	"github.com/spf13/cobra"

	"github.com/gsandoval82/archivio-backend/internal/infra/archive"
)

var (
	searchFields []string
	searchSort   []string
	searchRows   int
	searchStart  int
)

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Run a raw search query against the archive",
	Long: `Run a raw Lucene query against the archive's search endpoint, e.g.

  archivio search 'collection:etree AND format:(Flac OR "VBR MP3")'`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a := newApp()
		result, err := a.client.Search(cmd.Context(), args[0], archive.SearchOptions{
			Fields: searchFields,
			Sort:   searchSort,
			Rows:   searchRows,
			Start:  searchStart,
		})
		if err != nil {
			return err
		}
		return printJSON(result)
	},
}

func init() {
	searchCmd.Flags().StringSliceVar(&searchFields, "fields", []string{"identifier", "title", "creator", "date"}, "Document fields to return")
	searchCmd.Flags().StringSliceVar(&searchSort, "sort", nil, "Sort order, e.g. 'downloads desc'")
	searchCmd.Flags().IntVar(&searchRows, "rows", 20, "Maximum number of results")
	searchCmd.Flags().IntVar(&searchStart, "start", 0, "Result offset for paging")
	rootCmd.AddCommand(searchCmd)
}
