package main

import (
	"context"
	"errors"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/gsandoval82/archivio-backend/internal/domain/bookmarks"
)

var bookmarksWatch bool

var bookmarksCmd = &cobra.Command{
	Use:   "bookmarks [username]",
	Short: "Resolve a user's bookmarked items into playlists",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a := newApp()
		username := a.cfg.BookmarksUser
		if len(args) == 1 {
			username = args[0]
		}
		if username == "" {
			return errors.New("no username given and ARCHIVIO_BOOKMARKS_USER unset")
		}

		worker := bookmarks.New(a.client, a.provider, username, func(playlists []bookmarks.Playlist) {
			printJSON(playlists)
		}, bookmarks.WithInterval(a.cfg.BookmarksInterval))

		if !bookmarksWatch {
			playlists, err := worker.Sync(cmd.Context())
			if err != nil {
				return err
			}
			return printJSON(playlists)
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()
		if err := worker.Run(ctx); !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	},
}

func init() {
	bookmarksCmd.Flags().BoolVar(&bookmarksWatch, "watch", false, "Keep syncing on the configured interval")
	rootCmd.AddCommand(bookmarksCmd)
}
