package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/vedsharma/apireplay/internal/format"
)

func init() {
	favoriteCmd := &cobra.Command{
		Use:     "favorite <id>",
		Aliases: []string{"fav", "star"},
		Short:   "Star or unstar a record",
		Args:    cobra.ExactArgs(1),
		Run:     runFavoriteToggle,
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List starred records",
		Args:  cobra.NoArgs,
		Run:   runFavoriteList,
	}

	favoriteCmd.AddCommand(listCmd)
	rootCmd.AddCommand(favoriteCmd)
}

func runFavoriteToggle(cmd *cobra.Command, args []string) {
	a := openApp(cmd)
	defer a.Close()

	id := parseID(a, args[0])
	starred, err := a.wb.ToggleFavorite(cmd.Context(), id)
	if err != nil {
		a.fail("Failed to update favorites", err)
	}
	if starred {
		format.PrintSuccess(fmt.Sprintf("Record #%d starred", id))
	} else {
		format.PrintSuccess(fmt.Sprintf("Record #%d unstarred", id))
	}
}

func runFavoriteList(cmd *cobra.Command, args []string) {
	a := openApp(cmd)
	defer a.Close()

	favs, err := a.wb.Favorites()
	if err != nil {
		a.fail("Failed to load favorites", err)
	}
	stars := make(map[int64]bool, len(favs))
	for _, f := range favs {
		stars[f.ID] = true
	}
	format.WriteRecordList(os.Stdout, favs, stars, time.Now())
}
