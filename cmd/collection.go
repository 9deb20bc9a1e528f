package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/vedsharma/apireplay/internal/format"
	"github.com/vedsharma/apireplay/internal/history"
)

var runParallel int

func init() {
	collectionCmd := &cobra.Command{
		Use:     "collection",
		Aliases: []string{"col"},
		Short:   "Browse and run collections",
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List collections with record counts",
		Args:  cobra.NoArgs,
		Run:   runCollectionList,
	}

	showCmd := &cobra.Command{
		Use:   "show <name>",
		Short: "Show records in a collection",
		Args:  cobra.ExactArgs(1),
		Run:   runCollectionShow,
	}

	runCmd := &cobra.Command{
		Use:   "run <name>",
		Short: "Send every saved configuration in a collection",
		Args:  cobra.ExactArgs(1),
		Run:   runCollectionRun,
	}
	runCmd.Flags().IntVarP(&runParallel, "parallel", "p", 1, "Requests in flight at once")

	collectionCmd.AddCommand(listCmd, showCmd, runCmd)
	rootCmd.AddCommand(collectionCmd)
}

func runCollectionList(cmd *cobra.Command, args []string) {
	a := openApp(cmd)
	defer a.Close()

	cols, err := a.wb.Collections(cmd.Context())
	if err != nil {
		a.fail("Failed to load collections", err)
	}
	format.WriteCollections(os.Stdout, cols)
}

func runCollectionShow(cmd *cobra.Command, args []string) {
	a := openApp(cmd)
	defer a.Close()

	recs, err := a.wb.Records(cmd.Context(), history.Query{Collection: args[0]})
	if err != nil {
		a.fail("Failed to load collection", err)
	}
	if len(recs) == 0 {
		a.fail("Collection not found", fmt.Errorf("no records in '%s'", args[0]))
	}
	format.WriteRecordList(os.Stdout, recs, favoriteIDs(a), time.Now())
}

func runCollectionRun(cmd *cobra.Command, args []string) {
	a := openApp(cmd)
	defer a.Close()

	results, err := a.wb.RunCollection(cmd.Context(), args[0], runParallel)
	if err != nil {
		a.fail("Failed to run collection", err)
	}
	format.WriteRunResults(os.Stdout, results)

	failed := 0
	for _, r := range results {
		if r.Err != nil || r.Outcome.Notice != "" {
			failed++
		}
	}
	if failed > 0 {
		format.PrintError(fmt.Sprintf("%d of %d requests failed", failed, len(results)))
		a.Close()
		os.Exit(1)
	}
	format.PrintSuccess(fmt.Sprintf("%d requests sent", len(results)))
}
