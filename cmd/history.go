package cmd

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/atotto/clipboard"
	"github.com/spf13/cobra"

	"github.com/vedsharma/apireplay/internal/format"
	"github.com/vedsharma/apireplay/internal/history"
	"github.com/vedsharma/apireplay/internal/model"
	"github.com/vedsharma/apireplay/internal/workbench"
)

var (
	historyQuery history.Query
	historyFind  string
	historyPath  string
	exportFormat string
	exportOutput string
	copySnippet  bool
	assumeYes    bool

	rerunPrescript bool
)

func init() {
	historyCmd := &cobra.Command{
		Use:     "history",
		Aliases: []string{"h"},
		Short:   "List sent records, newest first",
		Args:    cobra.NoArgs,
		Run:     runHistoryList,
	}
	f := historyCmd.Flags()
	f.StringVarP(&historyQuery.Text, "search", "s", "", "Match URL, method or date")
	f.BoolVar(&historyQuery.Fuzzy, "fuzzy", false, "Fuzzy match --search")
	f.StringVarP((*string)(&historyQuery.Method), "method", "X", "", "Only this method")
	f.StringVarP(&historyQuery.Tag, "tag", "t", "", "Only records with this tag")
	f.StringVarP(&historyQuery.Collection, "collection", "c", "", "Only records in this collection")
	f.StringVarP(&historyQuery.Where, "where", "w", "", "Filter expression, e.g. 'status >= 400 && responseTime > 500'")
	f.IntVarP(&historyQuery.Limit, "limit", "n", 20, "Number of records to show (0 for all)")

	showCmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Show a record's request and response",
		Args:  cobra.ExactArgs(1),
		Run:   runHistoryShow,
	}
	showCmd.Flags().StringVarP(&historyFind, "find", "f", "", "Highlight matches in the response")
	showCmd.Flags().StringVarP(&historyPath, "path", "p", "", "Print only this JSON path of the response, e.g. data.0.id")

	deleteCmd := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a record",
		Args:  cobra.ExactArgs(1),
		Run:   runHistoryDelete,
	}

	clearCmd := &cobra.Command{
		Use:   "clear",
		Short: "Delete every record",
		Args:  cobra.NoArgs,
		Run:   runHistoryClear,
	}
	clearCmd.Flags().BoolVarP(&assumeYes, "yes", "y", false, "Do not ask for confirmation")

	exportCmd := &cobra.Command{
		Use:   "export",
		Short: "Export every record",
		Args:  cobra.NoArgs,
		Run:   runHistoryExport,
	}
	addExportFlags(exportCmd)

	importCmd := &cobra.Command{
		Use:   "import <file>",
		Short: "Import records from a JSON export",
		Args:  cobra.ExactArgs(1),
		Run:   runHistoryImport,
	}

	curlCmd := &cobra.Command{
		Use:   "curl <id>",
		Short: "Print a record as a curl command",
		Args:  cobra.ExactArgs(1),
		Run:   runSnippet(workbench.SnippetCurl),
	}
	curlCmd.Flags().BoolVar(&copySnippet, "copy", false, "Copy to the clipboard")

	fetchCmd := &cobra.Command{
		Use:   "fetch <id>",
		Short: "Print a record as a JavaScript fetch call",
		Args:  cobra.ExactArgs(1),
		Run:   runSnippet(workbench.SnippetFetch),
	}
	fetchCmd.Flags().BoolVar(&copySnippet, "copy", false, "Copy to the clipboard")

	replicateCmd := &cobra.Command{
		Use:   "replicate <id>",
		Short: "Load a record into the template",
		Args:  cobra.ExactArgs(1),
		Run:   runHistoryReplicate,
	}

	resendCmd := &cobra.Command{
		Use:   "resend <id>",
		Short: "Send a record again as a new record",
		Args:  cobra.ExactArgs(1),
		Run:   runHistoryResend,
	}
	resendCmd.Flags().BoolVar(&rerunPrescript, "prescript", false, "Run the record's prescript again over the recorded request")

	diffCmd := &cobra.Command{
		Use:   "diff <id> <id>",
		Short: "Diff the responses of two records",
		Args:  cobra.ExactArgs(2),
		Run:   runHistoryDiff,
	}

	respondCmd := &cobra.Command{
		Use:   "respond <id> <file|->",
		Short: "Replace a record's stored response",
		Long: `Replace a record's stored response with the content of a file, or stdin
when the file is '-'. JSON documents are stored as structured responses,
anything else as text.`,
		Args: cobra.ExactArgs(2),
		Run:  runHistoryRespond,
	}

	historyCmd.AddCommand(showCmd, deleteCmd, clearCmd, exportCmd, importCmd,
		curlCmd, fetchCmd, replicateCmd, resendCmd, diffCmd, respondCmd)
	rootCmd.AddCommand(historyCmd)
}

func addExportFlags(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&exportFormat, "format", "F", "json", "Document format: json or yaml")
	cmd.Flags().StringVarP(&exportOutput, "output", "o", "", "Write to file instead of stdout")
}

func parseID(a *app, arg string) int64 {
	id, err := strconv.ParseInt(strings.TrimPrefix(arg, "#"), 10, 64)
	if err != nil {
		a.fail("Invalid record id", fmt.Errorf("%q is not a number", arg))
	}
	return id
}

func favoriteIDs(a *app) map[int64]bool {
	favs, err := a.wb.Favorites()
	if err != nil {
		a.fail("Failed to load favorites", err)
	}
	ids := make(map[int64]bool, len(favs))
	for _, f := range favs {
		ids[f.ID] = true
	}
	return ids
}

func runHistoryList(cmd *cobra.Command, args []string) {
	a := openApp(cmd)
	defer a.Close()

	q := historyQuery
	if q.Method != "" {
		m, err := model.ParseMethod(string(q.Method))
		if err != nil {
			a.fail("Invalid method", err)
		}
		q.Method = m
	}
	recs, err := a.wb.Records(cmd.Context(), q)
	if err != nil {
		a.fail("Failed to load records", err)
	}
	format.WriteRecordList(os.Stdout, recs, favoriteIDs(a), time.Now())
}

func runHistoryShow(cmd *cobra.Command, args []string) {
	a := openApp(cmd)
	defer a.Close()

	rec, err := a.wb.Record(cmd.Context(), parseID(a, args[0]))
	if err != nil {
		a.fail("Failed to load record", err)
	}
	if historyPath != "" {
		value, ok := history.ExtractPath(rec.Response, historyPath)
		if !ok {
			a.fail("Path not found", fmt.Errorf("%q", historyPath))
		}
		fmt.Println(value)
		return
	}
	format.WriteRecordDetail(os.Stdout, rec, historyFind)
}

func runHistoryDelete(cmd *cobra.Command, args []string) {
	a := openApp(cmd)
	defer a.Close()

	id := parseID(a, args[0])
	if err := a.wb.DeleteRecord(cmd.Context(), id); err != nil {
		a.fail("Failed to delete record", err)
	}
	format.PrintSuccess(fmt.Sprintf("Record #%d deleted", id))
}

func runHistoryClear(cmd *cobra.Command, args []string) {
	if !assumeYes && !confirm("Delete every record?") {
		return
	}
	a := openApp(cmd)
	defer a.Close()

	if err := a.wb.ClearRecords(cmd.Context()); err != nil {
		a.fail("Failed to clear records", err)
	}
	format.PrintSuccess("Records cleared")
}

func confirm(question string) bool {
	fmt.Fprintf(os.Stderr, "%s [y/N] ", question)
	answer, _ := bufio.NewReader(os.Stdin).ReadString('\n')
	answer = strings.ToLower(strings.TrimSpace(answer))
	return answer == "y" || answer == "yes"
}

func runHistoryExport(cmd *cobra.Command, args []string) {
	a := openApp(cmd)
	defer a.Close()

	doc, err := a.wb.ExportRecords(cmd.Context(), workbench.Format(exportFormat))
	if err != nil {
		a.fail("Failed to export records", err)
	}
	writeDocument(a, doc)
}

func writeDocument(a *app, doc []byte) {
	if exportOutput == "" {
		_, _ = os.Stdout.Write(doc)
		fmt.Println()
		return
	}
	if err := os.WriteFile(exportOutput, doc, 0o600); err != nil {
		a.fail("Failed to write export", err)
	}
	format.PrintSuccess(fmt.Sprintf("Exported to %s", exportOutput))
}

func readDocument(a *app, name string) []byte {
	if name == "-" {
		doc, err := io.ReadAll(os.Stdin)
		if err != nil {
			a.fail("Failed to read stdin", err)
		}
		return doc
	}
	doc, err := readBodyFromFile(name)
	if err != nil {
		a.fail("Failed to read file", err)
	}
	return []byte(doc)
}

func runHistoryImport(cmd *cobra.Command, args []string) {
	a := openApp(cmd)
	defer a.Close()

	n, err := a.wb.ImportRecords(cmd.Context(), readDocument(a, args[0]))
	if err != nil {
		a.fail("Failed to import records", err)
	}
	format.PrintSuccess(fmt.Sprintf("Imported %d records", n))
}

func runSnippet(kind workbench.SnippetKind) func(cmd *cobra.Command, args []string) {
	return func(cmd *cobra.Command, args []string) {
		a := openApp(cmd)
		defer a.Close()

		text, err := a.wb.Snippet(cmd.Context(), parseID(a, args[0]), kind)
		if err != nil {
			a.fail("Failed to render snippet", err)
		}
		fmt.Println(text)
		if copySnippet {
			if err := clipboard.WriteAll(text); err != nil {
				format.PrintWarning(fmt.Sprintf("Clipboard unavailable: %v", err))
				return
			}
			format.PrintSuccess("Copied to clipboard")
		}
	}
}

func runHistoryReplicate(cmd *cobra.Command, args []string) {
	a := openApp(cmd)
	defer a.Close()

	tpl, err := a.wb.Replicate(cmd.Context(), parseID(a, args[0]))
	if err != nil {
		a.fail("Failed to replicate record", err)
	}
	format.WriteTemplate(os.Stdout, tpl)
	format.PrintSuccess("Loaded into the template")
}

func runHistoryResend(cmd *cobra.Command, args []string) {
	a := openApp(cmd)
	defer a.Close()

	out, err := a.wb.Resend(cmd.Context(), parseID(a, args[0]), rerunPrescript)
	if err != nil {
		a.fail("Request failed", err)
	}
	printOutcome(out)
}

func runHistoryDiff(cmd *cobra.Command, args []string) {
	a := openApp(cmd)
	defer a.Close()

	diff, err := a.wb.Diff(cmd.Context(), parseID(a, args[0]), parseID(a, args[1]))
	if err != nil {
		a.fail("Failed to diff records", err)
	}
	if diff == "" {
		format.PrintSuccess("Responses are identical")
		return
	}
	fmt.Print(diff)
}

func runHistoryRespond(cmd *cobra.Command, args []string) {
	a := openApp(cmd)
	defer a.Close()

	id := parseID(a, args[0])
	doc := readDocument(a, args[1])
	payload := model.TextPayload(string(doc))
	if trimmed := strings.TrimSpace(string(doc)); strings.HasPrefix(trimmed, "{") || strings.HasPrefix(trimmed, "[") {
		var structured model.Payload
		if err := structured.UnmarshalJSON([]byte(trimmed)); err == nil {
			payload = structured
		}
	}
	if err := a.wb.UpdateResponse(cmd.Context(), id, payload); err != nil {
		a.fail("Failed to update response", err)
	}
	format.PrintSuccess(fmt.Sprintf("Response of record #%d replaced", id))
}
