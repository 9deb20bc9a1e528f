package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/vedsharma/apireplay/internal/format"
	"github.com/vedsharma/apireplay/internal/model"
	"github.com/vedsharma/apireplay/internal/pipeline"
)

var (
	params     []string
	headers    []string
	variables  []string
	data       string
	script     string
	tags       string
	collection string
)

func init() {
	for _, method := range model.Methods {
		name := strings.ToLower(string(method))
		c := &cobra.Command{
			Use:   name + " <url>",
			Short: fmt.Sprintf("Send a %s request", method),
			Args:  cobra.ExactArgs(1),
			Run:   runRequest(method),
		}
		addRequestFlags(c)
		rootCmd.AddCommand(c)
	}

	sendCmd := &cobra.Command{
		Use:   "send",
		Short: "Send the in-progress template",
		Args:  cobra.NoArgs,
		Run:   runSend,
	}
	rootCmd.AddCommand(sendCmd)
}

func addRequestFlags(cmd *cobra.Command) {
	cmd.Flags().StringArrayVarP(&params, "query", "q", nil, "Add query param key=value (can be used multiple times)")
	cmd.Flags().StringArrayVarP(&headers, "header", "H", nil, "Add header 'Key: Value' (can be used multiple times)")
	cmd.Flags().StringArrayVarP(&variables, "var", "V", nil, "Define variable key=value for {{key}} placeholders")
	cmd.Flags().StringVarP(&data, "data", "d", "", "Request body (string or @filename)")
	cmd.Flags().StringVar(&script, "prescript", "", "JavaScript run before sending (string or @filename)")
	cmd.Flags().StringVarP(&tags, "tags", "t", "", "Comma-separated tags")
	cmd.Flags().StringVarP(&collection, "collection", "c", "", "Collection label")
}

func runRequest(method model.Method) func(cmd *cobra.Command, args []string) {
	return func(cmd *cobra.Command, args []string) {
		body, err := readArgument(data)
		if err != nil {
			format.PrintError(fmt.Sprintf("Failed to read file: %v", err))
			os.Exit(1)
		}
		source, err := readArgument(script)
		if err != nil {
			format.PrintError(fmt.Sprintf("Failed to read file: %v", err))
			os.Exit(1)
		}

		tpl := model.NewTemplate()
		tpl.URLBase = args[0]
		tpl.Method = method
		tpl.Params = nil
		tpl.Headers = parsePairs(headers, ":")
		tpl.Body = body
		tpl.Prescript = source
		tpl.Tags = tags
		tpl.Collection = collection
		for _, kv := range parsePairs(variables, "=") {
			tpl.Variables = append(tpl.Variables, model.Variable{Key: kv.Key, Value: kv.Value})
		}

		a := openApp(cmd)
		defer a.Close()

		// Query params from the URL come first, then -q flags.
		tpl = a.wb.Hydrate(tpl)
		tpl.Params = append(withoutBlankRows(tpl.Params), parsePairs(params, "=")...)
		if method.HasBody() {
			warnIfSensitiveBody(body)
		}

		out, err := a.wb.Send(cmd.Context(), tpl)
		if err != nil {
			a.fail("Request failed", err)
		}
		printOutcome(out)
	}
}

func runSend(cmd *cobra.Command, args []string) {
	a := openApp(cmd)
	defer a.Close()

	out, err := a.wb.SendSession(cmd.Context())
	if err != nil {
		a.fail("Request failed", err)
	}
	printOutcome(out)
}

func printOutcome(out pipeline.Outcome) {
	format.WriteOutcome(os.Stdout, out.Record)
	if out.Notice != "" {
		format.PrintWarning(out.Notice)
	}
}

// parsePairs splits "key<sep>value" arguments. Arguments without sep
// become a key with an empty value.
func parsePairs(args []string, sep string) []model.KeyValue {
	rows := make([]model.KeyValue, 0, len(args))
	for _, arg := range args {
		key, value, _ := strings.Cut(arg, sep)
		key = strings.TrimSpace(key)
		if key == "" {
			continue
		}
		rows = append(rows, model.KeyValue{Key: key, Value: strings.TrimSpace(value), Enabled: true})
	}
	return rows
}

func withoutBlankRows(rows []model.KeyValue) []model.KeyValue {
	out := make([]model.KeyValue, 0, len(rows))
	for _, kv := range rows {
		if kv.Key != "" || kv.Value != "" {
			out = append(out, kv)
		}
	}
	return out
}

// readArgument returns s, or the content of the file it names when it
// starts with @.
func readArgument(s string) (string, error) {
	if !strings.HasPrefix(s, "@") {
		return s, nil
	}
	return readBodyFromFile(strings.TrimPrefix(s, "@"))
}

// readBodyFromFile reads file content with path validation to prevent directory traversal
func readBodyFromFile(filename string) (string, error) {
	wd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("failed to get working directory: %w", err)
	}

	absPath, err := filepath.Abs(filename)
	if err != nil {
		return "", fmt.Errorf("invalid file path: %w", err)
	}
	cleanPath := filepath.Clean(absPath)

	if !withinDir(cleanPath, wd) {
		return "", fmt.Errorf("access denied: file must be within current directory")
	}

	// Symlink targets must stay inside the working directory too.
	realPath, err := filepath.EvalSymlinks(cleanPath)
	if err != nil {
		if !os.IsNotExist(err) {
			return "", fmt.Errorf("failed to resolve path: %w", err)
		}
		realPath = cleanPath
	} else if realWD, werr := filepath.EvalSymlinks(wd); werr == nil && !withinDir(realPath, realWD) && !withinDir(realPath, wd) {
		return "", fmt.Errorf("access denied: symlink target must be within current directory")
	}

	content, err := os.ReadFile(realPath)
	if err != nil {
		return "", err
	}
	return string(content), nil
}

func withinDir(path, dir string) bool {
	return path == dir || strings.HasPrefix(path, dir+string(filepath.Separator))
}

// warnIfSensitiveBody warns that a body that looks like it carries
// credentials will be stored in the record.
func warnIfSensitiveBody(body string) {
	if !pipeline.LooksSensitive(body) {
		return
	}
	fmt.Fprintln(os.Stderr, "WARNING: Request body may contain sensitive data (e.g., passwords, tokens). It will be stored in the record.")
	fmt.Fprintln(os.Stderr, "         Remove it with 'apireplay history delete <id>' after sending.")
}
