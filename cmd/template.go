package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/vedsharma/apireplay/internal/format"
	"github.com/vedsharma/apireplay/internal/model"
)

var (
	tplURL        string
	tplMethod     string
	tplBody       string
	tplPrescript  string
	tplTags       string
	tplCollection string
	rowDisabled   bool
)

func init() {
	templateCmd := &cobra.Command{
		Use:     "template",
		Aliases: []string{"tpl"},
		Short:   "Edit the in-progress template",
		Long: `The template is the request being authored. It survives between runs
and is what 'apireplay send' and 'apireplay config save' use.`,
	}

	showCmd := &cobra.Command{
		Use:   "show",
		Short: "Show the template",
		Args:  cobra.NoArgs,
		Run:   runTemplateShow,
	}

	setCmd := &cobra.Command{
		Use:   "set",
		Short: "Set template fields",
		Args:  cobra.NoArgs,
		Run:   runTemplateSet,
	}
	setCmd.Flags().StringVarP(&tplURL, "url", "u", "", "Base URL (a query string is split into params)")
	setCmd.Flags().StringVarP(&tplMethod, "method", "X", "", "HTTP method")
	setCmd.Flags().StringVarP(&tplBody, "data", "d", "", "Body (string or @filename)")
	setCmd.Flags().StringVar(&tplPrescript, "prescript", "", "Prescript source (string or @filename)")
	setCmd.Flags().StringVarP(&tplTags, "tags", "t", "", "Comma-separated tags")
	setCmd.Flags().StringVarP(&tplCollection, "collection", "c", "", "Collection label")

	resetCmd := &cobra.Command{
		Use:   "reset",
		Short: "Start over with a blank template",
		Args:  cobra.NoArgs,
		Run:   runTemplateReset,
	}

	templateCmd.AddCommand(showCmd, setCmd, resetCmd,
		newRowCommand("param", "query param", paramRows),
		newRowCommand("header", "header", headerRows),
		newVarCommand(),
	)
	rootCmd.AddCommand(templateCmd)
}

func paramRows(tpl *model.Template) *[]model.KeyValue  { return &tpl.Params }
func headerRows(tpl *model.Template) *[]model.KeyValue { return &tpl.Headers }

// editTemplate loads the template, applies edit and saves it back.
func editTemplate(cmd *cobra.Command, edit func(a *app, tpl *model.Template) error) {
	a := openApp(cmd)
	defer a.Close()

	tpl, err := a.wb.Session()
	if err != nil {
		a.fail("Failed to load template", err)
	}
	if err := edit(a, &tpl); err != nil {
		a.fail("Invalid template", err)
	}
	if err := a.wb.SaveSession(tpl); err != nil {
		a.fail("Failed to save template", err)
	}
	format.WriteTemplate(os.Stdout, tpl)
}

func runTemplateShow(cmd *cobra.Command, args []string) {
	a := openApp(cmd)
	defer a.Close()

	tpl, err := a.wb.Session()
	if err != nil {
		a.fail("Failed to load template", err)
	}
	format.WriteTemplate(os.Stdout, tpl)
}

func runTemplateSet(cmd *cobra.Command, args []string) {
	editTemplate(cmd, func(a *app, tpl *model.Template) error {
		flags := cmd.Flags()
		if flags.Changed("method") {
			m, err := model.ParseMethod(tplMethod)
			if err != nil {
				return err
			}
			tpl.Method = m
		}
		if flags.Changed("data") {
			body, err := readArgument(tplBody)
			if err != nil {
				return err
			}
			tpl.Body = body
		}
		if flags.Changed("prescript") {
			source, err := readArgument(tplPrescript)
			if err != nil {
				return err
			}
			tpl.Prescript = source
		}
		if flags.Changed("tags") {
			tpl.Tags = tplTags
		}
		if flags.Changed("collection") {
			tpl.Collection = tplCollection
		}
		if flags.Changed("url") {
			tpl.URLBase = tplURL
			*tpl = a.wb.Hydrate(*tpl)
		}
		return nil
	})
}

func runTemplateReset(cmd *cobra.Command, args []string) {
	a := openApp(cmd)
	defer a.Close()

	tpl, err := a.wb.ResetSession()
	if err != nil {
		a.fail("Failed to reset template", err)
	}
	format.WriteTemplate(os.Stdout, tpl)
}

// newRowCommand builds set/rm/toggle subcommands for a key/value table.
func newRowCommand(name, noun string, rows func(*model.Template) *[]model.KeyValue) *cobra.Command {
	c := &cobra.Command{
		Use:   name,
		Short: fmt.Sprintf("Edit template %ss", noun),
	}

	setCmd := &cobra.Command{
		Use:   "set <key> <value>",
		Short: fmt.Sprintf("Add or replace a %s", noun),
		Args:  cobra.ExactArgs(2),
		Run: func(cmd *cobra.Command, args []string) {
			editTemplate(cmd, func(_ *app, tpl *model.Template) error {
				setRow(rows(tpl), args[0], args[1], !rowDisabled)
				return nil
			})
		},
	}
	setCmd.Flags().BoolVar(&rowDisabled, "disabled", false, "Keep the row but do not send it")

	rmCmd := &cobra.Command{
		Use:   "rm <key>",
		Short: fmt.Sprintf("Remove a %s", noun),
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			editTemplate(cmd, func(_ *app, tpl *model.Template) error {
				if !removeRow(rows(tpl), args[0]) {
					return fmt.Errorf("no %s named %q", noun, args[0])
				}
				return nil
			})
		},
	}

	toggleCmd := &cobra.Command{
		Use:   "toggle <key>",
		Short: fmt.Sprintf("Enable or disable a %s", noun),
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			editTemplate(cmd, func(_ *app, tpl *model.Template) error {
				if !toggleRow(rows(tpl), args[0]) {
					return fmt.Errorf("no %s named %q", noun, args[0])
				}
				return nil
			})
		},
	}

	c.AddCommand(setCmd, rmCmd, toggleCmd)
	return c
}

func newVarCommand() *cobra.Command {
	c := &cobra.Command{
		Use:   "var",
		Short: "Edit template variables",
	}
	setCmd := &cobra.Command{
		Use:   "set <key> <value>",
		Short: "Define a {{key}} variable",
		Args:  cobra.ExactArgs(2),
		Run: func(cmd *cobra.Command, args []string) {
			editTemplate(cmd, func(_ *app, tpl *model.Template) error {
				tpl.Variables = setVariable(tpl.Variables, args[0], args[1])
				return nil
			})
		},
	}
	rmCmd := &cobra.Command{
		Use:   "rm <key>",
		Short: "Remove a variable",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			editTemplate(cmd, func(_ *app, tpl *model.Template) error {
				before := len(tpl.Variables)
				tpl.Variables = removeVariable(tpl.Variables, args[0])
				if len(tpl.Variables) == before {
					return fmt.Errorf("no variable named %q", args[0])
				}
				return nil
			})
		},
	}
	c.AddCommand(setCmd, rmCmd)
	return c
}

// setRow replaces the first row keyed key, or fills the trailing blank
// row, or appends. A blank row is kept at the end for the next entry.
func setRow(rows *[]model.KeyValue, key, value string, enabled bool) {
	key = strings.TrimSpace(key)
	for i := range *rows {
		if (*rows)[i].Key == key {
			(*rows)[i].Value = value
			(*rows)[i].Enabled = enabled
			return
		}
	}
	kv := model.KeyValue{Key: key, Value: value, Enabled: enabled}
	n := len(*rows)
	if n > 0 && (*rows)[n-1].Key == "" && (*rows)[n-1].Value == "" {
		(*rows)[n-1] = kv
	} else {
		*rows = append(*rows, kv)
	}
	*rows = append(*rows, model.KeyValue{Enabled: true})
}

func removeRow(rows *[]model.KeyValue, key string) bool {
	for i, kv := range *rows {
		if kv.Key == key {
			*rows = append((*rows)[:i], (*rows)[i+1:]...)
			return true
		}
	}
	return false
}

func toggleRow(rows *[]model.KeyValue, key string) bool {
	for i := range *rows {
		if (*rows)[i].Key == key {
			(*rows)[i].Enabled = !(*rows)[i].Enabled
			return true
		}
	}
	return false
}

func setVariable(vars []model.Variable, key, value string) []model.Variable {
	for i := range vars {
		if vars[i].Key == key {
			vars[i].Value = value
			return vars
		}
	}
	return append(vars, model.Variable{Key: key, Value: value})
}

func removeVariable(vars []model.Variable, key string) []model.Variable {
	out := vars[:0]
	for _, v := range vars {
		if v.Key != key {
			out = append(out, v)
		}
	}
	return out
}
