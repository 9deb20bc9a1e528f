package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/vedsharma/apireplay/internal/format"
	"github.com/vedsharma/apireplay/internal/workbench"
)

func init() {
	configCmd := &cobra.Command{
		Use:     "config",
		Aliases: []string{"cfg"},
		Short:   "Manage named request configurations",
	}

	saveCmd := &cobra.Command{
		Use:   "save <name>",
		Short: "Save the template under a name",
		Args:  cobra.ExactArgs(1),
		Run:   runConfigSave,
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List saved configurations",
		Args:  cobra.NoArgs,
		Run:   runConfigList,
	}

	loadCmd := &cobra.Command{
		Use:   "load <name|id>",
		Short: "Load a configuration into the template",
		Args:  cobra.ExactArgs(1),
		Run:   runConfigLoad,
	}

	deleteCmd := &cobra.Command{
		Use:   "delete <name|id>",
		Short: "Delete a configuration",
		Args:  cobra.ExactArgs(1),
		Run:   runConfigDelete,
	}

	exportCmd := &cobra.Command{
		Use:   "export",
		Short: "Export saved configurations",
		Args:  cobra.NoArgs,
		Run:   runConfigExport,
	}
	addExportFlags(exportCmd)

	importCmd := &cobra.Command{
		Use:   "import <file>",
		Short: "Import configurations from a JSON export",
		Args:  cobra.ExactArgs(1),
		Run:   runConfigImport,
	}

	configCmd.AddCommand(saveCmd, listCmd, loadCmd, deleteCmd, exportCmd, importCmd)
	rootCmd.AddCommand(configCmd)
}

func runConfigSave(cmd *cobra.Command, args []string) {
	a := openApp(cmd)
	defer a.Close()

	cfg, err := a.wb.SaveConfig(args[0])
	if err != nil {
		a.fail("Failed to save configuration", err)
	}
	format.PrintSuccess(fmt.Sprintf("Configuration '%s' saved", cfg.Name))
}

func runConfigList(cmd *cobra.Command, args []string) {
	a := openApp(cmd)
	defer a.Close()

	configs, err := a.wb.Configs()
	if err != nil {
		a.fail("Failed to load configurations", err)
	}
	format.WriteConfigList(os.Stdout, configs, time.Now())
}

func runConfigLoad(cmd *cobra.Command, args []string) {
	a := openApp(cmd)
	defer a.Close()

	tpl, err := a.wb.LoadConfig(args[0])
	if err != nil {
		a.fail("Failed to load configuration", err)
	}
	format.WriteTemplate(os.Stdout, tpl)
	format.PrintSuccess("Loaded into the template")
}

func runConfigDelete(cmd *cobra.Command, args []string) {
	a := openApp(cmd)
	defer a.Close()

	cfg, err := a.wb.DeleteConfig(args[0])
	if err != nil {
		a.fail("Failed to delete configuration", err)
	}
	format.PrintSuccess(fmt.Sprintf("Configuration '%s' deleted", cfg.Name))
}

func runConfigExport(cmd *cobra.Command, args []string) {
	a := openApp(cmd)
	defer a.Close()

	doc, err := a.wb.ExportConfigs(workbench.Format(exportFormat))
	if err != nil {
		a.fail("Failed to export configurations", err)
	}
	writeDocument(a, doc)
}

func runConfigImport(cmd *cobra.Command, args []string) {
	a := openApp(cmd)
	defer a.Close()

	_, n, err := a.wb.ImportConfigs(readDocument(a, args[0]))
	if err != nil {
		a.fail("Failed to import configurations", err)
	}
	format.PrintSuccess(fmt.Sprintf("Imported %d configurations", n))
}
