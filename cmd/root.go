package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/MakeNowJust/heredoc"
	"github.com/spf13/cobra"

	"github.com/vedsharma/apireplay/internal/config"
	"github.com/vedsharma/apireplay/internal/format"
	httpclient "github.com/vedsharma/apireplay/internal/http"
	"github.com/vedsharma/apireplay/internal/library"
	"github.com/vedsharma/apireplay/internal/logging"
	"github.com/vedsharma/apireplay/internal/pipeline"
	"github.com/vedsharma/apireplay/internal/storage"
	"github.com/vedsharma/apireplay/internal/workbench"
)

var rootCmd = &cobra.Command{
	Use:   "apireplay",
	Short: "Author, send and replay HTTP requests",
	Long: heredoc.Doc(`
		apireplay is a command-line HTTP workbench.

		Author requests with params, headers, {{variables}} and an optional
		JavaScript prescript, send them, and keep every exchange as a record
		you can search, diff, replay or turn into curl and fetch snippets.

		Examples:
		  apireplay get https://api.example.com/users -q page=2
		  apireplay post https://api.example.com/users -d '{"name": "Ada"}'
		  apireplay history --where 'status >= 400'
		  apireplay config save "list users"
		  apireplay serve
	`),
	SilenceUsage: true,
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Log to stderr at debug level")
}

// app is the wired workbench a command runs against.
type app struct {
	cfg   *config.Config
	wb    *workbench.Workbench
	store *storage.SQLiteStorage
	logs  io.Closer
}

// openApp loads configuration and opens the data directory. It exits the
// process on failure, like every other command error.
func openApp(cmd *cobra.Command) *app {
	cfg, err := config.Load()
	if err != nil {
		format.PrintError(fmt.Sprintf("Invalid configuration: %v", err))
		os.Exit(1)
	}

	level, toStderr := cfg.LogLevel, cfg.LogStderr
	if verbose, _ := cmd.Flags().GetBool("verbose"); verbose {
		level, toStderr = "debug", true
	}
	logs, err := logging.Setup(level, cfg.LogFile, toStderr)
	if err != nil {
		format.PrintError(fmt.Sprintf("Failed to open log file: %v", err))
		os.Exit(1)
	}

	store, err := storage.Open(cfg.DataDir)
	if err != nil {
		format.PrintError(fmt.Sprintf("Failed to open records: %v", err))
		os.Exit(1)
	}
	cache, err := storage.NewFileCache(cfg.DataDir)
	if err != nil {
		format.PrintError(fmt.Sprintf("Failed to open data directory: %v", err))
		os.Exit(1)
	}

	client := httpclient.NewClient(httpclient.Options{
		Timeout:         cfg.RequestTimeout,
		MaxResponseSize: cfg.MaxResponseSize,
		Limiter:         cfg.Limiter(),
	})
	p := pipeline.New(client, store, pipeline.Options{
		ScriptTimeout: cfg.ScriptTimeout,
		RedactHeaders: cfg.RedactHeaders,
	})
	lib := library.New(cache, cfg.Settings.HeaderDefaults())

	return &app{
		cfg:   cfg,
		wb:    workbench.New(p, store, lib),
		store: store,
		logs:  logs,
	}
}

func (a *app) Close() {
	_ = a.store.Close()
	_ = a.logs.Close()
}

// fail prints msg with err and exits.
func (a *app) fail(msg string, err error) {
	format.PrintError(fmt.Sprintf("%s: %v", msg, err))
	a.Close()
	os.Exit(1)
}
