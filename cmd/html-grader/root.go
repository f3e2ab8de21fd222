package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"html-grader/internal/app"
	"html-grader/internal/config"
	"html-grader/internal/fetcher"
	"html-grader/internal/observability"
	"html-grader/internal/storage"
	"html-grader/internal/storage/mssql"
)

const (
	checksFileDefault = "checks.json"
	htmlFileDefault   = "index.html"
	urlDefault        = "http://www.google.com"
)

var (
	errMissingFile = errors.New("file does not exist")
	errInvalidURL  = errors.New("invalid url")
)

// inputError carries the offending path or URL for the diagnostic.
type inputError struct {
	kind  error
	value string
}

func (e *inputError) Error() string {
	return fmt.Sprintf("%v: %s", e.kind, e.value)
}

func (e *inputError) Unwrap() error {
	return e.kind
}

type options struct {
	checksFile string
	htmlFile   string
	url        string
	configPath string
	verbose    bool
	render     bool
}

// NewRootCmd creates the root command for html-grader.
func NewRootCmd() *cobra.Command {
	opts := &options{}

	cmd := &cobra.Command{
		Use:   "html-grader",
		Short: "Check an HTML page for elements matching CSS selectors",
		Long: `html-grader loads an HTML document from a local file or a URL, tests
every CSS selector listed in the checks file and prints a JSON object
mapping each selector to whether at least one element matched.

The checks file is a JSON array of selectors, e.g. ["h1", "#header", ".title a"].
When --url is given the page is fetched with a single GET and --file is ignored.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runCheck(cmd, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.checksFile, "checks", "c", checksFileDefault, "Path to checks.json")
	cmd.Flags().StringVarP(&opts.htmlFile, "file", "f", htmlFileDefault, "Path to index.html")
	cmd.Flags().StringVarP(&opts.url, "url", "u", urlDefault, "URL to check")
	cmd.Flags().StringVar(&opts.configPath, "config", "", "Path to optional YAML config")
	cmd.Flags().BoolVarP(&opts.verbose, "verbose", "v", false, "Enable verbose logging")
	cmd.Flags().BoolVar(&opts.render, "render", false, "Render the URL in headless Chrome before checking")

	return cmd
}

func runCheck(cmd *cobra.Command, opts *options) error {
	useURL := cmd.Flags().Changed("url")

	if err := assertFileExists(opts.checksFile); err != nil {
		return err
	}
	src := app.Source{File: opts.htmlFile}
	if useURL {
		if err := assertValidURL(opts.url); err != nil {
			return err
		}
		src = app.Source{URL: opts.url}
	} else if err := assertFileExists(opts.htmlFile); err != nil {
		return err
	}

	cfg, err := config.LoadConfig(opts.configPath)
	if err != nil {
		return err
	}
	if opts.verbose {
		cfg.Observability.LogLevel = "debug"
	}
	if opts.render {
		cfg.Rod.Enabled = true
	}

	logger := observability.NewLogger(observability.Options{
		LogPath:    cfg.Observability.LogPath,
		LogLevel:   cfg.Observability.LogLevel,
		MaxSizeMB:  cfg.Observability.LogMaxSizeMB,
		MaxBackups: cfg.Observability.LogMaxBackups,
		Console:    cmd.ErrOrStderr(),
	})
	defer func() {
		if err := logger.Close(); err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "failed to close log file: %v\n", err)
		}
	}()

	var renderer app.PageRenderer
	if cfg.Rod.Enabled && useURL {
		renderer = fetcher.NewRenderer(cfg, logger)
	}

	var repo storage.Repository
	if cfg.StorageEnabled() {
		r, err := mssql.NewRepository(cfg.Storage.DSN, cfg.GetCommandTimeout(), logger)
		if err != nil {
			// Run history is optional, the check still runs
			logger.Error("Run history disabled", "error", err.Error())
		} else {
			repo = r
			defer func() {
				if err := r.Close(); err != nil {
					logger.Error("Failed to close database", "error", err.Error())
				}
			}()
		}
	}

	ctx, cancel := app.GracefulShutdown(logger)
	defer cancel()

	orchestrator := app.NewOrchestrator(cfg, logger, fetcher.NewFetcher(cfg, logger), renderer, repo)
	_, err = orchestrator.Run(ctx, src, opts.checksFile, cmd.OutOrStdout())
	return err
}

func assertFileExists(path string) error {
	if _, err := os.Stat(path); err != nil {
		return &inputError{kind: errMissingFile, value: path}
	}
	return nil
}

func assertValidURL(rawURL string) error {
	if !strings.HasPrefix(rawURL, "http") {
		return &inputError{kind: errInvalidURL, value: rawURL}
	}
	return nil
}

// reportError prints the diagnostic for err. Validation failures go to
// stdout, everything else to stderr.
func reportError(stdout, stderr io.Writer, err error) {
	var inErr *inputError
	switch {
	case errors.As(err, &inErr) && inErr.kind == errMissingFile:
		fmt.Fprintf(stdout, "%s does not exist. Exiting.\n", inErr.value)
	case errors.As(err, &inErr) && inErr.kind == errInvalidURL:
		fmt.Fprintf(stdout, "Url %s is invalid. Exiting.\n", inErr.value)
	case errors.Is(err, fetcher.ErrFetch):
		fmt.Fprintf(stderr, "Error downloading url: %v\n", err)
	default:
		fmt.Fprintln(stderr, err)
	}
}

// Execute runs the root command.
func Execute() {
	cmd := NewRootCmd()
	if err := cmd.Execute(); err != nil {
		reportError(cmd.OutOrStdout(), cmd.ErrOrStderr(), err)
		os.Exit(1)
	}
}
