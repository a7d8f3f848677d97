// ABOUTME: Root cobra command for quill-admin with persistent flags
// ABOUTME: Resolves config, flag overrides and the content API client before each command

package commands

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/2389/quill/internal/articles"
	"github.com/2389/quill/internal/config"
)

type app struct {
	configPath string
	apiURL     string
	apiKey     string
	output     string
	sessionsDB string

	cfg *config.Config
	api *articles.Client
}

// Execute runs the root command against os.Args.
func Execute() error {
	return NewRootCmd().Execute()
}

// NewRootCmd builds the full command tree.
func NewRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:           "quill-admin",
		Short:         "Manage articles and wizard sessions behind the quill bot",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup()
		},
	}

	root.PersistentFlags().StringVarP(&a.configPath, "config", "c", config.DefaultPath(), "quill config file")
	root.PersistentFlags().StringVar(&a.apiURL, "api-url", "", "content API base URL (overrides config)")
	root.PersistentFlags().StringVar(&a.apiKey, "api-key", "", "content API key (overrides config and API_KEY)")
	root.PersistentFlags().StringVarP(&a.output, "output", "o", "table", "output format: table or yaml")

	root.AddCommand(
		listCmd(a),
		showCmd(a),
		publishCmd(a),
		deleteCmd(a),
		sessionsCmd(a),
	)
	return root
}

func (a *app) checkOutput() error {
	if a.output != "table" && a.output != "yaml" {
		return fmt.Errorf("unknown output format %q (want table or yaml)", a.output)
	}
	return nil
}

// setup loads the config when present and applies flag overrides.
func (a *app) setup() error {
	if err := a.checkOutput(); err != nil {
		return err
	}

	cfg, err := config.LoadAPI(a.configPath)
	switch {
	case err == nil:
	case errors.Is(err, fs.ErrNotExist) && a.apiURL != "":
		cfg = config.Default()
	default:
		return err
	}
	if a.apiURL != "" {
		cfg.API.URL = a.apiURL
	}
	if a.apiKey != "" {
		cfg.API.APIKey = a.apiKey
	}
	if err := cfg.ValidateAPI(); err != nil {
		return err
	}
	a.cfg = cfg

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
	a.api = articles.NewClient(cfg.API.URL,
		articles.WithAPIKey(cfg.API.APIKey),
		articles.WithTimeout(cfg.API.Timeout),
		articles.WithLogger(logger),
	)
	return nil
}

// setupSessions is setup for the sessions subtree: the content API is never
// contacted, so only [sessions] is read, and --db stands in for a config file.
func (a *app) setupSessions() error {
	if err := a.checkOutput(); err != nil {
		return err
	}

	cfg, err := config.LoadSessions(a.configPath)
	switch {
	case err == nil:
	case errors.Is(err, fs.ErrNotExist) && a.sessionsDB != "":
		cfg = config.Default()
	default:
		return err
	}
	if a.sessionsDB != "" {
		cfg.Sessions.Backend = config.BackendSQLite
		cfg.Sessions.Path = a.sessionsDB
	}
	a.cfg = cfg
	return nil
}
