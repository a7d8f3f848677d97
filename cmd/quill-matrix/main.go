// ABOUTME: Entry point for quill-matrix
// ABOUTME: Wires config, content API client, session store, wizard and dispatcher into the Matrix bridge

package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/fatih/color"

	"github.com/2389/quill/internal/articles"
	"github.com/2389/quill/internal/bot"
	"github.com/2389/quill/internal/config"
	"github.com/2389/quill/internal/session"
	"github.com/2389/quill/internal/tailnet"
	"github.com/2389/quill/internal/wizard"
)

const banner = `
    ╭──────────────────────────────────╮
    │                                  │
    │      ┏━┓╻ ╻╻╻  ╻                 │
    │      ┃┓┃┃ ┃┃┃  ┃                 │
    │      ┗┻┛┗━┛╹┗━╸┗━╸               │
    │                                  │
    │       quill · matrix bot         │
    │                                  │
    ╰──────────────────────────────────╯
`

func main() {
	if len(os.Args) > 1 && os.Args[1] == "init" {
		if err := runInit(os.Stdin, config.DefaultPath()); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cyan := color.New(color.FgCyan)
	cyan.Print(banner)

	configPath := config.DefaultPath()
	dataPath := config.DataDir()

	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config from %s: %w", configPath, err)
	}
	logger := setupLogger(cfg.Logging.Level, cfg.Logging.Format)

	green := color.New(color.FgGreen)
	green.Print("    ▶ ")
	fmt.Printf("Config:     %s\n", configPath)
	green.Print("    ▶ ")
	fmt.Printf("Homeserver: %s\n", cfg.Matrix.Homeserver)
	green.Print("    ▶ ")
	fmt.Printf("Content API: %s\n", cfg.API.URL)
	green.Print("    ▶ ")
	fmt.Printf("Sessions:   %s\n", cfg.Sessions.Backend)
	if cfg.Matrix.RecoveryKey != "" {
		green.Print("    ▶ ")
		fmt.Println("Encryption: enabled")
	}
	fmt.Println()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	api, closeAPI, err := newAPIClient(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeAPI()

	sessions, err := newSessionStore(cfg.Sessions)
	if err != nil {
		return err
	}
	defer sessions.Close()

	wiz := wizard.New(sessions, api,
		wizard.WithNormalizer(wizard.NormalizerFor(cfg.Content.Format)),
		wizard.WithLogger(logger),
	)
	dispatcher, err := bot.New(api, wiz, bot.WithLogger(logger))
	if err != nil {
		return fmt.Errorf("creating dispatcher: %w", err)
	}

	bridge, err := NewBridge(cfg, dispatcher, logger)
	if err != nil {
		return fmt.Errorf("creating bridge: %w", err)
	}
	if err := bridge.Login(ctx); err != nil {
		return fmt.Errorf("matrix login: %w", err)
	}

	if cfg.Matrix.RecoveryKey != "" {
		cryptoMgr, err := SetupCrypto(ctx, bridge.matrix, cfg.Matrix.RecoveryKey, dataPath, logger)
		if err != nil {
			return fmt.Errorf("setting up encryption: %w", err)
		}
		defer cryptoMgr.Close()
	} else {
		logger.Info("encryption disabled (no recovery key)")
	}

	return bridge.Run(ctx)
}

// newAPIClient builds the content API client, dialing over a tsnet node when
// tailscale is enabled. The returned func releases the node.
func newAPIClient(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*articles.Client, func(), error) {
	opts := []articles.Option{
		articles.WithAPIKey(cfg.API.APIKey),
		articles.WithTimeout(cfg.API.Timeout),
		articles.WithLogger(logger),
	}

	closeFn := func() {}
	if cfg.Tailscale.Enabled {
		node, err := tailnet.Start(ctx, cfg.Tailscale, logger)
		if err != nil {
			return nil, nil, fmt.Errorf("starting tailnet: %w", err)
		}
		opts = append(opts, articles.WithHTTPClient(node.HTTPClient()))
		closeFn = func() { _ = node.Close() }
	}

	client := articles.NewClient(cfg.API.URL, opts...)
	if !client.HasAPIKey() {
		logger.Warn("no API key configured, requests are sent without X-API-Key")
	}
	return client, closeFn, nil
}

func newSessionStore(cfg config.SessionsConfig) (session.Store, error) {
	if cfg.Backend == config.BackendSQLite {
		store, err := session.NewSQLiteStore(cfg.Path)
		if err != nil {
			return nil, fmt.Errorf("opening session store: %w", err)
		}
		return store, nil
	}
	return session.NewMemoryStore(), nil
}

func setupLogger(level, format string) *slog.Logger {
	var logLevel slog.Level
	switch level {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: logLevel}
	if format == "json" {
		return slog.New(slog.NewJSONHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, opts))
}

// runInit asks for the essentials and writes a starter config to configPath.
func runInit(in io.Reader, configPath string) error {
	cyan := color.New(color.FgCyan)
	green := color.New(color.FgGreen)
	yellow := color.New(color.FgYellow)

	cyan.Print(banner)
	fmt.Println("    Interactive Setup")
	fmt.Println("    -----------------")
	fmt.Println()

	reader := bufio.NewReader(in)
	ask := func(prompt, def string) string {
		green.Print("    ▶ ")
		fmt.Print(prompt)
		answer, _ := reader.ReadString('\n')
		answer = strings.TrimSpace(answer)
		if answer == "" {
			return def
		}
		return answer
	}

	if _, err := os.Stat(configPath); err == nil {
		yellow.Printf("    Config already exists at %s\n", configPath)
		if strings.ToLower(ask("Overwrite? [y/N]: ", "n")) != "y" {
			fmt.Println("    Aborted.")
			return nil
		}
		fmt.Println()
	}

	homeserver := ask("Matrix homeserver URL [https://matrix.org]: ", "https://matrix.org")
	username := ask("Matrix username: ", "")
	password := ask("Matrix password: ", "")
	recoveryKey := ask("Matrix recovery key (optional, for E2EE): ", "")
	apiURL := ask("Content API URL [http://localhost:3001/api/articles]: ", "http://localhost:3001/api/articles")
	allowedUser := ask("Only answer this Matrix user (optional, e.g. @you:matrix.org): ", "")

	if err := os.MkdirAll(filepath.Dir(configPath), 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	content := renderInitConfig(homeserver, username, password, recoveryKey, apiURL, allowedUser)
	if err := os.WriteFile(configPath, []byte(content), 0600); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}

	fmt.Println()
	green.Printf("    ✓ Config written to %s\n", configPath)
	fmt.Println()
	fmt.Println("    Next steps:")
	fmt.Println("    1. export API_KEY=...   (if the content API needs one)")
	fmt.Println("    2. Run: quill-matrix")
	fmt.Println()
	return nil
}

func renderInitConfig(homeserver, username, password, recoveryKey, apiURL, allowedUser string) string {
	var b strings.Builder
	b.WriteString("# quill-matrix configuration\n# Generated by quill-matrix init\n\n")
	fmt.Fprintf(&b, "[matrix]\nhomeserver = %q\nusername = %q\npassword = %q\n", homeserver, username, password)
	if recoveryKey != "" {
		fmt.Fprintf(&b, "recovery_key = %q\n", recoveryKey)
	}
	fmt.Fprintf(&b, "\n[api]\nurl = %q\n# api_key falls back to the API_KEY environment variable\napi_key = \"${API_KEY}\"\ntimeout = \"10s\"\n", apiURL)

	b.WriteString("\n[bridge]\n# Only respond in these rooms (empty = all joined rooms)\nallowed_rooms = []\n")
	if allowedUser != "" {
		fmt.Fprintf(&b, "allowed_users = [%q]\n", allowedUser)
	} else {
		b.WriteString("# Only respond to these users (empty = everyone)\nallowed_users = []\n")
	}
	b.WriteString("typing_indicator = true\nauto_join = true\n")

	b.WriteString("\n[sessions]\nbackend = \"memory\"\n\n[content]\nformat = \"html\"\n\n[logging]\nlevel = \"info\"\n")
	return b.String()
}
