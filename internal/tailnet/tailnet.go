// ABOUTME: Optional tsnet node used to reach a content API that only listens on a tailnet
// ABOUTME: Resolves state dir and auth key, brings the node up, and exposes an HTTP client

package tailnet

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"

	"tailscale.com/tsnet"

	"github.com/2389/quill/internal/config"
)

// Node is a running userspace Tailscale node.
type Node struct {
	srv    *tsnet.Server
	logger *slog.Logger
}

// Start brings up a tsnet node for cfg and waits until it is connected.
func Start(ctx context.Context, cfg config.TailscaleConfig, logger *slog.Logger) (*Node, error) {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "tailnet")

	stateDir, err := ResolveStateDir(cfg.StateDir)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(stateDir, 0700); err != nil {
		return nil, fmt.Errorf("creating tailscale state dir: %w", err)
	}

	authKey, err := ResolveAuthKey(cfg.AuthKey)
	if err != nil {
		return nil, err
	}

	srv := &tsnet.Server{
		Hostname:  cfg.Hostname,
		Dir:       stateDir,
		Ephemeral: cfg.Ephemeral,
		AuthKey:   authKey,
		Logf: func(format string, args ...any) {
			logger.Debug(fmt.Sprintf(format, args...))
		},
	}

	logger.Info("starting tailscale node", "hostname", cfg.Hostname, "state_dir", stateDir, "ephemeral", cfg.Ephemeral)
	status, err := srv.Up(ctx)
	if err != nil {
		_ = srv.Close()
		return nil, fmt.Errorf("starting tailscale: %w", err)
	}
	logger.Info("tailscale node up", "hostname", cfg.Hostname, "ips", status.TailscaleIPs)

	return &Node{srv: srv, logger: logger}, nil
}

// HTTPClient returns a client whose connections are dialed over the tailnet.
func (n *Node) HTTPClient() *http.Client {
	return n.srv.HTTPClient()
}

// Close shuts the node down.
func (n *Node) Close() error {
	n.logger.Info("stopping tailscale node")
	return n.srv.Close()
}

// ResolveStateDir returns the state directory, using default if not configured.
func ResolveStateDir(configured string) (string, error) {
	if configured != "" {
		return configured, nil
	}
	dataDir := config.DataDir()
	if !filepath.IsAbs(dataDir) {
		return "", errors.New("cannot determine data directory for tailscale state (set tailscale.state_dir explicitly)")
	}
	return filepath.Join(dataDir, "tailscale"), nil
}

// ResolveAuthKey returns the auth key from config or environment.
func ResolveAuthKey(configured string) (string, error) {
	authKey := configured
	if authKey == "" {
		authKey = os.Getenv("TS_AUTHKEY")
	}
	if authKey == "" {
		return "", errors.New("tailscale auth key required: set auth_key in config or TS_AUTHKEY environment variable")
	}
	return authKey, nil
}
