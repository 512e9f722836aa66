package cmd

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
)

// Install registers "vkbd serve" as a system service. Flags after "--" are
// passed on to serve, e.g. "vkbd install -- --api.addr=:4000".
type Install struct {
	ServeArgs []string `arg:"" optional:"" name:"serve-args" help:"Extra arguments for serve"`
}

func (c *Install) Run(logger *slog.Logger) error { return install(logger, c.ServeArgs) }

// Uninstall removes the service created by Install.
type Uninstall struct{}

func (c *Uninstall) Run(logger *slog.Logger) error { return uninstall(logger) }

func currentExecutable() (string, error) {
	exe, err := os.Executable()
	if err != nil {
		return "", fmt.Errorf("locating executable: %w", err)
	}
	if resolved, err := filepath.EvalSymlinks(exe); err == nil {
		exe = resolved
	}
	return filepath.Abs(exe)
}
