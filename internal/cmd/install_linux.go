//go:build linux

package cmd

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"text/template"
)

const unitName = "vkbd.service"

var errNotRoot = errors.New("installing the service requires root")

// systemd manages the vkbd unit. The zero value is not usable; see hostSystemd.
type systemd struct {
	unitDir   string
	isRoot    func() bool
	systemctl func(args ...string) error
}

func hostSystemd() *systemd {
	return &systemd{
		unitDir:   "/etc/systemd/system",
		isRoot:    func() bool { return os.Geteuid() == 0 },
		systemctl: systemctl,
	}
}

func (s *systemd) unitPath() string { return filepath.Join(s.unitDir, unitName) }

func install(logger *slog.Logger, serveArgs []string) error {
	return hostSystemd().install(logger, serveArgs)
}

func uninstall(logger *slog.Logger) error {
	return hostSystemd().uninstall(logger)
}

func (s *systemd) install(logger *slog.Logger, serveArgs []string) error {
	if !s.isRoot() {
		return errNotRoot
	}
	exe, err := currentExecutable()
	if err != nil {
		return err
	}
	unit, err := renderUnit(exe, serveArgs)
	if err != nil {
		return err
	}
	if err := os.WriteFile(s.unitPath(), unit, 0o644); err != nil {
		return fmt.Errorf("writing unit: %w", err)
	}
	if err := s.systemctl("daemon-reload"); err != nil {
		return err
	}
	if err := s.systemctl("enable", unitName); err != nil {
		return err
	}
	if err := s.systemctl("restart", unitName); err != nil {
		return err
	}
	logger.Info("service installed", "unit", s.unitPath(), "exe", exe, "args", serveArgs)
	return nil
}

// uninstall runs every step and returns the failures together.
func (s *systemd) uninstall(logger *slog.Logger) error {
	if !s.isRoot() {
		return errNotRoot
	}
	errs := []error{s.systemctl("disable", "--now", unitName)}
	if err := os.Remove(s.unitPath()); err != nil && !errors.Is(err, os.ErrNotExist) {
		errs = append(errs, fmt.Errorf("removing unit: %w", err))
	}
	errs = append(errs, s.systemctl("daemon-reload"))
	if err := errors.Join(errs...); err != nil {
		return err
	}
	logger.Info("service removed", "unit", s.unitPath())
	return nil
}

// serve keeps its API key under $XDG_CONFIG_HOME/vkbd, inside the state directory.
var unitTemplate = template.Must(template.New("unit").Parse(`[Unit]
Description=vkbd keyboard layout API server
After=network-online.target
Wants=network-online.target

[Service]
Type=simple
ExecStart={{.ExecStart}}
WorkingDirectory={{.Dir}}
DynamicUser=yes
StateDirectory=vkbd
ConfigurationDirectory=vkbd
Environment=XDG_CONFIG_HOME=/var/lib/vkbd
Restart=on-failure
RestartSec=2

[Install]
WantedBy=multi-user.target
`))

func renderUnit(exe string, serveArgs []string) ([]byte, error) {
	words := []string{fmt.Sprintf("%q", exe), "serve"}
	for _, a := range serveArgs {
		if strings.ContainsAny(a, " \t\"'\\") {
			a = fmt.Sprintf("%q", a)
		}
		words = append(words, a)
	}
	var buf bytes.Buffer
	err := unitTemplate.Execute(&buf, struct{ ExecStart, Dir string }{
		ExecStart: strings.Join(words, " "),
		Dir:       filepath.Dir(exe),
	})
	return buf.Bytes(), err
}

func systemctl(args ...string) error {
	out, err := exec.Command("systemctl", args...).CombinedOutput()
	if err != nil {
		return fmt.Errorf("systemctl %s: %w: %s", strings.Join(args, " "), err, strings.TrimSpace(string(out)))
	}
	return nil
}
