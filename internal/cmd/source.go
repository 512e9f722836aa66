package cmd

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"

	"github.com/Alia5/vkbd/deadkey"
	"github.com/Alia5/vkbd/internal/configpaths"
	"github.com/Alia5/vkbd/layout"
)

// LayoutSource selects where layouts and dead-key tables come from. Commands
// embed it so every command sees the same registry as the server.
type LayoutSource struct {
	LayoutFiles   []string `name:"layout-file" help:"Layout pack file merged after the layout directories (repeatable)" env:"VKBD_LAYOUT_FILES"`
	NoUserLayouts bool     `help:"Only use the built-in layouts and --layout-file packs" default:"false" env:"VKBD_NO_USER_LAYOUTS"`
	DeadKeysFile  string   `name:"dead-keys" help:"JSONC dead-key table merged over the built-in one" type:"existingfile" env:"VKBD_DEAD_KEYS"`
}

// Registry returns the built-in layouts with the layout directories and the
// given pack files merged on top, in that order.
func (s LayoutSource) Registry(logger *slog.Logger) (*layout.Registry, error) {
	reg := layout.Default()
	if !s.NoUserLayouts {
		for _, dir := range configpaths.LayoutDirs() {
			loaded, err := reg.LoadDir(dir)
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			for _, p := range loaded {
				logger.Debug("loaded layout pack", "path", p)
			}
			if err != nil {
				return nil, err
			}
		}
	}
	for _, p := range s.LayoutFiles {
		if err := reg.LoadFile(p); err != nil {
			return nil, err
		}
		logger.Debug("loaded layout pack", "path", p)
	}
	return reg, nil
}

// DeadKeys returns the built-in dead-key table, extended by DeadKeysFile.
func (s LayoutSource) DeadKeys() (deadkey.Table, error) {
	t := deadkey.Default()
	if s.DeadKeysFile == "" {
		return t, nil
	}
	data, err := os.ReadFile(s.DeadKeysFile)
	if err != nil {
		return nil, fmt.Errorf("reading dead key table: %w", err)
	}
	extra, err := deadkey.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", s.DeadKeysFile, err)
	}
	return t.Merge(extra), nil
}
