package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/Alia5/vkbd/deadkey"
	"github.com/Alia5/vkbd/keyboard"
)

// Type prints the key plan for a text, one stroke per line.
type Type struct {
	Layout     string `arg:"" help:"Layout name or locale tag"`
	Text       string `arg:"" help:"Text to type"`
	NoDeadKeys bool   `help:"Do not compose characters through dead keys"`
	JSON       bool   `name:"json" help:"Print the plan as JSON"`
	Verify     bool   `help:"Replay the plan through a session and check it types the text"`

	LayoutSource `embed:""`
}

func (c *Type) Run(logger *slog.Logger) error {
	return c.run(os.Stdout, logger)
}

func (c *Type) run(w io.Writer, logger *slog.Logger) error {
	reg, err := c.Registry(logger)
	if err != nil {
		return err
	}
	name, l, err := lookupLayout(reg, c.Layout)
	if err != nil {
		return err
	}
	var table deadkey.Table
	if !c.NoDeadKeys {
		if table, err = c.DeadKeys(); err != nil {
			return err
		}
	}

	strokes, err := keyboard.Plan(l, c.Text, table)
	if err != nil {
		return err
	}
	logger.Debug("planned text", "layout", name, "strokes", len(strokes))

	if c.Verify {
		got, err := keyboard.NewSession(l, keyboard.Options{DeadKeys: table}).Type(strokes)
		if err != nil {
			return fmt.Errorf("replaying plan: %w", err)
		}
		if got != c.Text {
			return fmt.Errorf("replaying plan on %s typed %q, want %q", name, got, c.Text)
		}
	}

	if c.JSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(strokes)
	}
	for _, st := range strokes {
		if _, err := fmt.Fprintln(w, st); err != nil {
			return err
		}
	}
	return nil
}
