package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/Alia5/vkbd/apitypes"
	"github.com/Alia5/vkbd/keyboard"
	"github.com/Alia5/vkbd/layout"
)

// Press runs presses through an offline session and prints the edited text.
// A key is either a "row,col" position or a braced function key such as
// "{Shift}", which presses the first slot holding that key.
type Press struct {
	Layout     string   `arg:"" help:"Layout name or locale tag"`
	Keys       []string `arg:"" help:"Positions (row,col) or function keys ({Shift}, {Enter}, ...)"`
	Text       string   `help:"Initial buffer contents"`
	SingleLine bool     `help:"Enter submits instead of inserting a newline"`
	NoDeadKeys bool     `help:"Do not compose characters through dead keys"`
	JSON       bool     `name:"json" help:"Print the final state as JSON"`

	LayoutSource `embed:""`
}

// pressResult is the final state printed by --json.
type pressResult struct {
	Buffer    string `json:"buffer"`
	Caret     int    `json:"caret"`
	Submitted bool   `json:"submitted,omitempty"`
	keyboard.State
}

func (c *Press) Run(logger *slog.Logger) error {
	return c.run(os.Stdout, logger)
}

func (c *Press) run(w io.Writer, logger *slog.Logger) error {
	reg, err := c.Registry(logger)
	if err != nil {
		return err
	}
	name, l, err := lookupLayout(reg, c.Layout)
	if err != nil {
		return err
	}
	opts := keyboard.Options{SingleLine: c.SingleLine}
	if !c.NoDeadKeys {
		if opts.DeadKeys, err = c.DeadKeys(); err != nil {
			return err
		}
	}

	sess := keyboard.NewSession(l, opts)
	buf := keyboard.NewBuffer(c.Text)
	for _, k := range c.Keys {
		row, col, err := keyPosition(l, k)
		if err != nil {
			return err
		}
		ev, err := sess.Press(row, col)
		if err != nil {
			return err
		}
		buf.Apply(ev)
		logger.Debug("press", "layout", name, "row", row, "col", col, "key", ev.Key.String(), "action", ev.Action.String(), "text", ev.Text)
		if buf.Submitted() {
			break
		}
	}

	if c.JSON {
		return json.NewEncoder(w).Encode(pressResult{
			Buffer:    buf.String(),
			Caret:     buf.Caret(),
			Submitted: buf.Submitted(),
			State:     sess.State(),
		})
	}
	_, err = fmt.Fprintln(w, buf.String())
	return err
}

func keyPosition(l *layout.Layout, s string) (row, col int, err error) {
	if strings.HasPrefix(s, "{") {
		k, err := layout.ParseKey(s)
		if err != nil {
			return 0, 0, err
		}
		if !k.IsFunction() {
			return 0, 0, fmt.Errorf("key %q: expected {Name} or row,col", s)
		}
		r, c, ok := l.Find(k.Func)
		if !ok {
			return 0, 0, fmt.Errorf("%w: no %s key on %s", keyboard.ErrUnreachable, k.Func, l.Name)
		}
		return r, c, nil
	}
	pos, err := apitypes.ParsePosition(s)
	if err != nil {
		return 0, 0, err
	}
	return pos.Row, pos.Col, nil
}
