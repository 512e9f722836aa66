package cmd

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"

	"github.com/Alia5/vkbd/keyboard"
	"github.com/Alia5/vkbd/layout"
)

// Layouts groups the layout inspection subcommands.
type Layouts struct {
	List     LayoutsList     `cmd:"" default:"1" help:"List the known layouts"`
	Show     LayoutsShow     `cmd:"" help:"Draw a layout as keycaps"`
	Export   LayoutsExport   `cmd:"" help:"Write layouts as a layout pack"`
	Validate LayoutsValidate `cmd:"" help:"Load layout packs and report problems"`
	Locale   LayoutsLocale   `cmd:"" help:"Show which layout serves a locale"`
}

// lookupLayout finds a layout by registry name, falling back to a locale tag
// so "de-AT" works wherever "Deutsch" does.
func lookupLayout(reg *layout.Registry, name string) (string, *layout.Layout, error) {
	l, err := reg.Get(name)
	if err == nil {
		return name, l, nil
	}
	if n, byLocale, lerr := reg.ForLocale(name); lerr == nil {
		return n, byLocale, nil
	}
	return "", nil, err
}

type LayoutsList struct {
	LayoutSource `embed:""`
}

func (c *LayoutsList) Run(logger *slog.Logger) error {
	reg, err := c.Registry(logger)
	if err != nil {
		return err
	}
	return writeLayoutList(os.Stdout, reg)
}

var headerStyle = lipgloss.NewStyle().Bold(true)

func writeLayoutList(w io.Writer, reg *layout.Registry) error {
	names := reg.Names()
	nameW, labelW := len("NAME"), len("LABEL")
	all := reg.All()
	for _, n := range names {
		nameW = max(nameW, lipgloss.Width(n))
		labelW = max(labelW, lipgloss.Width(all[n].Name))
	}
	col := func(s string, width int) string {
		return lipgloss.NewStyle().Width(width + 2).Render(s)
	}
	if _, err := fmt.Fprintln(w, headerStyle.Render(col("NAME", nameW)+col("LABEL", labelW)+"LANG")); err != nil {
		return err
	}
	for _, n := range names {
		l := all[n]
		line := col(n, nameW) + col(l.Name, labelW) + strings.Join(l.Lang, ",")
		if _, err := fmt.Fprintln(w, strings.TrimRight(line, " ")); err != nil {
			return err
		}
	}
	return nil
}

type LayoutsShow struct {
	Name  string `arg:"" help:"Layout name or locale tag"`
	Shift bool   `help:"Show the Shift level"`
	AltGr bool   `name:"altgr" help:"Show the AltGr level"`
	Width int    `help:"Output width in columns (default: terminal width)"`

	LayoutSource `embed:""`
}

func (c *LayoutsShow) Run(logger *slog.Logger) error {
	reg, err := c.Registry(logger)
	if err != nil {
		return err
	}
	name, l, err := lookupLayout(reg, c.Name)
	if err != nil {
		return err
	}
	width := c.Width
	if width <= 0 {
		width = terminalWidth()
	}
	logger.Debug("rendering layout", "layout", name, "width", width)
	_, err = fmt.Fprintln(os.Stdout, renderLayout(name, l, c.Shift, c.AltGr, width))
	return err
}

func terminalWidth() int {
	fd := int(os.Stdout.Fd())
	if term.IsTerminal(fd) {
		if w, _, err := term.GetSize(fd); err == nil && w > 0 {
			return w
		}
	}
	return 80
}

const (
	minCapWidth = 1
	maxCapWidth = 6
)

var (
	capStyle      = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Align(lipgloss.Center)
	functionStyle = capStyle.Foreground(lipgloss.Color("8"))
	titleStyle    = lipgloss.NewStyle().Bold(true)
)

// renderLayout draws every row of l as bordered keycaps showing the keys of
// the selected modifier level. Cap width shrinks so the widest row fits in
// width columns; labels that do not fit are cut.
func renderLayout(name string, l *layout.Layout, shift, altgr bool, width int) string {
	cols := 1
	for _, row := range l.Keys {
		cols = max(cols, len(row))
	}
	// Two border columns per cap.
	inner := min(max(width/cols-2, minCapWidth), maxCapWidth)

	rows := make([]string, 0, len(l.Keys)+1)
	title := fmt.Sprintf("%s (%s)", l.Name, name)
	if shift || altgr {
		var mods []string
		if shift {
			mods = append(mods, "Shift")
		}
		if altgr {
			mods = append(mods, "AltGr")
		}
		title += " " + strings.Join(mods, "+")
	}
	rows = append(rows, titleStyle.Render(title))

	for _, row := range l.Keys {
		caps := make([]string, 0, len(row))
		for _, slot := range row {
			k := keyboard.Resolve(slot, shift, altgr)
			style := capStyle
			if k.IsFunction() {
				style = functionStyle
			}
			caps = append(caps, style.Width(inner).Render(truncate(k.Label(), inner)))
		}
		rows = append(rows, lipgloss.JoinHorizontal(lipgloss.Top, caps...))
	}
	return lipgloss.JoinVertical(lipgloss.Left, rows...)
}

func truncate(s string, width int) string {
	if lipgloss.Width(s) <= width {
		return s
	}
	var b strings.Builder
	for _, r := range s {
		if lipgloss.Width(b.String()+string(r)) > width {
			break
		}
		b.WriteRune(r)
	}
	return b.String()
}

type LayoutsExport struct {
	Names  []string `arg:"" optional:"" help:"Layouts to export (default: all)"`
	Format string   `help:"Output format" enum:"json,yaml,toml,cbor" default:"json"`
	Output string   `short:"o" help:"Destination file (default: stdout)" type:"path"`
	Force  bool     `help:"Overwrite if the file already exists"`

	LayoutSource `embed:""`
}

func (c *LayoutsExport) Run(logger *slog.Logger) error {
	reg, err := c.Registry(logger)
	if err != nil {
		return err
	}
	format, err := layout.ParseFormat(c.Format)
	if err != nil {
		return err
	}
	pack, err := selectPack(reg, c.Names)
	if err != nil {
		return err
	}

	if c.Output == "" {
		return layout.Encode(os.Stdout, pack, format)
	}
	if !c.Force {
		if _, err := os.Stat(c.Output); err == nil {
			return errors.New("destination exists; use --force to overwrite")
		}
	}
	f, err := os.Create(c.Output)
	if err != nil {
		return err
	}
	if err := layout.Encode(f, pack, format); err != nil {
		_ = f.Close()
		return err
	}
	logger.Info("exported layouts", "count", len(pack), "path", c.Output, "format", format)
	return f.Close()
}

// selectPack returns the named layouts of reg, or all of them when names is
// empty. Names may be locale tags.
func selectPack(reg *layout.Registry, names []string) (layout.Pack, error) {
	if len(names) == 0 {
		return reg.Pack(), nil
	}
	pack := make(layout.Pack, len(names))
	for _, n := range names {
		name, l, err := lookupLayout(reg, n)
		if err != nil {
			return nil, err
		}
		pack[name] = layout.ToDocument(l)
	}
	return pack, nil
}

type LayoutsValidate struct {
	Files []string `arg:"" optional:"" help:"Layout pack files to check (default: the configured layouts)"`

	LayoutSource `embed:""`
}

func (c *LayoutsValidate) Run(logger *slog.Logger) error {
	return c.run(os.Stdout, logger)
}

func (c *LayoutsValidate) run(w io.Writer, logger *slog.Logger) error {
	reg, err := c.Registry(logger)
	if err != nil {
		return err
	}
	var errs []error
	for _, p := range c.Files {
		if err := reg.LoadFile(p); err != nil {
			errs = append(errs, err)
			continue
		}
		_, _ = fmt.Fprintf(w, "ok %s\n", p)
	}
	for _, issue := range reg.Check() {
		_, _ = fmt.Fprintf(w, "warning %s\n", issue)
	}
	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}

type LayoutsLocale struct {
	Tag string `arg:"" help:"BCP 47 language tag, e.g. de-AT"`

	LayoutSource `embed:""`
}

func (c *LayoutsLocale) Run(logger *slog.Logger) error {
	reg, err := c.Registry(logger)
	if err != nil {
		return err
	}
	name, l, err := reg.ForLocale(c.Tag)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(os.Stdout, "%s\t%s\n", name, l.Name)
	return err
}
