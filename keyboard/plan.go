package keyboard

import (
	"errors"
	"fmt"

	"github.com/Alia5/vkbd/deadkey"
	"github.com/Alia5/vkbd/layout"
)

// ErrUnreachable is returned when a character cannot be typed on a layout.
var ErrUnreachable = errors.New("character not reachable on layout")

// Stroke is one key press with the modifiers it needs.
type Stroke struct {
	Row   int        `json:"row"`
	Col   int        `json:"col"`
	Shift bool       `json:"shift,omitempty"`
	AltGr bool       `json:"altgr,omitempty"`
	Key   layout.Key `json:"key"`
}

func (s Stroke) String() string {
	mods := ""
	if s.Shift {
		mods += "Shift+"
	}
	if s.AltGr {
		mods += "AltGr+"
	}
	return fmt.Sprintf("%s%s@%d,%d", mods, s.Key.Label(), s.Row, s.Col)
}

type planner struct {
	l        *layout.Layout
	table    deadkey.Table
	hasShift bool
	hasAlt   bool
	index    map[string]Stroke
}

func newPlanner(l *layout.Layout, table deadkey.Table) *planner {
	p := &planner{l: l, table: table, index: map[string]Stroke{}}
	_, _, p.hasShift = l.Find(layout.KeyShift)
	if _, _, ok := l.Find(layout.KeyAltGr); ok {
		p.hasAlt = true
	} else if _, _, ok := l.Find(layout.KeyAlt); ok {
		p.hasAlt = true
	}
	// Cheapest modifier combination wins; earlier slots win ties.
	for i := range layout.MaxSlotKeys {
		shift, altgr := i&IndexShift != 0, i&IndexAltGr != 0
		if (shift && !p.hasShift) || (altgr && !p.hasAlt) {
			continue
		}
		for r, row := range l.Keys {
			for c, slot := range row {
				if slot.Primary().IsFunction() {
					continue
				}
				k := slot.At(i)
				if k.Text == "" || k.IsFunction() {
					continue
				}
				if _, ok := p.index[k.Text]; !ok {
					p.index[k.Text] = Stroke{Row: r, Col: c, Shift: shift, AltGr: altgr, Key: k}
				}
			}
		}
	}
	return p
}

func (p *planner) function(f layout.FunctionKey) (Stroke, bool) {
	r, c, ok := p.l.Find(f)
	if !ok {
		return Stroke{}, false
	}
	return Stroke{Row: r, Col: c, Key: layout.Fn(f)}, true
}

func (p *planner) dead(s string) bool {
	return p.table != nil && p.l.IsDeadKey(s) && p.table.IsDead(s)
}

func (p *planner) char(s string) ([]Stroke, error) {
	switch s {
	case " ":
		if st, ok := p.function(layout.KeySpace); ok {
			return []Stroke{st}, nil
		}
	case "\n":
		if st, ok := p.function(layout.KeyEnter); ok {
			return []Stroke{st}, nil
		}
	case "\t":
		if st, ok := p.function(layout.KeyTab); ok {
			return []Stroke{st}, nil
		}
	}
	if st, ok := p.index[s]; ok {
		if p.dead(s) {
			// A dead key pressed twice yields the bare diacritic.
			return []Stroke{st, st}, nil
		}
		return []Stroke{st}, nil
	}
	if p.table != nil {
		for _, d := range p.table.Diacritics() {
			if !p.dead(d) {
				continue
			}
			ds, ok := p.index[d]
			if !ok {
				continue
			}
			for base, composed := range p.table[d] {
				if composed != s {
					continue
				}
				bs, ok := p.index[base]
				if !ok || p.dead(base) {
					continue
				}
				return []Stroke{ds, bs}, nil
			}
		}
	}
	return nil, fmt.Errorf("%w: %q on %s", ErrUnreachable, s, p.l.Name)
}

// Plan returns the strokes that type text on l, starting from a session with
// no modifiers set. Characters absent from the grid are composed through
// table when l has a matching dead key; a nil table disables composition.
func Plan(l *layout.Layout, text string, table deadkey.Table) ([]Stroke, error) {
	p := newPlanner(l, table)
	var out []Stroke
	for _, r := range text {
		st, err := p.char(string(r))
		if err != nil {
			return nil, err
		}
		out = append(out, st...)
	}
	return out, nil
}

// Type replays strokes on the session, pressing Shift and AltGr where a stroke
// needs them, and returns the text produced.
func (s *Session) Type(strokes []Stroke) (string, error) {
	buf := NewBuffer("")
	for _, st := range strokes {
		if !st.Key.IsFunction() {
			if err := s.modifiers(st); err != nil {
				return buf.String(), err
			}
		}
		ev, err := s.Press(st.Row, st.Col)
		if err != nil {
			return buf.String(), err
		}
		buf.Apply(ev)
	}
	return buf.String(), nil
}

func (s *Session) modifiers(st Stroke) error {
	if st.Shift != (s.shift != s.caps) {
		if err := s.pressFunction(layout.KeyShift); err != nil {
			return err
		}
	}
	altgr := s.alt || s.altLock
	if st.AltGr != altgr {
		switch {
		case s.altLock && !st.AltGr:
			if err := s.pressFunction(layout.KeyAltLk); err != nil {
				return err
			}
		default:
			err := s.pressFunction(layout.KeyAltGr)
			if errors.Is(err, ErrUnreachable) {
				err = s.pressFunction(layout.KeyAlt)
			}
			if err != nil {
				return err
			}
		}
	}
	return nil
}

func (s *Session) pressFunction(f layout.FunctionKey) error {
	r, c, ok := s.layout.Find(f)
	if !ok {
		return fmt.Errorf("%w: no %s key on %s", ErrUnreachable, f, s.layout.Name)
	}
	_, err := s.Press(r, c)
	return err
}
